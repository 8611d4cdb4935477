package brain

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/aggregator"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/cooldown"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/executor"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/gatekeeper"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scoring"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

// OrchestratorModule is the module name used for tick-level failures
const OrchestratorModule = "orchestrator"

// Tick status labels for metrics.TicksTotal
const (
	TickOK      = "ok"
	TickPartial = "partial"
	TickFailed  = "failed"
)

// ErrEmptyUniverse is recorded when there is nothing to scan
var ErrEmptyUniverse = errors.New("empty universe")

// Components are the pipeline stages and the providers they read from
type Components struct {
	Registry   *modules.Registry
	Executor   *executor.Executor
	Aggregator *aggregator.Aggregator
	Scorer     *scoring.Scorer
	Gatekeeper *gatekeeper.Gatekeeper
	Cooldown   *cooldown.Registry
	Calibrator *scoring.Calibrator
	Risk       *risk.Engine

	Universe  contracts.UniverseProvider
	Market    contracts.MarketDataProvider
	Portfolio contracts.PortfolioProvider // optional

	// Specs/ModuleDeps enable runtime module toggling (없으면 Registry 고정)
	Specs      map[string]modules.Spec
	ModuleDeps modules.Deps
}

// Options tune the orchestrator
type Options struct {
	CooldownMinutes int
	Metrics         metrics.Sink
	Sinks           []contracts.TickSink
	Now             func() time.Time
}

// TickRequest overrides the universe and session for one tick
type TickRequest struct {
	Symbols []string          `json:"symbols,omitempty" validate:"omitempty,max=500,dive,required,max=12"`
	Session contracts.Session `json:"session,omitempty" validate:"omitempty,oneof=premarket regular afterhours closed"`
}

// MetricsSnapshot is the orchestrator status exposed to the API
type MetricsSnapshot struct {
	ModulesLoaded      int                     `json:"modules_loaded"`
	Modules            []string                `json:"modules"`
	CooldownsActive    int                     `json:"cooldowns_active"`
	TicksRun           int64                   `json:"ticks_run"`
	SignalsEmitted     int64                   `json:"signals_emitted"`
	LastTickAt         *time.Time              `json:"last_tick_at,omitempty"`
	LastLatencySeconds float64                 `json:"last_latency_seconds"`
	LastErrors         []contracts.ModuleError `json:"last_errors"`
}

// Orchestrator coordinates one tick: T0 modules → T6 risk
// ⭐ SSOT: 틱 파이프라인 조율은 여기서만
type Orchestrator struct {
	c               Components
	cooldownMinutes int
	metrics         metrics.Sink
	now             func() time.Time
	logger          *logger.Logger

	sinksMu sync.RWMutex
	sinks   []contracts.TickSink

	// 레지스트리 교체는 regMu 아래에서만, 틱은 시작 시점 스냅샷 사용
	regMu    sync.RWMutex
	registry *modules.Registry
	specs    map[string]modules.Spec

	mu             sync.RWMutex
	ticksRun       int64
	signalsEmitted int64
	last           *contracts.TickResult
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(c Components, opts Options, log *logger.Logger) *Orchestrator {
	if opts.CooldownMinutes <= 0 {
		opts.CooldownMinutes = 30
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if c.Registry == nil {
		c.Registry = modules.NewRegistry()
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Orchestrator{
		c:               c,
		cooldownMinutes: opts.CooldownMinutes,
		metrics:         opts.Metrics,
		now:             opts.Now,
		logger:          log,
		sinks:           append([]contracts.TickSink(nil), opts.Sinks...),
		registry:        c.Registry,
		specs:           copySpecs(c.Specs),
	}
}

// AddSink registers a sink for subsequent ticks
func (o *Orchestrator) AddSink(s contracts.TickSink) {
	o.sinksMu.Lock()
	defer o.sinksMu.Unlock()
	o.sinks = append(o.sinks, s)
}

// Cooldowns exposes the shared cooldown registry
func (o *Orchestrator) Cooldowns() *cooldown.Registry {
	return o.c.Cooldown
}

// Registry exposes the loaded modules
func (o *Orchestrator) Registry() *modules.Registry {
	o.regMu.RLock()
	defer o.regMu.RUnlock()
	return o.registry
}

// RunTick executes one full tick. It never returns an error and never panics:
// failures are recorded on the result.
func (o *Orchestrator) RunTick(ctx context.Context, req TickRequest) *contracts.TickResult {
	began := time.Now()
	result := &contracts.TickResult{
		TickID:     uuid.NewString(),
		Timestamp:  o.now(),
		Session:    req.Session,
		Signals:    []*contracts.CandidateSignal{},
		Errors:     []contracts.ModuleError{},
		Rejections: make(map[string]int),
		Stages:     make([]contracts.StageResult, 0, len(contracts.AllStages())),
	}
	log := o.logger.WithField("tick_id", result.TickID)

	// T4에서 설정된 쿨다운; 이후 패닉이면 되돌림
	var cooled []string
	func() {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				for _, sym := range cooled {
					o.c.Cooldown.Clear(sym)
				}
				o.fail(result, fmt.Errorf("panic: %v", r), stack)
			}
		}()
		o.run(ctx, req, result, &cooled, log)
	}()

	result.LatencySeconds = time.Since(began).Seconds()
	status := o.record(result)

	log.WithFields(map[string]interface{}{
		"status":   status,
		"universe": result.UniverseSize,
		"signals":  len(result.Signals),
		"errors":   len(result.Errors),
		"latency":  result.LatencySeconds,
	}).Info("Tick completed")

	o.dispatch(ctx, result, log)
	return result
}

// run executes T0~T6 and writes into result
func (o *Orchestrator) run(ctx context.Context, req TickRequest, result *contracts.TickResult, cooled *[]string, log *logger.Logger) {
	// 틱 도중 토글되어도 시작 시점 모듈 집합 유지
	registry := o.Registry()

	snap, err := o.snapshot(ctx, req)
	if err != nil {
		o.fail(result, err, "")
		return
	}
	if req.Session != "" {
		snap.Session = req.Session
	}
	result.Session = snap.Session
	result.UniverseSize = len(snap.Symbols)

	// T0: 모듈 병렬 실행
	mods := registry.Modules()
	start := time.Now()
	outputs, errs := o.c.Executor.Run(ctx, mods, snap)
	result.Errors = append(result.Errors, errs...)
	o.stage(result, contracts.StageModules, len(mods), len(mods)-len(errs), start)

	// T1: 종목별 병합
	start = time.Now()
	candidates := o.c.Aggregator.Aggregate(outputs, registry.Names(), result.Timestamp)
	o.stage(result, contracts.StageAggregate, len(outputs), len(candidates), start)

	// T2: 신뢰도/티어
	start = time.Now()
	for _, c := range candidates {
		o.c.Scorer.Score(c, outputs, snap.Session)
	}
	o.stage(result, contracts.StageScore, len(candidates), len(candidates), start)

	// T3: PLATINUM 하드 체크 (탈락 = GOLD 강등)
	start = time.Now()
	downgraded := o.c.Gatekeeper.Apply(candidates, outputs, snap)
	o.stage(result, contracts.StageGate, len(candidates), len(candidates), start)

	// T4: 쿨다운
	start = time.Now()
	admitted, rejected := o.c.Cooldown.Admit(candidates, o.cooldownMinutes)
	for _, c := range admitted {
		if c.Tier.AtLeast(contracts.TierGold) {
			*cooled = append(*cooled, c.Symbol)
		}
	}
	if rejected > 0 {
		result.Rejections["cooldown"] = rejected
		for i := 0; i < rejected; i++ {
			o.metrics.IncCounter(metrics.Rejections, "cooldown")
		}
	}
	o.stage(result, contracts.StageCooldown, len(candidates), len(admitted), start)

	// T5: 티어별 보정
	start = time.Now()
	o.c.Calibrator.Apply(admitted)
	o.stage(result, contracts.StageCalibrate, len(admitted), len(admitted), start)

	// T6: 리스크
	start = time.Now()
	o.attachRisk(ctx, admitted, snap, log)
	o.stage(result, contracts.StageRisk, len(admitted), len(admitted), start)

	expires := result.Timestamp.Add(time.Duration(o.cooldownMinutes) * time.Minute)
	for _, c := range admitted {
		c.ExpiresAt = &expires
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		if admitted[i].CalibratedConfidence != admitted[j].CalibratedConfidence {
			return admitted[i].CalibratedConfidence > admitted[j].CalibratedConfidence
		}
		return admitted[i].AggregateScore > admitted[j].AggregateScore
	})
	result.Signals = admitted

	log.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"downgraded": downgraded,
		"cooldown":   rejected,
		"admitted":   len(admitted),
	}).Debug("Tick stages finished")
}

// snapshot resolves the universe and fetches its quotes
func (o *Orchestrator) snapshot(ctx context.Context, req TickRequest) (*contracts.MarketSnapshot, error) {
	symbols := req.Symbols
	if len(symbols) == 0 {
		if o.c.Universe == nil {
			return nil, fmt.Errorf("resolve universe: %w", ErrEmptyUniverse)
		}
		u, err := o.c.Universe.Universe(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve universe: %w", err)
		}
		symbols = u.Symbols
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("resolve universe: %w", ErrEmptyUniverse)
	}

	if o.c.Market == nil {
		return nil, errors.New("fetch snapshot: no market data provider")
	}
	snap, err := o.c.Market.Snapshot(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = o.now()
	}
	return snap, nil
}

// attachRisk assesses each admitted signal with its calibrated confidence
func (o *Orchestrator) attachRisk(ctx context.Context, signals []*contracts.CandidateSignal, snap *contracts.MarketSnapshot, log *logger.Logger) {
	if o.c.Risk == nil || len(signals) == 0 {
		return
	}

	var pf contracts.PortfolioState
	if o.c.Portfolio != nil {
		p, err := o.c.Portfolio.Portfolio(ctx)
		if err != nil {
			log.WithError(err).Warn("Portfolio unavailable, assessing against empty portfolio")
		} else {
			pf = p
		}
	}

	for _, c := range signals {
		in := risk.InputFromQuote(snap.Quote(c.Symbol))
		in.Symbol = c.Symbol
		in.Confidence = c.CalibratedConfidence
		if sig, ok := c.Modules[modules.NameOBVVWAP]; ok {
			if m, ok := sig.MetaFloat("momentum_score"); ok {
				in.MomentumScore = m
			}
		}
		a := o.c.Risk.Assess(in, pf, snap.Market)
		c.Risk = &a
	}
}

// fail records a tick-level failure; partial signals are discarded
func (o *Orchestrator) fail(result *contracts.TickResult, err error, stack string) {
	result.Signals = []*contracts.CandidateSignal{}
	result.Errors = append(result.Errors, contracts.ModuleError{
		Module: OrchestratorModule,
		Error:  err.Error(),
		Stack:  stack,
	})
	o.logger.WithFields(map[string]interface{}{
		"tick_id": result.TickID,
		"error":   err.Error(),
	}).Error("Tick failed")
}

func (o *Orchestrator) stage(result *contracts.TickResult, s contracts.Stage, in, out int, start time.Time) {
	result.Stages = append(result.Stages, contracts.StageResult{
		Stage:       s,
		InputCount:  in,
		OutputCount: out,
		DurationMS:  float64(time.Since(start).Microseconds()) / 1000,
	})
}

// record updates status counters and metrics, returning the tick status label
func (o *Orchestrator) record(result *contracts.TickResult) string {
	status := TickOK
	if _, failed := result.ErrorFor(OrchestratorModule); failed {
		status = TickFailed
	} else if len(result.Errors) > 0 {
		status = TickPartial
	}

	o.mu.Lock()
	o.ticksRun++
	o.signalsEmitted += int64(len(result.Signals))
	o.last = result
	o.mu.Unlock()

	o.metrics.IncCounter(metrics.TicksTotal, status)
	o.metrics.ObserveHistogram(metrics.TickDuration, result.LatencySeconds)
	for _, s := range result.Signals {
		o.metrics.IncCounter(metrics.SignalsEmitted, string(s.Tier))
	}
	if o.c.Cooldown != nil {
		o.metrics.SetGauge(metrics.CooldownsActive, float64(o.c.Cooldown.ActiveCount()))
	}
	return status
}

// dispatch hands the result to every sink; failures are logged only
func (o *Orchestrator) dispatch(ctx context.Context, result *contracts.TickResult, log *logger.Logger) {
	o.sinksMu.RLock()
	sinks := append([]contracts.TickSink(nil), o.sinks...)
	o.sinksMu.RUnlock()

	for _, s := range sinks {
		if err := safeHandle(ctx, s, result); err != nil {
			log.WithFields(map[string]interface{}{
				"sink":  s.Name(),
				"error": err.Error(),
			}).Warn("Tick sink failed")
		}
	}
}

func safeHandle(ctx context.Context, s contracts.TickSink, result *contracts.TickResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.HandleTick(ctx, result)
}

// Status returns counters for the status endpoint
func (o *Orchestrator) Status() MetricsSnapshot {
	registry := o.Registry()
	snap := MetricsSnapshot{
		ModulesLoaded: registry.Len(),
		Modules:       registry.Names(),
		LastErrors:    []contracts.ModuleError{},
	}
	if o.c.Cooldown != nil {
		snap.CooldownsActive = o.c.Cooldown.ActiveCount()
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	snap.TicksRun = o.ticksRun
	snap.SignalsEmitted = o.signalsEmitted
	if o.last != nil {
		at := o.last.Timestamp
		snap.LastTickAt = &at
		snap.LastLatencySeconds = o.last.LatencySeconds
		snap.LastErrors = append(snap.LastErrors, o.last.Errors...)
	}
	return snap
}

// LastTick returns the most recent tick result, or nil before the first tick
func (o *Orchestrator) LastTick() *contracts.TickResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}
