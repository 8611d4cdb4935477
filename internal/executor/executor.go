package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

// 실행 상태 (module_executions_total status 라벨)
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPanic   = "panic"
	StatusTimeout = "timeout"
	StatusInvalid = "invalid"
)

// ErrModuleTimeout is recorded when a module exceeds its deadline
var ErrModuleTimeout = errors.New("module timed out")

// Config 실행기 설정
type Config struct {
	Workers       int           `yaml:"workers" json:"workers"`
	ModuleTimeout time.Duration `yaml:"module_timeout" json:"module_timeout"`
}

// DefaultConfig 기본 실행기 설정
func DefaultConfig() Config {
	return Config{
		Workers:       10,
		ModuleTimeout: 5 * time.Second,
	}
}

// Executor 모듈 동시 실행기
// ⭐ SSOT: 모듈 실패 → fallback 치환 + ModuleError 기록은 여기서만
// Run 반환 전 모든 작업은 errgroup으로 join (타임아웃 모듈은 결과만 폐기)
type Executor struct {
	cfg     Config
	metrics metrics.Sink
	logger  *logger.Logger
	now     func() time.Time
}

// New 새 실행기 생성
func New(cfg Config, sink metrics.Sink, log *logger.Logger) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.ModuleTimeout <= 0 {
		cfg.ModuleTimeout = DefaultConfig().ModuleTimeout
	}
	if sink == nil {
		sink = metrics.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{
		cfg:     cfg,
		metrics: sink,
		logger:  log.WithField("component", "executor"),
		now:     time.Now,
	}
}

// Config returns the executor configuration
func (e *Executor) Config() Config {
	return e.cfg
}

// Run executes every module against snap
// 모든 모듈에 대해 정확히 하나의 출력, 실패 모듈마다 정확히 하나의 ModuleError
func (e *Executor) Run(ctx context.Context, mods []modules.Module, snap *contracts.MarketSnapshot) (contracts.ModuleOutputs, []contracts.ModuleError) {
	outputs := make(contracts.ModuleOutputs, len(mods))
	failures := make(map[string]contracts.ModuleError)
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)

	for _, m := range mods {
		g.Go(func() error {
			out, merr := e.runOne(ctx, m, snap)

			mu.Lock()
			defer mu.Unlock()
			outputs[m.Name()] = out
			if merr != nil {
				failures[m.Name()] = *merr
			}
			return nil
		})
	}
	_ = g.Wait()

	// 레지스트리 순서로 정렬, 모듈당 최대 1건
	errs := make([]contracts.ModuleError, 0, len(failures))
	for _, m := range mods {
		if merr, ok := failures[m.Name()]; ok {
			errs = append(errs, merr)
			delete(failures, m.Name())
		}
	}
	return outputs, errs
}

type moduleResult struct {
	out   *contracts.ModuleOutput
	err   error
	stack string
	panic bool
}

// runOne runs a single module under its timeout, recovering panics
func (e *Executor) runOne(ctx context.Context, m modules.Module, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, *contracts.ModuleError) {
	name := m.Name()
	start := e.now()

	mctx, cancel := context.WithTimeout(ctx, e.cfg.ModuleTimeout)
	defer cancel()

	// 버퍼 1: 타임아웃 후에도 모듈 goroutine이 막히지 않음
	ch := make(chan moduleResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- moduleResult{
					err:   fmt.Errorf("panic: %v", r),
					stack: string(debug.Stack()),
					panic: true,
				}
			}
		}()
		out, err := m.Execute(mctx, snap)
		ch <- moduleResult{out: out, err: err}
	}()

	var res moduleResult
	status := StatusSuccess

	select {
	case res = <-ch:
		switch {
		case res.panic:
			status = StatusPanic
		case res.err != nil:
			status = StatusError
		default:
			if err := res.out.Validate(); err != nil {
				res.err = fmt.Errorf("invalid output: %w", err)
				status = StatusInvalid
			}
		}
	case <-mctx.Done():
		status = StatusTimeout
		if errors.Is(mctx.Err(), context.DeadlineExceeded) {
			res.err = fmt.Errorf("%w after %s", ErrModuleTimeout, e.cfg.ModuleTimeout)
		} else {
			res.err = mctx.Err()
			status = StatusError
		}
	}

	duration := e.now().Sub(start)
	e.metrics.ObserveHistogram(metrics.ModuleDuration, duration.Seconds(), name)
	e.metrics.IncCounter(metrics.ModuleExecutions, name, status)

	if status == StatusSuccess {
		if res.out.Module == "" {
			res.out.Module = name
		}
		if res.out.Timestamp.IsZero() {
			res.out.Timestamp = e.now()
		}
		return res.out, nil
	}

	e.logger.WithError(res.err).WithFields(map[string]interface{}{
		"module":   name,
		"status":   status,
		"duration": duration,
	}).Warn("Module failed, using fallback output")

	return contracts.FallbackOutput(name, e.now()), &contracts.ModuleError{
		Module: name,
		Error:  res.err.Error(),
		Stack:  res.stack,
	}
}
