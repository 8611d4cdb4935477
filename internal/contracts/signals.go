package contracts

import (
	"fmt"
	"math"
	"time"
)

// RawSignal is one module's finding for one instrument
// ⭐ SSOT: Module → Aggregator 원시 시그널
type RawSignal struct {
	Symbol   string                 `json:"symbol"`
	Score    *float64               `json:"score,omitempty"` // 0~100, nil = 점수 미보고
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Score returns a pointer to v for RawSignal.Score
func Score(v float64) *float64 {
	return &v
}

// HasScore reports whether the module attached a score
func (s RawSignal) HasScore() bool {
	return s.Score != nil
}

// ScoreValue returns the score or 0 when absent
func (s RawSignal) ScoreValue() float64 {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}

// MetaFloat reads a numeric metadata value
func (s RawSignal) MetaFloat(key string) (float64, bool) {
	v, ok := s.Metadata[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// MetaString reads a string metadata value
func (s RawSignal) MetaString(key string) string {
	if v, ok := s.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// ModuleOutput is produced once per module per tick
// ⭐ SSOT: Executor 소유 → Aggregator 전달 후 불변
type ModuleOutput struct {
	Module    string                 `json:"module"`
	Signals   []RawSignal            `json:"signals"`
	Metrics   map[string]interface{} `json:"metrics"`
	Timestamp time.Time              `json:"timestamp"`
}

// FallbackStatus tags the metrics of a substituted output
const FallbackStatus = "fallback"

// FallbackOutput is the neutral output substituted for a failed module
func FallbackOutput(module string, at time.Time) *ModuleOutput {
	return &ModuleOutput{
		Module:    module,
		Signals:   []RawSignal{},
		Metrics:   map[string]interface{}{"status": FallbackStatus},
		Timestamp: at,
	}
}

// IsFallback reports whether this output was substituted after a failure
func (o *ModuleOutput) IsFallback() bool {
	return o != nil && o.Metrics["status"] == FallbackStatus
}

// SignalFor returns the first signal for symbol
func (o *ModuleOutput) SignalFor(symbol string) (RawSignal, bool) {
	if o == nil {
		return RawSignal{}, false
	}
	for _, s := range o.Signals {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return RawSignal{}, false
}

// Validate rejects malformed output: missing symbols or scores outside [0,100]
func (o *ModuleOutput) Validate() error {
	if o == nil {
		return fmt.Errorf("nil output")
	}
	for i, s := range o.Signals {
		if s.Symbol == "" {
			return fmt.Errorf("signal %d: empty symbol", i)
		}
		if s.Score != nil {
			v := *s.Score
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
				return fmt.Errorf("signal %d (%s): score %v outside [0,100]", i, s.Symbol, v)
			}
		}
	}
	return nil
}

// ModuleOutputs maps module name to its output for one tick
type ModuleOutputs map[string]*ModuleOutput

// Signal looks up module's signal for symbol
func (m ModuleOutputs) Signal(module, symbol string) (RawSignal, bool) {
	return m[module].SignalFor(symbol)
}

// ModuleError is a structured module failure recorded on the tick
type ModuleError struct {
	Module string `json:"module"`
	Error  string `json:"error"`
	Stack  string `json:"stack,omitempty"`
}

// Tier is the discrete signal-quality bucket
type Tier string

const (
	TierPlatinum Tier = "PLATINUM"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
	TierBronze   Tier = "BRONZE"
	TierUnranked Tier = "UNRANKED"
)

// Rank orders tiers: PLATINUM=4 ... UNRANKED=0
func (t Tier) Rank() int {
	switch t {
	case TierPlatinum:
		return 4
	case TierGold:
		return 3
	case TierSilver:
		return 2
	case TierBronze:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether t ranks at or above other
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

// AllTiers returns tiers from best to worst
func AllTiers() []Tier {
	return []Tier{TierPlatinum, TierGold, TierSilver, TierBronze, TierUnranked}
}

// SignalStatus is the lifecycle state of an emitted signal
type SignalStatus string

const (
	StatusActive   SignalStatus = "ACTIVE"
	StatusExecuted SignalStatus = "EXECUTED"
	StatusExpired  SignalStatus = "EXPIRED"
)

// CandidateSignal is one instrument's fused signal for one tick
// ⭐ SSOT: Aggregator 생성 → Scorer → Gatekeeper → Cooldown → Calibrator
// confidence 3단계는 각각 별도 필드, 덮어쓰지 않음
type CandidateSignal struct {
	ID          string               `json:"id"`
	Symbol      string               `json:"symbol"`
	Modules     map[string]RawSignal `json:"modules"`
	ModuleOrder []string             `json:"module_order"`

	AggregateScore       float64 `json:"aggregate_score"`
	RawConfidence        float64 `json:"confidence_raw"`
	AdjustedConfidence   float64 `json:"confidence_adjusted"`
	CalibratedConfidence float64 `json:"confidence"`

	InitialTier Tier         `json:"initial_tier"`
	Tier        Tier         `json:"tier"`
	Status      SignalStatus `json:"status"`
	Session     Session      `json:"session"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Breakdown *ScoreBreakdown   `json:"breakdown,omitempty"`
	Gate      *GatekeeperReport `json:"gate,omitempty"`
	Risk      *RiskAssessment   `json:"risk,omitempty"`
}

// NewCandidate creates an ACTIVE candidate with an empty module map
func NewCandidate(id, symbol string, at time.Time) *CandidateSignal {
	return &CandidateSignal{
		ID:          id,
		Symbol:      symbol,
		Modules:     make(map[string]RawSignal),
		ModuleOrder: make([]string, 0, 4),
		InitialTier: TierUnranked,
		Tier:        TierUnranked,
		Status:      StatusActive,
		CreatedAt:   at,
	}
}

// Downgraded reports whether the gate lowered the tier
func (c *CandidateSignal) Downgraded() bool {
	return c.Tier != c.InitialTier
}

// CategoryScore is one scored category in the breakdown
type CategoryScore struct {
	Category string  `json:"category"`
	Module   string  `json:"module"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Present  bool    `json:"present"`
	Label    string  `json:"label"`
}

// ScoreBreakdown explains how confidence was derived
type ScoreBreakdown struct {
	Categories  []CategoryScore `json:"categories"`
	Adjustments []string        `json:"adjustments,omitempty"`
	Factors     []string        `json:"factors,omitempty"`
}

// Category finds a category by name
func (b *ScoreBreakdown) Category(name string) (CategoryScore, bool) {
	if b == nil {
		return CategoryScore{}, false
	}
	for _, c := range b.Categories {
		if c.Category == name {
			return c, true
		}
	}
	return CategoryScore{}, false
}

// Recommendation is the gatekeeper's label for a checked candidate
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "STRONG_BUY"
	RecommendBuy       Recommendation = "BUY"
	RecommendWatch     Recommendation = "WATCH"
	RecommendPass      Recommendation = "PASS"
	RecommendReject    Recommendation = "REJECT"
)

// GateCheck is one hard check result
type GateCheck struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Reason    string  `json:"reason,omitempty"`
	Critical  bool    `json:"critical"`
}

// GatekeeperReport is produced fresh per PLATINUM candidate per tick
type GatekeeperReport struct {
	Checks           []GateCheck    `json:"checks"`
	QualityScore     float64        `json:"quality_score"`
	Passed           bool           `json:"passed"`
	PlatinumEligible bool           `json:"platinum_eligible"`
	RejectionReasons []string       `json:"rejection_reasons,omitempty"`
	Recommendation   Recommendation `json:"recommendation"`
}

// Check finds a check by name
func (r *GatekeeperReport) Check(name string) (GateCheck, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return GateCheck{}, false
}

// PassedCount returns how many checks passed
func (r *GatekeeperReport) PassedCount() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

// TickResult is what RunTick returns; it never carries a Go error
// ⭐ SSOT: 파이프라인 → API/저장소/발행 계약
type TickResult struct {
	TickID         string             `json:"tick_id"`
	Timestamp      time.Time          `json:"timestamp"`
	Session        Session            `json:"session"`
	UniverseSize   int                `json:"universe_size"`
	Signals        []*CandidateSignal `json:"signals"`
	Errors         []ModuleError      `json:"errors"`
	Rejections     map[string]int     `json:"rejections"`
	Stages         []StageResult      `json:"stages,omitempty"`
	LatencySeconds float64            `json:"latency_seconds"`
}

// ErrorFor returns the recorded error for module
func (r *TickResult) ErrorFor(module string) (ModuleError, bool) {
	for _, e := range r.Errors {
		if e.Module == module {
			return e, true
		}
	}
	return ModuleError{}, false
}

// CountByTier tallies emitted signals per tier
func (r *TickResult) CountByTier() map[Tier]int {
	counts := make(map[Tier]int)
	for _, s := range r.Signals {
		counts[s.Tier]++
	}
	return counts
}
