package gatekeeper

import (
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

// 체크 이름
const (
	CheckConfidence  = "confidence"
	CheckRSI         = "rsi"
	CheckDilution    = "dilution"
	CheckVolumeRatio = "volume_ratio"
	CheckLiquidity   = "liquidity"
	CheckFloat       = "float"
	CheckPatterns    = "patterns"
)

// criticalChecks 실패 시 품질 점수 페널티 대상
var criticalChecks = map[string]bool{
	CheckConfidence: true,
	CheckDilution:   true,
	CheckPatterns:   true,
}

// Config Platinum Gatekeeper 임계값
type Config struct {
	MinConfidence     float64 `yaml:"min_confidence" json:"min_confidence"`
	MinRSI            float64 `yaml:"min_rsi" json:"min_rsi"`
	MaxRSI            float64 `yaml:"max_rsi" json:"max_rsi"`
	MaxDilutionRisk   float64 `yaml:"max_dilution_risk" json:"max_dilution_risk"`
	MinVolumeRatio    float64 `yaml:"min_volume_ratio" json:"min_volume_ratio"`
	MinLiquidity      float64 `yaml:"min_liquidity" json:"min_liquidity"` // dollar volume
	MinFloat          float64 `yaml:"min_float" json:"min_float"`
	PumpChangePercent float64 `yaml:"pump_change_percent" json:"pump_change_percent"`
	GapPercent        float64 `yaml:"gap_percent" json:"gap_percent"`
	EligibleQuality   float64 `yaml:"eligible_quality" json:"eligible_quality"`
	CriticalPenalty   float64 `yaml:"critical_penalty" json:"critical_penalty"`

	// 메타데이터 소스 모듈
	PatternModule  string `yaml:"pattern_module" json:"pattern_module"`
	DilutionModule string `yaml:"dilution_module" json:"dilution_module"`
	ChurnModule    string `yaml:"churn_module" json:"churn_module"`
}

// DefaultConfig 기본 게이트 설정
func DefaultConfig() Config {
	return Config{
		MinConfidence:     85,
		MinRSI:            25,
		MaxRSI:            75,
		MaxDilutionRisk:   30,
		MinVolumeRatio:    2.0,
		MinLiquidity:      1_000_000,
		MinFloat:          10_000_000,
		PumpChangePercent: 50,
		GapPercent:        20,
		EligibleQuality:   80,
		CriticalPenalty:   0.8,
		PatternModule:     "pattern_scorer",
		DilutionModule:    "dilution_detector",
		ChurnModule:       "float_churn",
	}
}

// Validate checks threshold sanity
func (c Config) Validate() error {
	if c.MinRSI >= c.MaxRSI {
		return fmt.Errorf("gatekeeper: min_rsi %.1f must be below max_rsi %.1f", c.MinRSI, c.MaxRSI)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("gatekeeper: min_confidence must be in [0,100]")
	}
	if c.CriticalPenalty <= 0 || c.CriticalPenalty > 1 {
		return fmt.Errorf("gatekeeper: critical_penalty must be in (0,1]")
	}
	return nil
}

// 미제공 시 기본값
const (
	defaultRSI   = 50.0
	defaultFloat = 1e9
)

// Gatekeeper PLATINUM 후보 하드 체크
// ⭐ SSOT: 실패 시 PLATINUM → GOLD 강등만 수행, 후보는 절대 제거하지 않음
type Gatekeeper struct {
	cfg     Config
	metrics metrics.Sink
	logger  *logger.Logger
}

// New 새 게이트키퍼 생성
func New(cfg Config, sink metrics.Sink, log *logger.Logger) *Gatekeeper {
	if sink == nil {
		sink = metrics.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Gatekeeper{cfg: cfg, metrics: sink, logger: log}
}

// Apply gates every initial-PLATINUM candidate; returns the downgrade count
func (g *Gatekeeper) Apply(candidates []*contracts.CandidateSignal, outputs contracts.ModuleOutputs, snap *contracts.MarketSnapshot) int {
	downgraded := 0
	for _, c := range candidates {
		if c.InitialTier != contracts.TierPlatinum {
			continue
		}

		report := g.Check(c, outputs, snap.Quote(c.Symbol))
		c.Gate = report

		if !report.Passed {
			c.Tier = contracts.TierGold
			downgraded++
			g.metrics.IncCounter(metrics.GateDowngrades)
			g.logger.WithFields(map[string]interface{}{
				"symbol":  c.Symbol,
				"quality": report.QualityScore,
				"reasons": report.RejectionReasons,
			}).Info("Platinum candidate downgraded to GOLD")
		}
	}
	return downgraded
}

// Check runs the seven checks for one candidate
func (g *Gatekeeper) Check(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, q *contracts.Quote) *contracts.GatekeeperReport {
	if q == nil {
		q = &contracts.Quote{Symbol: c.Symbol}
	}

	checks := []contracts.GateCheck{
		g.checkConfidence(c),
		g.checkRSI(c, outputs, q),
		g.checkDilution(c, outputs),
		g.checkVolumeRatio(q),
		g.checkLiquidity(q),
		g.checkFloat(c, outputs, q),
		g.checkPatterns(q),
	}

	report := &contracts.GatekeeperReport{Checks: checks, Passed: true}
	for _, chk := range checks {
		result := "pass"
		if !chk.Passed {
			result = "fail"
			report.Passed = false
			report.RejectionReasons = append(report.RejectionReasons, chk.Reason)
		}
		g.metrics.IncCounter(metrics.GateChecks, chk.Name, result)
	}

	report.QualityScore = g.qualityScore(checks)
	report.PlatinumEligible = report.Passed && report.QualityScore >= g.cfg.EligibleQuality
	report.Recommendation = recommend(report.Passed, report.QualityScore)

	return report
}

// =============================================================================
// Checks
// =============================================================================

func (g *Gatekeeper) checkConfidence(c *contracts.CandidateSignal) contracts.GateCheck {
	v := c.AdjustedConfidence
	chk := contracts.GateCheck{
		Name:      CheckConfidence,
		Passed:    v >= g.cfg.MinConfidence,
		Value:     v,
		Threshold: g.cfg.MinConfidence,
	}
	if !chk.Passed {
		chk.Reason = fmt.Sprintf("Confidence %.1f%% below %.0f%%", v, g.cfg.MinConfidence)
	}
	return chk
}

func (g *Gatekeeper) checkRSI(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, q *contracts.Quote) contracts.GateCheck {
	rsi := defaultRSI
	if v, ok := metaFloat(c, outputs, g.cfg.PatternModule, "rsi"); ok {
		rsi = v
	} else if q.RSI > 0 {
		rsi = q.RSI
	}

	chk := contracts.GateCheck{
		Name:      CheckRSI,
		Passed:    rsi >= g.cfg.MinRSI && rsi <= g.cfg.MaxRSI,
		Value:     rsi,
		Threshold: g.cfg.MaxRSI,
	}
	switch {
	case rsi > g.cfg.MaxRSI:
		chk.Reason = fmt.Sprintf("RSI %.1f overbought (>%.0f)", rsi, g.cfg.MaxRSI)
	case rsi < g.cfg.MinRSI:
		chk.Reason = fmt.Sprintf("RSI %.1f oversold (<%.0f)", rsi, g.cfg.MinRSI)
	}
	return chk
}

func (g *Gatekeeper) checkDilution(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs) contracts.GateCheck {
	risk, _ := metaFloat(c, outputs, g.cfg.DilutionModule, "risk_score")

	chk := contracts.GateCheck{
		Name:      CheckDilution,
		Passed:    risk <= g.cfg.MaxDilutionRisk,
		Value:     risk,
		Threshold: g.cfg.MaxDilutionRisk,
	}
	if !chk.Passed {
		chk.Reason = fmt.Sprintf("Dilution risk %.1f exceeds %.0f", risk, g.cfg.MaxDilutionRisk)
	}
	return chk
}

// checkVolumeRatio 평균 거래량 미제공 시 비율 0 → 실패
func (g *Gatekeeper) checkVolumeRatio(q *contracts.Quote) contracts.GateCheck {
	ratio := q.VolumeRatio()
	chk := contracts.GateCheck{
		Name:      CheckVolumeRatio,
		Passed:    ratio >= g.cfg.MinVolumeRatio,
		Value:     ratio,
		Threshold: g.cfg.MinVolumeRatio,
	}
	if !chk.Passed {
		chk.Reason = fmt.Sprintf("Volume ratio %.2f below %.1f", ratio, g.cfg.MinVolumeRatio)
	}
	return chk
}

func (g *Gatekeeper) checkLiquidity(q *contracts.Quote) contracts.GateCheck {
	dv := q.DollarVolume()
	chk := contracts.GateCheck{
		Name:      CheckLiquidity,
		Passed:    dv >= g.cfg.MinLiquidity,
		Value:     dv,
		Threshold: g.cfg.MinLiquidity,
	}
	if !chk.Passed {
		chk.Reason = fmt.Sprintf("Dollar volume $%s below $%s", thousands(dv), thousands(g.cfg.MinLiquidity))
	}
	return chk
}

func (g *Gatekeeper) checkFloat(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, q *contracts.Quote) contracts.GateCheck {
	shares := defaultFloat
	if v, ok := metaFloat(c, outputs, g.cfg.ChurnModule, "float_shares"); ok {
		shares = v
	} else if q.FloatShares > 0 {
		shares = q.FloatShares
	}

	chk := contracts.GateCheck{
		Name:      CheckFloat,
		Passed:    shares >= g.cfg.MinFloat,
		Value:     shares,
		Threshold: g.cfg.MinFloat,
	}
	if !chk.Passed {
		chk.Reason = fmt.Sprintf("Micro float %.1fM shares", shares/1e6)
	}
	return chk
}

// checkPatterns 펌프 (1일 +50% 초과) 또는 갭 후 하락 (갭 +20% 초과 & 현재가 < 시가)
func (g *Gatekeeper) checkPatterns(q *contracts.Quote) contracts.GateCheck {
	change := q.PriceChangePercent()
	pump := change > g.cfg.PumpChangePercent
	fade := q.GapPercent() > g.cfg.GapPercent && q.Price < q.Open

	chk := contracts.GateCheck{
		Name:      CheckPatterns,
		Passed:    !pump && !fade,
		Value:     change,
		Threshold: g.cfg.PumpChangePercent,
	}
	switch {
	case pump:
		chk.Reason = "Potential pump pattern detected"
	case fade:
		chk.Reason = "Gap and fade pattern detected"
	}
	return chk
}

// =============================================================================
// Quality
// =============================================================================

// qualityScore 통과 비율 × 100, 실패한 critical 체크마다 × penalty
func (g *Gatekeeper) qualityScore(checks []contracts.GateCheck) float64 {
	if len(checks) == 0 {
		return 0
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	score := float64(passed) / float64(len(checks)) * 100
	for _, c := range checks {
		if !c.Passed && criticalChecks[c.Name] {
			score *= g.cfg.CriticalPenalty
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func recommend(passed bool, quality float64) contracts.Recommendation {
	switch {
	case !passed:
		return contracts.RecommendReject
	case quality >= 90:
		return contracts.RecommendStrongBuy
	case quality >= 80:
		return contracts.RecommendBuy
	case quality >= 70:
		return contracts.RecommendWatch
	default:
		return contracts.RecommendPass
	}
}

// =============================================================================
// Helpers
// =============================================================================

func metaFloat(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, module, key string) (float64, bool) {
	if module == "" {
		return 0, false
	}
	if sig, ok := c.Modules[module]; ok {
		return sig.MetaFloat(key)
	}
	if sig, ok := outputs.Signal(module, c.Symbol); ok {
		return sig.MetaFloat(key)
	}
	return 0, false
}

// thousands formats v as a comma-grouped integer
func thousands(v float64) string {
	n := int64(v + 0.5)
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
