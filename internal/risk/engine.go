package risk

import (
	"fmt"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 포트폴리오/시장 상태 조립은 상위 레이어(brain, modules)에서 수행
// internal/risk는 입력 → RiskAssessment 계산만 담당, 상태 없음
type Engine struct {
	cfg Config
}

// NewEngine 새 리스크 엔진 생성
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Assess 종목 1건의 리스크 평가
// 매 호출마다 재계산 (포트폴리오 상태가 바뀌므로 캐시하지 않음)
func (e *Engine) Assess(in Input, pf contracts.PortfolioState, mkt contracts.MarketState) contracts.RiskAssessment {
	in = in.withDefaults()

	comp := contracts.RiskComponents{
		Portfolio:   e.portfolioRisk(pf),
		Position:    e.positionRisk(in),
		Market:      e.marketRisk(mkt),
		Correlation: e.correlationRisk(in, pf),
		Liquidity:   e.liquidityRisk(in),
	}

	overall := e.overallRisk(comp)
	level := e.Level(overall)
	stop := e.StopLoss(level, in.Volatility)

	return contracts.RiskAssessment{
		Symbol:          in.Symbol,
		Components:      comp,
		Overall:         overall,
		Level:           level,
		MaxPositionSize: e.PositionSize(overall, in.Confidence, pf),
		StopLoss:        stop,
		TakeProfit:      e.TakeProfit(level, stop, in.MomentumScore),
	}
}

// =============================================================================
// Components (각 [0,1])
// =============================================================================

// portfolioRisk concentration 0.3 + exposure 0.4 + drawdown 0.3
func (e *Engine) portfolioRisk(pf contracts.PortfolioState) float64 {
	if len(pf.Positions) == 0 {
		return 0
	}

	total := pf.TotalValue
	if total <= 0 {
		total = e.cfg.DefaultTotalValue
	}

	maxPos := 0.0
	for _, p := range pf.Positions {
		maxPos = math.Max(maxPos, p.Value)
	}
	concentration := clamp01(maxPos / total)
	exposure := clamp01(pf.Exposure() / total)

	maxDD := pf.MaxDrawdown
	if maxDD <= 0 {
		maxDD = e.cfg.DefaultMaxDD
	}
	drawdown := clamp01(math.Abs(pf.CurrentDrawdown / maxDD))

	return clamp01(concentration*0.3 + exposure*0.4 + drawdown*0.3)
}

// positionRisk volatility 0.5 + momentum extension 0.3 + catalyst age 0.2
func (e *Engine) positionRisk(in Input) float64 {
	volRisk := math.Min(1, in.Volatility/e.cfg.MaxVolatility)

	// 과열 (momentum 80 초과분)
	momentumRisk := 0.0
	if in.MomentumScore >= 80 {
		momentumRisk = clamp01((in.MomentumScore - 80) / 20)
	}

	catalystRisk := math.Min(1, math.Max(0, in.CatalystAgeDays)/e.cfg.CatalystMaxDays)

	return clamp01(volRisk*0.5 + momentumRisk*0.3 + catalystRisk*0.2)
}

// trendRisk 추세 라벨 → 리스크
var trendRisk = map[string]float64{
	"strong_up":   0.2,
	"up":          0.3,
	"neutral":     0.5,
	"down":        0.7,
	"strong_down": 0.9,
}

// marketRisk VIX 0.4 + trend 0.3 + volume scarcity 0.3
func (e *Engine) marketRisk(mkt contracts.MarketState) float64 {
	vix := mkt.VIX
	if vix <= 0 {
		vix = defaultVIX
	}
	vixRisk := math.Min(1, vix/e.cfg.VIXCeiling)

	tr, ok := trendRisk[mkt.Trend]
	if !ok {
		tr = trendRisk["neutral"]
	}

	rel := mkt.RelativeVolume
	if rel <= 0 {
		rel = defaultRelVolume
	}
	volumeRisk := math.Max(0, 1-rel)

	return clamp01(vixRisk*0.4 + tr*0.3 + volumeRisk*0.3)
}

// correlationRisk sector concentration 0.4 + avg pairwise estimate 0.6
func (e *Engine) correlationRisk(in Input, pf contracts.PortfolioState) float64 {
	if len(pf.Positions) == 0 {
		return 0
	}

	sameSector := 0
	sumCorr := 0.0
	for _, p := range pf.Positions {
		sectorMatch := in.Sector != "" && p.Sector == in.Sector
		if sectorMatch {
			sameSector++
		}
		switch {
		case p.Symbol == in.Symbol:
			sumCorr += 1.0
		case sectorMatch:
			sumCorr += 0.7
		default:
			sumCorr += 0.3
		}
	}

	n := float64(len(pf.Positions))
	return clamp01(float64(sameSector)/n*0.4 + sumCorr/n*0.6)
}

// liquidityRisk volume 0.4 + spread 0.3 + float turnover 0.3
func (e *Engine) liquidityRisk(in Input) float64 {
	volumeRisk := 0.0
	if in.AvgVolume < e.cfg.MinAvgVolume {
		volumeRisk = 1 - in.AvgVolume/e.cfg.MinAvgVolume
	}
	spreadRisk := math.Min(1, in.Spread/e.cfg.MaxSpread)
	floatRisk := math.Max(0, 1-in.TurnoverRate)

	return clamp01(volumeRisk*0.4 + spreadRisk*0.3 + floatRisk*0.3)
}

// =============================================================================
// Aggregation
// =============================================================================

// overallRisk 가중합 후 0.7 초과분 1.5배 증폭, [0,1] 클램프
func (e *Engine) overallRisk(c contracts.RiskComponents) float64 {
	w := e.cfg.Weights
	x := c.Portfolio*w.Portfolio +
		c.Position*w.Position +
		c.Market*w.Market +
		c.Correlation*w.Correlation +
		c.Liquidity*w.Liquidity

	return Amplify(x, e.cfg.AmplifyAbove, e.cfg.AmplifyFactor)
}

// Amplify applies convex amplification above the knee and clamps to [0,1]
func Amplify(x, knee, factor float64) float64 {
	if x > knee {
		x = knee + (x-knee)*factor
	}
	return clamp01(x)
}

// Level overall risk → 레벨
func (e *Engine) Level(overall float64) contracts.RiskLevel {
	t := e.cfg.LevelThresholds
	switch {
	case overall < t.Low:
		return contracts.RiskLow
	case overall < t.Medium:
		return contracts.RiskMedium
	case overall < t.High:
		return contracts.RiskHigh
	default:
		return contracts.RiskExtreme
	}
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks weight sum and threshold ordering
func (c Config) Validate() error {
	if s := c.Weights.Sum(); math.Abs(s-1) > 0.01 {
		return fmt.Errorf("risk weights must sum to 1.0, got %.3f", s)
	}
	t := c.LevelThresholds
	if !(t.Low < t.Medium && t.Medium < t.High) {
		return fmt.Errorf("risk level thresholds must be increasing: %.3f/%.3f/%.3f", t.Low, t.Medium, t.High)
	}
	if c.SizingMode != SizingFixed && c.SizingMode != SizingKelly {
		return fmt.Errorf("unknown sizing mode %q", c.SizingMode)
	}
	if c.MinPositionSize <= 0 || c.MinPositionSize > c.MaxPositionSize {
		return fmt.Errorf("position size bounds invalid: min=%.4f max=%.4f", c.MinPositionSize, c.MaxPositionSize)
	}
	if c.StopLossMin <= 0 || c.StopLossMin > c.StopLossMax {
		return fmt.Errorf("stop-loss bounds invalid: min=%.4f max=%.4f", c.StopLossMin, c.StopLossMax)
	}
	if c.TakeProfitMin <= 0 || c.TakeProfitMin > c.TakeProfitMax {
		return fmt.Errorf("take-profit bounds invalid: min=%.4f max=%.4f", c.TakeProfitMin, c.TakeProfitMax)
	}
	return nil
}

func clamp01(x float64) float64 {
	return clamp(x, 0, 1)
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
