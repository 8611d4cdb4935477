package risk

import (
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// =============================================================================
// Position Sizing & Exits
// =============================================================================

// PositionSize 최대 포지션 비중
// base × max(0.1, 1-risk) × (0.5 + 0.5×conf/100), [min, max] 클램프
// kelly 모드: base = min(base, kelly)
func (e *Engine) PositionSize(overall, confidence float64, pf contracts.PortfolioState) float64 {
	base := e.cfg.MaxPositionSize
	if e.cfg.SizingMode == SizingKelly {
		base = math.Min(base, e.Kelly(pf))
	}

	riskMultiplier := math.Max(0.1, 1-overall)
	confMultiplier := 0.5 + 0.5*clamp(confidence, 0, 100)/100

	return clamp(base*riskMultiplier*confMultiplier, e.cfg.MinPositionSize, e.cfg.MaxPositionSize)
}

// Kelly (p·W − (1−p)·L) / W, [0, cap] 클램프
// 빠진 입력은 기본값으로 채움 (0.5 / 2% / 1% → 0.25)
func (e *Engine) Kelly(pf contracts.PortfolioState) float64 {
	p, win, loss := pf.WinRate, pf.AvgWin, pf.AvgLoss
	if p <= 0 {
		p = e.cfg.KellyDefaultWinRate
	}
	if win <= 0 {
		win = e.cfg.KellyDefaultAvgWin
	}
	if loss <= 0 {
		loss = e.cfg.KellyDefaultAvgLoss
	}
	if win <= 0 {
		return 0
	}
	p = clamp01(p)
	k := (p*win - (1-p)*loss) / win
	return clamp(k, 0, e.cfg.KellyCap)
}

// StopLoss 레벨별 기준 × 변동성 배수 (2% 기준), [0.5%, 10%]
func (e *Engine) StopLoss(level contracts.RiskLevel, volatility float64) float64 {
	if volatility <= 0 {
		volatility = e.cfg.BaselineVolatility
	}
	base := e.cfg.StopLossBase.For(level)
	multiplier := 1 + (volatility-e.cfg.BaselineVolatility)*2
	return clamp(base*multiplier, e.cfg.StopLossMin, e.cfg.StopLossMax)
}

// TakeProfit 손절 × 손익비, momentum > 80 이면 ×1.2, [1%, 50%]
func (e *Engine) TakeProfit(level contracts.RiskLevel, stopLoss, momentum float64) float64 {
	tp := stopLoss * e.cfg.RewardRatio.For(level)
	if momentum > e.cfg.MomentumBoostAbove {
		tp *= e.cfg.MomentumBoost
	}
	return clamp(tp, e.cfg.TakeProfitMin, e.cfg.TakeProfitMax)
}
