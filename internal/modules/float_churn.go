package modules

import (
	"context"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// FloatChurn 유통주식 회전율 (유동성/관심도 프록시)
type FloatChurn struct {
	p FloatChurnParams
}

func newFloatChurn(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &FloatChurn{}
	if err := decodeParams(NameFloatChurn, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *FloatChurn) Name() string { return NameFloatChurn }

// Execute scores every quote with a known float
func (m *FloatChurn) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameFloatChurn, snap)
	highChurn := 0

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil || q.FloatShares <= 0 {
			continue
		}

		daily := q.Volume / q.FloatShares
		avgDaily := q.AvgVolume / q.FloatShares
		relative := 0.0
		if avgDaily > 0 {
			relative = daily / avgDaily
		}
		score := m.churnScore(daily, relative, q.VolumeRatio())
		isHigh := daily > m.p.ChurnThreshold
		if isHigh {
			highChurn++
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Score:  contracts.Score(round(score, 2)),
			Metadata: map[string]interface{}{
				"float_shares":     q.FloatShares,
				"daily_churn":      round(daily, 4),
				"avg_daily_churn":  round(avgDaily, 4),
				"relative_churn":   round(relative, 2),
				"churn_score":      round(score, 2),
				"turnover_rate":    round(daily, 4),
				"is_high_churn":    isHigh,
				"liquidity_rating": liquidityRating(score),
			},
		})
	}

	out.Metrics["symbols_analyzed"] = len(out.Signals)
	out.Metrics["high_churn_symbols"] = highChurn
	return out, nil
}

// churnScore 회전율 0.4 + 상대 회전율 0.3 + 거래량 비율 0.3, 100 상한
func (m *FloatChurn) churnScore(daily, relative, volumeRatio float64) float64 {
	churn := math.Min(daily/m.p.ChurnThreshold, 2.0) * 0.4
	rel := math.Min(relative, 3.0) / 3.0 * 0.3
	vol := math.Min(volumeRatio, 5.0) / 5.0 * 0.3
	return clamp((churn+rel+vol)*100, 0, 100)
}

func liquidityRating(score float64) string {
	return band(score, []float64{80, 60, 40, 20}, []string{"EXTREME", "HIGH", "MODERATE", "LOW", "MINIMAL"})
}
