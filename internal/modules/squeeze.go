package modules

import (
	"context"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Squeeze 숏 스퀴즈 잠재력
// short 0.4 + momentum 0.35 + catalyst 0.25
type Squeeze struct {
	p SqueezeParams
}

func newSqueeze(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &Squeeze{}
	if err := decodeParams(NameSqueeze, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *Squeeze) Name() string { return NameSqueeze }

// Execute assesses quotes with short-side data
func (m *Squeeze) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameSqueeze, snap)
	highPotential := 0

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil || q.ShortInterest <= 0 {
			continue
		}

		short := m.shortScore(q)
		momentum := squeezeMomentum(q)
		catalyst := catalystScore(q)
		score := math.Min(short*0.4+momentum*0.35+catalyst*0.25, 100)
		potential := squeezePotential(score)
		if potential == "HIGH" || potential == "EXTREME" {
			highPotential++
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Metadata: map[string]interface{}{
				"short_interest":    q.ShortInterest,
				"utilization":       q.Utilization,
				"days_to_cover":     q.DaysToCover,
				"borrow_rate":       q.BorrowRate,
				"short_score":       short,
				"catalyst_score":    catalyst,
				"squeeze_score":     round(score, 2),
				"squeeze_potential": potential,
				"setup_quality":     setupQuality(score, q),
			},
		})
	}

	out.Metrics["symbols_analyzed"] = len(out.Signals)
	out.Metrics["high_potential"] = highPotential
	return out, nil
}

// shortScore 조건당 25점
func (m *Squeeze) shortScore(q *contracts.Quote) float64 {
	score := 0.0
	if q.ShortInterest >= m.p.MinShortInterest {
		score += 25
	}
	if q.Utilization >= m.p.MinUtilization {
		score += 25
	}
	if q.DaysToCover >= m.p.MinDaysToCover {
		score += 25
	}
	if q.BorrowRate >= m.p.MinBorrowRate {
		score += 25
	}
	return score
}

// squeezeMomentum 가격 0.6 + 거래량 0.4
func squeezeMomentum(q *contracts.Quote) float64 {
	ratio := 1.0
	if q.AvgVolume > 0 {
		ratio = q.Volume / q.AvgVolume
	}
	price := math.Max(0, q.PriceChangePercent()/100)
	volume := math.Max(0, (ratio-1)/5)
	return (price*0.6 + volume*0.4) * 100
}

// catalystScore 뉴스 30 + 돌파 25 + 최근 이벤트 25
func catalystScore(q *contracts.Quote) float64 {
	score := 0.0
	if q.NewsCount > 0 {
		score += 30
	}
	if q.MA20 > 0 && q.Price > q.MA20 && q.PriceChangePercent() > 0 {
		score += 25
	}
	if q.CatalystAgeDays > 0 && q.CatalystAgeDays <= 3 {
		score += 25
	}
	return math.Min(score, 100)
}

func squeezePotential(score float64) string {
	return band(score, []float64{80, 65, 45, 25}, []string{"EXTREME", "HIGH", "MODERATE", "LOW", "MINIMAL"})
}

func setupQuality(score float64, q *contracts.Quote) string {
	points := 0
	if score >= 60 {
		points += 2
	}
	if q.Utilization >= 95 {
		points += 2
	}
	if q.DaysToCover >= 5 {
		points++
	}
	if q.BorrowRate >= 50 {
		points++
	}
	switch {
	case points >= 5:
		return "PREMIUM"
	case points >= 3:
		return "GOOD"
	case points >= 1:
		return "FAIR"
	default:
		return "POOR"
	}
}
