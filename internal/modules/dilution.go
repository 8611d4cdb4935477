package modules

import (
	"context"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Dilution 희석 위험 (shelf, ATM, 최근 공시)
// 점수 없는 시그널: Scorer/Gatekeeper가 risk_level, risk_score 메타데이터만 사용
type Dilution struct {
	p DilutionParams
}

func newDilution(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &Dilution{}
	if err := decodeParams(NameDilution, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *Dilution) Name() string { return NameDilution }

// Execute assesses every quote
func (m *Dilution) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameDilution, snap)
	highRisk := 0

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil {
			continue
		}

		mcap := q.MarketCap
		if mcap <= 0 {
			mcap = m.p.DefaultMarketCap
		}

		shelfActive := q.ShelfAmount > 0
		spike := 1.0
		if q.AvgVolume > 0 {
			spike = q.Volume / q.AvgVolume
		}
		atmProb := math.Min(spike*0.1, 1.0)

		score := 0.0
		if shelfActive {
			score += math.Min(q.ShelfAmount/mcap*100, 50)
		}
		score += atmProb * 30
		score += math.Min(float64(q.RecentFilings)*5, 20)
		score = math.Min(score, 100)

		level := dilutionLevel(score)
		if level == "HIGH" || level == "CRITICAL" {
			highRisk++
		}

		flags := make([]string, 0, 4)
		if shelfActive {
			flags = append(flags, "ACTIVE_SHELF")
		}
		if q.ShelfAmount > m.p.ShelfThresholdMillions*1e6 {
			flags = append(flags, "LARGE_SHELF")
		}
		if atmProb > m.p.ATMAlertThreshold {
			flags = append(flags, "ATM_DETECTED")
		}
		if q.RecentFilings > 2 {
			flags = append(flags, "FREQUENT_FILINGS")
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Metadata: map[string]interface{}{
				"risk_score":      round(score, 2),
				"risk_level":      level,
				"shelf_active":    shelfActive,
				"shelf_amount":    q.ShelfAmount,
				"atm_probability": round(atmProb, 3),
				"dilution_ratio":  round(q.ShelfAmount/mcap*100, 2),
				"flags":           flags,
			},
		})
	}

	out.Metrics["symbols_analyzed"] = len(out.Signals)
	out.Metrics["high_risk_symbols"] = highRisk
	return out, nil
}

func dilutionLevel(score float64) string {
	return band(score, []float64{70, 50, 30, 10}, []string{"CRITICAL", "HIGH", "MODERATE", "LOW", "MINIMAL"})
}
