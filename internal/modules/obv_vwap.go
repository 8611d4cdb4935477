package modules

import (
	"context"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// OBVVWAP OBV 기울기 + VWAP 이격도 모멘텀
// 시그널: slope > threshold, |vwap 이격| < 2×stretch, momentum > min
type OBVVWAP struct {
	p OBVVWAPParams
}

func newOBVVWAP(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &OBVVWAP{}
	if err := decodeParams(NameOBVVWAP, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *OBVVWAP) Name() string { return NameOBVVWAP }

// Execute scans every quote with a VWAP
func (m *OBVVWAP) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameOBVVWAP, snap)
	analyzed := 0
	var slopes, distances []float64

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil || q.VWAP <= 0 || q.Price <= 0 {
			continue
		}
		analyzed++

		slope := clamp(q.OBVSlope, -1, 1)
		dist := (q.Price - q.VWAP) / q.VWAP
		momentum := m.momentumScore(slope, dist)
		strength := m.signalStrength(slope, dist, momentum)

		if slope <= m.p.SlopeThreshold || math.Abs(dist) >= 2*m.p.VWAPStretchThreshold || momentum <= m.p.MinMomentum {
			continue
		}

		slopes = append(slopes, slope)
		distances = append(distances, dist)
		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Score:  contracts.Score(round(strength, 2)),
			Metadata: map[string]interface{}{
				"obv_slope":      round(slope, 4),
				"vwap_distance":  round(dist, 4),
				"momentum_score": round(momentum, 2),
			},
		})
	}

	out.Metrics["symbols_analyzed"] = analyzed
	out.Metrics["signals_generated"] = len(out.Signals)
	out.Metrics["avg_obv_slope"] = round(mean(slopes), 4)
	out.Metrics["avg_vwap_distance"] = round(mean(distances), 4)
	return out, nil
}

// momentumScore OBV 성분 (0~50) + VWAP 성분 (0~50)
func (m *OBVVWAP) momentumScore(slope, dist float64) float64 {
	obv := math.Max(0, slope) * 50

	var vwap float64
	switch {
	case dist > 0 && dist < m.p.VWAPStretchThreshold:
		vwap = 50
	case dist < 0:
		// VWAP 아래는 진입 구간
		vwap = 30 * (1 - math.Abs(dist)/0.05)
	default:
		vwap = math.Max(0, 50-dist/m.p.VWAPStretchThreshold*50)
	}

	return clamp(obv+vwap, 0, 100)
}

// signalStrength obv 0.4 + vwap 0.3 + momentum 0.3
func (m *OBVVWAP) signalStrength(slope, dist, momentum float64) float64 {
	obv := math.Max(0, slope) * 100
	vwap := math.Max(0, 100-math.Abs(dist)*1000)
	return clamp(obv*0.4+vwap*0.3+momentum*0.3, 0, 100)
}
