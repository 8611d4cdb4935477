package modules

import (
	"context"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Orderbook 호가 불균형 (매수/매도 잔량 비율)
type Orderbook struct {
	p OrderbookParams
}

func newOrderbook(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &Orderbook{}
	if err := decodeParams(NameOrderbook, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *Orderbook) Name() string { return NameOrderbook }

// Execute flags quotes whose bid/ask ratio crosses the threshold
// 점수 = ratio / threshold × 50 (임계값 = 50, 2배 = 100)
func (m *Orderbook) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameOrderbook, snap)
	analyzed := 0
	var ratios []float64

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil || q.BidSize <= 0 || q.AskSize <= 0 {
			continue
		}
		analyzed++

		ratio := q.BidSize / q.AskSize
		ratios = append(ratios, ratio)
		if ratio < m.p.ImbalanceThreshold {
			continue
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Score:  contracts.Score(round(math.Min(100, ratio/m.p.ImbalanceThreshold*50), 2)),
			Metadata: map[string]interface{}{
				"bid_ask_ratio": round(ratio, 2),
				"side":          "BID",
			},
		})
	}

	avg := 1.0
	if len(ratios) > 0 {
		avg = mean(ratios)
	}
	out.Metrics["symbols_analyzed"] = analyzed
	out.Metrics["imbalances_detected"] = len(out.Signals)
	out.Metrics["avg_bid_ask_ratio"] = round(avg, 2)
	return out, nil
}
