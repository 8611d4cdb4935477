package modules

import (
	"context"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// PatternScorer 기술적 셋업 점수 (RSI, MA20, 거래량, 양봉 각 25점)
type PatternScorer struct {
	p PatternParams
}

func newPatternScorer(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &PatternScorer{}
	if err := decodeParams(NamePattern, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *PatternScorer) Name() string { return NamePattern }

// Execute scores every priced quote
func (m *PatternScorer) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NamePattern, snap)
	bullish := 0

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil || q.Price <= 0 {
			continue
		}

		score, checks := m.score(q)
		meta := map[string]interface{}{
			"above_ma20":       checks["above_ma20"],
			"volume_above_avg": checks["volume_above_avg"],
			"bullish_pattern":  checks["bullish_pattern"],
		}
		if q.RSI > 0 {
			meta["rsi"] = q.RSI
		}
		if score >= 75 {
			bullish++
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol:   sym,
			Score:    contracts.Score(score),
			Metadata: meta,
		})
	}

	out.Metrics["symbols_analyzed"] = len(out.Signals)
	out.Metrics["bullish_setups"] = bullish
	return out, nil
}

func (m *PatternScorer) score(q *contracts.Quote) (float64, map[string]bool) {
	score := 0.0

	// RSI 미제공이면 0점
	if q.RSI > 0 {
		switch {
		case q.RSI >= m.p.RSIOptimalLow && q.RSI <= m.p.RSIOptimalHigh:
			score += 25
		case q.RSI >= m.p.RSIWideLow && q.RSI <= m.p.RSIWideHigh:
			score += 15
		}
	}

	checks := map[string]bool{
		"above_ma20":       q.MA20 > 0 && q.Price > q.MA20,
		"volume_above_avg": q.AvgVolume > 0 && q.Volume > q.AvgVolume,
		"bullish_pattern":  q.Open > 0 && q.PreviousClose > 0 && q.Price > q.Open && q.Price > q.PreviousClose,
	}
	for _, ok := range checks {
		if ok {
			score += 25
		}
	}
	return score, checks
}
