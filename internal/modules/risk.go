package modules

import (
	"context"
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
)

// RiskModule 종목별 리스크 평가 → Scorer risk 카테고리
// 점수 없는 시그널: overall_risk (0~100), risk_level
type RiskModule struct {
	p         RiskParams
	engine    *risk.Engine
	portfolio contracts.PortfolioProvider
	emit      map[contracts.RiskLevel]bool
}

func newRiskModule(raw map[string]interface{}, deps Deps) (Module, error) {
	m := &RiskModule{engine: deps.Risk, portfolio: deps.Portfolio}
	if err := decodeParams(NameRisk, raw, &m.p); err != nil {
		return nil, err
	}
	if m.engine == nil {
		m.engine = risk.NewEngine(risk.DefaultConfig())
	}
	if len(m.p.EmitLevels) > 0 {
		m.emit = make(map[contracts.RiskLevel]bool)
		for _, l := range m.p.EmitLevels {
			m.emit[contracts.RiskLevel(l)] = true
		}
	}
	return m, nil
}

// Name returns the module name
func (m *RiskModule) Name() string { return NameRisk }

// Execute assesses every quote against the current portfolio
func (m *RiskModule) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameRisk, snap)

	var pf contracts.PortfolioState
	if m.portfolio != nil {
		p, err := m.portfolio.Portfolio(ctx)
		if err != nil {
			return nil, fmt.Errorf("load portfolio: %w", err)
		}
		pf = p
	}

	levels := make(map[contracts.RiskLevel]int)
	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil {
			continue
		}

		a := m.engine.Assess(risk.InputFromQuote(q), pf, snap.Market)
		levels[a.Level]++
		if m.emit != nil && !m.emit[a.Level] {
			continue
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Metadata: map[string]interface{}{
				"overall_risk": round(a.Overall*100, 2),
				"risk_level":   string(a.Level),
				"stop_loss":    round(a.StopLoss, 4),
				"take_profit":  round(a.TakeProfit, 4),
			},
		})
	}

	for level, n := range levels {
		out.Metrics["level_"+string(level)] = n
	}
	out.Metrics["symbols_assessed"] = len(out.Signals)
	return out, nil
}
