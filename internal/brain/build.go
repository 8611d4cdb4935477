package brain

import (
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/aggregator"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/cooldown"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/executor"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/gatekeeper"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scanconfig"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scoring"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/metrics"
)

// Providers are the external data sources a tick reads
type Providers struct {
	Universe  contracts.UniverseProvider
	Market    contracts.MarketDataProvider
	Portfolio contracts.PortfolioProvider
}

// Build wires every stage from a validated scan configuration
// cooldowns may be nil (새 레지스트리 생성)
func Build(cfg *scanconfig.Config, p Providers, cooldowns *cooldown.Registry, opts Options, log *logger.Logger) (*Orchestrator, error) {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	engine := risk.NewEngine(cfg.Risk)

	deps := modules.Deps{
		Risk:      engine,
		Portfolio: p.Portfolio,
		Logger:    log,
	}
	registry, err := modules.Build(cfg.Modules, deps)
	if err != nil {
		return nil, fmt.Errorf("build modules: %w", err)
	}

	if cooldowns == nil {
		cooldowns = cooldown.New(log)
	}
	if opts.CooldownMinutes == 0 {
		opts.CooldownMinutes = cfg.Cooldown.Minutes
	}

	return NewOrchestrator(Components{
		Registry:   registry,
		Executor:   executor.New(cfg.Executor, opts.Metrics, log),
		Aggregator: aggregator.New(),
		Scorer:     scoring.NewScorer(cfg.Scoring),
		Gatekeeper: gatekeeper.New(cfg.Gatekeeper, opts.Metrics, log),
		Cooldown:   cooldowns,
		Calibrator: scoring.NewCalibrator(cfg.Calibration),
		Risk:       engine,
		Universe:   p.Universe,
		Market:     p.Market,
		Portfolio:  p.Portfolio,
		Specs:      cfg.Modules,
		ModuleDeps: deps,
	}, opts, log), nil
}
