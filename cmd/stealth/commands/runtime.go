package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/marketdata"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/portfolio"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/scanconfig"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/universe"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/config"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/database"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/httputil"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/redis"
)

// runtime holds the shared dependencies every command builds from
// ⭐ SSOT: 커맨드 공통 의존성 조립은 여기서만
type runtime struct {
	cfg     *config.Config
	scan    *scanconfig.Config
	scanRaw []byte
	log     *logger.Logger

	redis     *redis.Client
	db        *database.DB // nil when DB_ENABLED=false
	market    contracts.MarketDataProvider
	universe  *universe.Cached
	portfolio *portfolio.StaticPortfolio
}

// loadScanConfig reads the scan YAML; a missing file falls back to defaults
func loadScanConfig(cfg *config.Config, log *logger.Logger) (*scanconfig.Config, []byte, error) {
	path := cfg.ScanConfigPath
	if scanConfigPath != "" {
		path = scanConfigPath
	}

	sc, raw, err := scanconfig.Load(path)
	if errors.Is(err, os.ErrNotExist) && scanConfigPath == "" {
		log.WithField("path", path).Warn("Scan config not found, using defaults")
		return scanconfig.Default(), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load scan config %s: %w", path, err)
	}
	for _, w := range scanconfig.Warn(sc) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return sc, raw, nil
}

// loadBase loads env config, logger and scan config only
func loadBase() (*config.Config, *logger.Logger, *scanconfig.Config, []byte, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	sc, raw, err := loadScanConfig(cfg, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return cfg, log, sc, raw, nil
}

// newRuntime builds providers; withDB connects postgres when enabled
func newRuntime(ctx context.Context, withDB bool) (*runtime, error) {
	cfg, log, sc, raw, err := loadBase()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, scan: sc, scanRaw: raw, log: log}

	rt.redis, err = redis.New(ctx, cfg)
	if err != nil {
		// 캐시/리미터 없이 계속
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rt.redis = redis.Disabled()
	}

	if withDB {
		rt.db, err = database.New(ctx, cfg)
		switch {
		case errors.Is(err, database.ErrDisabled):
			rt.db = nil
		case err != nil:
			rt.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		default:
			log.Info("Connected to database")
		}
	}

	if err := rt.buildMarket(); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.buildPortfolio(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.buildUniverse()

	return rt, nil
}

func (rt *runtime) httpClient(breaker string) *httputil.Client {
	c := httputil.New(rt.cfg, rt.log).WithBreaker(breaker, uint32(rt.cfg.HTTP.BreakerFailures))
	if rt.redis.Enabled() {
		c = c.WithRateLimiter(redis.NewRateLimiter(rt.redis, "ratelimit"),
			redis.UpstreamRateLimit(breaker, rt.cfg.HTTP.RateLimit))
	}
	return c
}

func (rt *runtime) buildMarket() error {
	switch rt.cfg.MarketData.Provider {
	case "yahoo":
		rt.market = marketdata.NewYahoo(
			rt.httpClient("yahoo"),
			redis.NewCache(rt.redis, "stealth"),
			rt.cfg.MarketData.YahooQuoteURL,
			rt.log,
		)
	default:
		p, err := marketdata.LoadFixture(rt.cfg.MarketData.FixturePath)
		if err != nil {
			return fmt.Errorf("load market fixture: %w", err)
		}
		rt.market = p
	}
	rt.log.WithField("provider", rt.cfg.MarketData.Provider).Debug("Market data provider ready")
	return nil
}

func (rt *runtime) buildPortfolio() error {
	if rt.cfg.PortfolioPath == "" {
		rt.portfolio = portfolio.NewStatic(contracts.PortfolioState{})
		return nil
	}
	p, err := portfolio.LoadFile(rt.cfg.PortfolioPath)
	if err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}
	rt.portfolio = p
	return nil
}

func (rt *runtime) buildUniverse() {
	uc := rt.scan.Universe

	var source contracts.UniverseProvider
	switch uc.Source {
	case universe.SourceWikipedia:
		source = universe.NewWikipedia(rt.httpClient("wikipedia"), uc.WikipediaURL, uc.Size, rt.log)
	default:
		source = universe.NewStatic(uc.Lists, uc.Size)
	}

	var filter *universe.Filter
	if uc.Filters.Enabled {
		filter = universe.NewFilter(uc.Filters)
	}
	rt.universe = universe.NewCached(source, rt.market, filter, rt.log)
}

// Close releases connections
func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}
