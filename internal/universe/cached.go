package universe

import (
	"context"
	"fmt"
	"sync"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// Cached serves the last refreshed universe
// universe_refresh 잡이 Refresh 호출, 첫 조회 시 지연 생성
type Cached struct {
	source contracts.UniverseProvider
	market contracts.MarketDataProvider // nil = 필터 없음
	filter *Filter
	logger *logger.Logger

	mu      sync.RWMutex
	current *contracts.Universe
}

// NewCached wraps source; market and filter may be nil
func NewCached(source contracts.UniverseProvider, market contracts.MarketDataProvider, filter *Filter, log *logger.Logger) *Cached {
	if log == nil {
		log = logger.Nop()
	}
	return &Cached{source: source, market: market, filter: filter, logger: log}
}

// Universe returns the cached universe, refreshing if none
func (c *Cached) Universe(ctx context.Context) (*contracts.Universe, error) {
	c.mu.RLock()
	u := c.current
	c.mu.RUnlock()
	if u != nil {
		return u, nil
	}
	return c.Refresh(ctx)
}

// Refresh rebuilds from the source and applies the filter
// 실패 시 기존 캐시 유지
func (c *Cached) Refresh(ctx context.Context) (*contracts.Universe, error) {
	u, err := c.source.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh universe: %w", err)
	}

	if c.filter != nil && c.market != nil {
		snap, err := c.market.Snapshot(ctx, u.Symbols)
		if err != nil {
			return nil, fmt.Errorf("refresh universe quotes: %w", err)
		}
		u = c.filter.Apply(u, snap)
	}
	if len(u.Symbols) == 0 {
		return nil, ErrEmptyUniverse
	}

	c.mu.Lock()
	c.current = u
	c.mu.Unlock()

	c.logger.WithFields(map[string]interface{}{
		"source":   u.Source,
		"symbols":  len(u.Symbols),
		"excluded": len(u.Excluded),
	}).Info("Universe refreshed")
	return u, nil
}
