package marketdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// ErrNoQuotes is returned when none of the requested symbols has a quote
var ErrNoQuotes = errors.New("no quotes available")

// Fixture is the YAML layout for StaticProvider
type Fixture struct {
	Market contracts.MarketState `yaml:"market"`
	Quotes []contracts.Quote     `yaml:"quotes"`
}

// StaticProvider serves in-memory quotes (테스트, 오프라인 실행)
type StaticProvider struct {
	mu     sync.RWMutex
	quotes map[string]contracts.Quote
	market contracts.MarketState
	now    func() time.Time
}

// NewStatic creates a provider with the given quotes
func NewStatic(market contracts.MarketState, quotes ...contracts.Quote) *StaticProvider {
	p := &StaticProvider{
		quotes: make(map[string]contracts.Quote, len(quotes)),
		market: market,
		now:    time.Now,
	}
	for _, q := range quotes {
		p.quotes[q.Symbol] = q
	}
	return p
}

// LoadFixture reads a YAML fixture file
func LoadFixture(path string) (*StaticProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for i, q := range f.Quotes {
		if q.Symbol == "" {
			return nil, fmt.Errorf("parse fixture: quote %d has no symbol", i)
		}
	}
	return NewStatic(f.Market, f.Quotes...), nil
}

// WithClock overrides the snapshot timestamp source
func (p *StaticProvider) WithClock(now func() time.Time) *StaticProvider {
	p.now = now
	return p
}

// Set adds or replaces a quote
func (p *StaticProvider) Set(q contracts.Quote) {
	p.mu.Lock()
	p.quotes[q.Symbol] = q
	p.mu.Unlock()
}

// SetMarket replaces the market state
func (p *StaticProvider) SetMarket(m contracts.MarketState) {
	p.mu.Lock()
	p.market = m
	p.mu.Unlock()
}

// Symbols lists every symbol with a quote
func (p *StaticProvider) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.quotes))
	for s := range p.quotes {
		out = append(out, s)
	}
	return out
}

// Snapshot copies the requested quotes
func (p *StaticProvider) Snapshot(ctx context.Context, symbols []string) (*contracts.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	now := p.now()
	snap := &contracts.MarketSnapshot{
		Timestamp: now,
		Session:   SessionAt(now),
		Symbols:   append([]string(nil), symbols...),
		Quotes:    make(map[string]*contracts.Quote, len(symbols)),
		Market:    p.market,
	}
	for _, sym := range symbols {
		if q, ok := p.quotes[sym]; ok {
			snap.Quotes[sym] = &q
		}
	}
	if len(snap.Quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return snap, nil
}
