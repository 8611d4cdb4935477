package portfolio

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// StaticPortfolio holds the portfolio state in memory
// API(PUT /api/portfolio) 또는 YAML 파일로 설정
type StaticPortfolio struct {
	mu    sync.RWMutex
	state contracts.PortfolioState
}

// NewStatic creates a provider with an initial state
func NewStatic(state contracts.PortfolioState) *StaticPortfolio {
	return &StaticPortfolio{state: clone(state)}
}

// LoadFile reads a portfolio state from YAML
func LoadFile(path string) (*StaticPortfolio, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio file: %w", err)
	}

	var state contracts.PortfolioState
	if err := yaml.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("parse portfolio file: %w", err)
	}

	p := &StaticPortfolio{}
	if err := p.Set(context.Background(), state); err != nil {
		return nil, err
	}
	return p, nil
}

// Portfolio returns a copy of the current state
func (p *StaticPortfolio) Portfolio(_ context.Context) (contracts.PortfolioState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return clone(p.state), nil
}

// Set validates and replaces the state
func (p *StaticPortfolio) Set(ctx context.Context, state contracts.PortfolioState) error {
	if err := validate.Struct(ctx, &state); err != nil {
		return fmt.Errorf("invalid portfolio: %w", err)
	}
	if exposure := state.Exposure(); state.TotalValue > 0 && exposure > state.TotalValue {
		return fmt.Errorf("invalid portfolio: exposure %.2f exceeds total value %.2f", exposure, state.TotalValue)
	}

	p.mu.Lock()
	p.state = clone(state)
	p.mu.Unlock()
	return nil
}

func clone(s contracts.PortfolioState) contracts.PortfolioState {
	s.Positions = append([]contracts.Position(nil), s.Positions...)
	return s
}
