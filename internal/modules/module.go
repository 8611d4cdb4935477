package modules

import (
	"context"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Module is one independent analysis over a market snapshot
// ⭐ SSOT: Executor가 호출하는 유일한 모듈 계약
type Module interface {
	Name() string
	Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error)
}

// Func adapts a function to Module
type Func struct {
	ModuleName string
	Fn         func(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error)
}

// Name returns the module name
func (f Func) Name() string { return f.ModuleName }

// Execute calls Fn
func (f Func) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	return f.Fn(ctx, snap)
}
