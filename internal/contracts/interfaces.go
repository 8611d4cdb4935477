package contracts

import "context"

// MarketDataProvider supplies the snapshot a tick runs against
// ⭐ SSOT: 시세 수집 인터페이스
type MarketDataProvider interface {
	Snapshot(ctx context.Context, symbols []string) (*MarketSnapshot, error)
}

// UniverseProvider lists the instruments to scan
// ⭐ SSOT: 유니버스 인터페이스
type UniverseProvider interface {
	Universe(ctx context.Context) (*Universe, error)
}

// PortfolioProvider supplies current holdings for risk assessment
type PortfolioProvider interface {
	Portfolio(ctx context.Context) (PortfolioState, error)
}

// TickSink receives every completed tick (persistence, publishing, push)
type TickSink interface {
	Name() string
	HandleTick(ctx context.Context, result *TickResult) error
}
