package universe

import (
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Filter applies tradability criteria to a universe
type Filter struct {
	cfg FilterConfig
}

// NewFilter creates a filter
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply splits u into kept symbols and Excluded reasons using snapshot quotes
// 시세 없는 종목은 제외
func (f *Filter) Apply(u *contracts.Universe, snap *contracts.MarketSnapshot) *contracts.Universe {
	out := &contracts.Universe{
		Source:   u.Source,
		BuiltAt:  u.BuiltAt,
		Symbols:  make([]string, 0, len(u.Symbols)),
		Excluded: make(map[string]string),
	}
	for sym, reason := range u.Excluded {
		out.Excluded[sym] = reason
	}

	for _, sym := range u.Symbols {
		if reason := f.checkExclusion(snap.Quote(sym)); reason != "" {
			out.Excluded[sym] = reason
			continue
		}
		out.Symbols = append(out.Symbols, sym)
	}
	return out
}

// checkExclusion returns the first failed criterion, "" when tradable
func (f *Filter) checkExclusion(q *contracts.Quote) string {
	if q == nil {
		return "no quote"
	}

	// 1. 가격 범위
	if q.Price <= 0 || q.Price < f.cfg.MinPrice || q.Price > f.cfg.MaxPrice {
		return fmt.Sprintf("price out of range (%.2f)", q.Price)
	}

	// 2. 거래량
	if q.Volume <= 0 || q.Volume < f.cfg.MinVolume {
		return fmt.Sprintf("volume below minimum (%.0f)", q.Volume)
	}

	// 3. 시가총액 (미제공이면 통과)
	if q.MarketCap > 0 && q.MarketCap < f.cfg.MinMarketCap {
		return fmt.Sprintf("market cap below minimum (%.0f)", q.MarketCap)
	}

	return ""
}
