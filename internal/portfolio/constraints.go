package portfolio

import (
	"fmt"
	"sort"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Constraints are the concentration limits reported against the current state
// ⭐ SSOT: 포트폴리오 제약조건은 여기서만
type Constraints struct {
	MaxSectorWeight float64 // 섹터당 최대 비중 (0.0 ~ 1.0)
	MaxWeight       float64 // 종목당 최대 비중 (0.0 ~ 1.0)
}

// DefaultConstraints returns default constraint configuration
func DefaultConstraints() Constraints {
	return Constraints{
		MaxSectorWeight: 0.25, // 섹터당 최대 25%
		MaxWeight:       0.10, // 종목당 최대 10%
	}
}

// Summary is the portfolio view served by the API
type Summary struct {
	State         contracts.PortfolioState `json:"state"`
	Exposure      float64                  `json:"exposure"`
	SectorWeights map[string]float64       `json:"sector_weights"`
	Breaches      []string                 `json:"breaches"`
}

// Summarize computes weights against TotalValue and lists limit breaches
func (c Constraints) Summarize(state contracts.PortfolioState) Summary {
	s := Summary{
		State:         state,
		Exposure:      state.Exposure(),
		SectorWeights: make(map[string]float64),
		Breaches:      make([]string, 0),
	}
	if state.TotalValue <= 0 {
		return s
	}

	for _, pos := range state.Positions {
		sector := pos.Sector
		if sector == "" {
			sector = "UNKNOWN"
		}
		s.SectorWeights[sector] += pos.Value / state.TotalValue

		if w := pos.Value / state.TotalValue; c.MaxWeight > 0 && w > c.MaxWeight {
			s.Breaches = append(s.Breaches, fmt.Sprintf("%s weight %.1f%% > %.1f%%", pos.Symbol, w*100, c.MaxWeight*100))
		}
	}

	sectors := make([]string, 0, len(s.SectorWeights))
	for sector := range s.SectorWeights {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	for _, sector := range sectors {
		if w := s.SectorWeights[sector]; c.MaxSectorWeight > 0 && w > c.MaxSectorWeight {
			s.Breaches = append(s.Breaches, fmt.Sprintf("sector %s weight %.1f%% > %.1f%%", sector, w*100, c.MaxSectorWeight*100))
		}
	}
	return s
}
