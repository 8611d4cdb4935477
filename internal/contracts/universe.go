package contracts

import "time"

// Universe is the instrument list for a tick
// ⭐ SSOT: UniverseProvider → Orchestrator 종목 목록
type Universe struct {
	Source   string            `json:"source"`
	BuiltAt  time.Time         `json:"built_at"`
	Symbols  []string          `json:"symbols"`
	Excluded map[string]string `json:"excluded,omitempty"` // 제외 종목: 사유
}

// Contains checks if a symbol is in the universe
func (u *Universe) Contains(symbol string) bool {
	for _, s := range u.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// IsExcluded checks if a symbol is excluded with reason
func (u *Universe) IsExcluded(symbol string) (bool, string) {
	reason, exists := u.Excluded[symbol]
	return exists, reason
}

// Count returns the number of scannable symbols
func (u *Universe) Count() int {
	return len(u.Symbols)
}
