package universe

import (
	"context"
	"errors"
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// ErrEmptyUniverse is returned when a provider resolves no symbols
var ErrEmptyUniverse = errors.New("empty universe")

// StaticProvider builds the universe from curated lists or explicit symbols
type StaticProvider struct {
	symbols []string
	now     func() time.Time
}

// NewStatic merges the named curated lists in order, deduplicated, capped to size
func NewStatic(lists []string, size int) *StaticProvider {
	var all []string
	for _, name := range lists {
		if l, ok := curated[name]; ok {
			all = append(all, l...)
		}
	}
	return &StaticProvider{symbols: dedupe(all, size), now: time.Now}
}

// NewSymbols serves an explicit symbol list
func NewSymbols(symbols ...string) *StaticProvider {
	return &StaticProvider{symbols: dedupe(symbols, 0), now: time.Now}
}

// Universe returns the fixed symbol list
func (p *StaticProvider) Universe(_ context.Context) (*contracts.Universe, error) {
	if len(p.symbols) == 0 {
		return nil, ErrEmptyUniverse
	}
	return &contracts.Universe{
		Source:   SourceStatic,
		BuiltAt:  p.now(),
		Symbols:  append([]string(nil), p.symbols...),
		Excluded: make(map[string]string),
	}, nil
}
