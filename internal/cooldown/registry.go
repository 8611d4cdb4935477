package cooldown

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// DefaultMinutes 시그널 발생 후 재알림 억제 시간
const DefaultMinutes = 30

// Entry is one instrument's cooldown
type Entry struct {
	Symbol    string    `json:"symbol"`
	ExpiresAt time.Time `json:"expires_at"`
	Reason    string    `json:"reason"`
	Minutes   int       `json:"minutes"`
}

// Remaining returns time left at now (0 when expired)
func (e Entry) Remaining(now time.Time) time.Duration {
	if d := e.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Registry is the cross-tick cooldown map
// ⭐ SSOT: 종목별 쿨다운 상태는 이 구조체에서만 관리
// 모든 check-then-set은 단일 락 안에서 수행 (동시 tick 경쟁 방지)
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
	logger  *logger.Logger
}

// New creates an empty registry using the wall clock
func New(log *logger.Logger) *Registry {
	return NewWithClock(log, time.Now)
}

// NewWithClock creates a registry with an injected clock
func NewWithClock(log *logger.Logger, now func() time.Time) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		entries: make(map[string]Entry),
		now:     now,
		logger:  log,
	}
}

// Set overwrites the cooldown for symbol
func (r *Registry) Set(symbol string, minutes int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(symbol, minutes, reason)
}

func (r *Registry) set(symbol string, minutes int, reason string) {
	r.entries[symbol] = Entry{
		Symbol:    symbol,
		ExpiresAt: r.now().Add(time.Duration(minutes) * time.Minute),
		Reason:    reason,
		Minutes:   minutes,
	}
}

// IsActive reports whether symbol is cooling down; expired entries are removed
func (r *Registry) IsActive(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active(symbol, r.now())
}

func (r *Registry) active(symbol string, now time.Time) bool {
	e, ok := r.entries[symbol]
	if !ok {
		return false
	}
	if !now.Before(e.ExpiresAt) {
		delete(r.entries, symbol)
		return false
	}
	return true
}

// Get returns a copy of the live entry for symbol
func (r *Registry) Get(symbol string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active(symbol, r.now()) {
		return Entry{}, false
	}
	return r.entries[symbol], true
}

// Clear removes the cooldown for symbol; reports whether one existed
func (r *Registry) Clear(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[symbol]
	delete(r.entries, symbol)
	return ok
}

// ClearAll removes every cooldown
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
}

// ActiveCount purges expired entries and returns the live count
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.purge()
}

func (r *Registry) purge() int {
	now := r.now()
	for sym, e := range r.entries {
		if !now.Before(e.ExpiresAt) {
			delete(r.entries, sym)
		}
	}
	return len(r.entries)
}

// Entries returns live entries sorted by expiry
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

// Admit filters one tick's candidates
// 쿨다운 중인 종목은 제거, GOLD 이상 생존 종목은 쿨다운 설정
// PLATINUM → GOLD 강등 종목도 GOLD로서 쿨다운 대상
func (r *Registry) Admit(candidates []*contracts.CandidateSignal, minutes int) ([]*contracts.CandidateSignal, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	admitted := make([]*contracts.CandidateSignal, 0, len(candidates))
	rejected := 0

	for _, c := range candidates {
		if r.active(c.Symbol, now) {
			rejected++
			r.logger.WithFields(map[string]interface{}{
				"symbol":     c.Symbol,
				"tier":       c.Tier,
				"expires_at": r.entries[c.Symbol].ExpiresAt,
			}).Debug("Candidate suppressed by cooldown")
			continue
		}

		admitted = append(admitted, c)
		if c.Tier.AtLeast(contracts.TierGold) {
			r.set(c.Symbol, minutes, fmt.Sprintf("signal generated: %s", c.Tier))
		}
	}

	return admitted, rejected
}
