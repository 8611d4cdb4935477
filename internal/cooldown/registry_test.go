package cooldown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func candidate(symbol string, tier contracts.Tier) *contracts.CandidateSignal {
	c := contracts.NewCandidate(symbol+"-id", symbol, time.Time{})
	c.InitialTier = tier
	c.Tier = tier
	return c
}

func TestSetAndExpiry(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(nil, clock.Now)

	r.Set("GME", 30, "manual")
	assert.True(t, r.IsActive("GME"))

	e, ok := r.Get("GME")
	require.True(t, ok)
	assert.Equal(t, "manual", e.Reason)
	assert.Equal(t, 30, e.Minutes)
	assert.Equal(t, 30*time.Minute, e.Remaining(clock.Now()))

	clock.Advance(29 * time.Minute)
	assert.True(t, r.IsActive("GME"))

	clock.Advance(time.Minute)
	assert.False(t, r.IsActive("GME"))
	_, ok = r.Get("GME")
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(nil, clock.Now)

	r.Set("AMC", 5, "first")
	r.Set("AMC", 60, "second")

	e, ok := r.Get("AMC")
	require.True(t, ok)
	assert.Equal(t, "second", e.Reason)
	assert.Equal(t, 1, r.ActiveCount())

	clock.Advance(10 * time.Minute)
	assert.True(t, r.IsActive("AMC"))
}

func TestClear(t *testing.T) {
	r := NewWithClock(nil, newFakeClock().Now)

	r.Set("A", 10, "x")
	r.Set("B", 10, "x")

	assert.True(t, r.Clear("A"))
	assert.False(t, r.Clear("A"))
	assert.False(t, r.IsActive("A"))
	assert.True(t, r.IsActive("B"))

	r.ClearAll()
	assert.Zero(t, r.ActiveCount())
}

func TestActiveCountPurges(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(nil, clock.Now)

	r.Set("A", 5, "x")
	r.Set("B", 15, "x")
	r.Set("C", 25, "x")
	assert.Equal(t, 3, r.ActiveCount())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 2, r.ActiveCount())

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Symbol)
	assert.Equal(t, "C", entries[1].Symbol)
}

func TestAdmit(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(nil, clock.Now)
	r.Set("HOT", 30, "earlier")

	in := []*contracts.CandidateSignal{
		candidate("HOT", contracts.TierPlatinum),
		candidate("PLAT", contracts.TierPlatinum),
		candidate("GOLD", contracts.TierGold),
		candidate("SILV", contracts.TierSilver),
		candidate("BRNZ", contracts.TierBronze),
	}

	out, rejected := r.Admit(in, 30)
	assert.Equal(t, 1, rejected)
	require.Len(t, out, 4)
	assert.Equal(t, "PLAT", out[0].Symbol)

	e, ok := r.Get("PLAT")
	require.True(t, ok)
	assert.Equal(t, "signal generated: PLATINUM", e.Reason)

	e, ok = r.Get("GOLD")
	require.True(t, ok)
	assert.Equal(t, "signal generated: GOLD", e.Reason)

	assert.False(t, r.IsActive("SILV"))
	assert.False(t, r.IsActive("BRNZ"))
}

func TestAdmit_DowngradedGoldStillCoolsDown(t *testing.T) {
	r := NewWithClock(nil, newFakeClock().Now)

	c := candidate("FADE", contracts.TierPlatinum)
	c.Tier = contracts.TierGold

	out, rejected := r.Admit([]*contracts.CandidateSignal{c}, 30)
	assert.Zero(t, rejected)
	require.Len(t, out, 1)

	e, ok := r.Get("FADE")
	require.True(t, ok)
	assert.Equal(t, "signal generated: GOLD", e.Reason)
}

// 같은 tick을 두 번 돌리면 두 번째는 GOLD+ 전부 억제
func TestAdmit_Idempotent(t *testing.T) {
	clock := newFakeClock()
	r := NewWithClock(nil, clock.Now)

	tick := func() []*contracts.CandidateSignal {
		return []*contracts.CandidateSignal{
			candidate("A", contracts.TierGold),
			candidate("B", contracts.TierSilver),
		}
	}

	first, _ := r.Admit(tick(), 10)
	assert.Len(t, first, 2)

	second, rejected := r.Admit(tick(), 10)
	assert.Equal(t, 1, rejected)
	require.Len(t, second, 1)
	assert.Equal(t, "B", second[0].Symbol)

	clock.Advance(10 * time.Minute)
	third, rejected := r.Admit(tick(), 10)
	assert.Zero(t, rejected)
	assert.Len(t, third, 2)
}

func TestAdmit_ConcurrentTicks(t *testing.T) {
	r := NewWithClock(nil, newFakeClock().Now)

	const ticks = 20
	var wg sync.WaitGroup
	admitted := make([]int, ticks)

	for i := 0; i < ticks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, _ := r.Admit([]*contracts.CandidateSignal{candidate("RACE", contracts.TierPlatinum)}, 30)
			admitted[i] = len(out)
		}(i)
	}
	wg.Wait()

	total := 0
	for _, n := range admitted {
		total += n
	}
	assert.Equal(t, 1, total)
}
