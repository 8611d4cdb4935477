package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/pkg/config"
)

func TestNewClientDisabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), QuoteRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, QuoteRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), UniverseRateLimit))
}

func TestUpstreamRateLimit(t *testing.T) {
	tests := []struct {
		upstream string
		want     RateLimitConfig
	}{
		{"yahoo", QuoteRateLimit},
		{"wikipedia", UniverseRateLimit},
		{"sec", RateLimitConfig{Key: "sec", Limit: 7, Window: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.upstream, func(t *testing.T) {
			assert.Equal(t, tt.want, UpstreamRateLimit(tt.upstream, 7))
		})
	}
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(Disabled(), "stealth")

	var dest map[string]float64
	found, err := cache.Get(ctx, QuoteKey("NVDA"), &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, QuoteKey("NVDA"), map[string]float64{"price": 1}, TTLQuote))
	assert.NoError(t, cache.Delete(ctx, QuoteKey("NVDA")))
}

func TestCacheGetOrSetFallsThrough(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(Disabled(), "stealth")

	calls := 0
	var dest []string
	err := cache.GetOrSet(ctx, UniverseKey("static"), &dest, TTLUniverse, func() (interface{}, error) {
		calls++
		return []string{"AAPL", "NVDA"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, dest)
	assert.Equal(t, 1, calls)

	boom := errors.New("upstream down")
	err = cache.GetOrSet(ctx, UniverseKey("wiki"), &dest, TTLUniverse, func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "quote:TSLA", QuoteKey("TSLA"))
	assert.Equal(t, "universe:sp500", UniverseKey("sp500"))
	assert.Equal(t, "stealth:cache:quote:TSLA", NewCache(Disabled(), "stealth").key(QuoteKey("TSLA")))
}
