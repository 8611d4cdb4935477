package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/config"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/httputil"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/redis"
)

func TestSessionAt(t *testing.T) {
	et := eastern
	tests := []struct {
		name string
		at   time.Time
		want contracts.Session
	}{
		{"early morning", time.Date(2024, 3, 4, 3, 59, 0, 0, et), contracts.SessionClosed},
		{"premarket open", time.Date(2024, 3, 4, 4, 0, 0, 0, et), contracts.SessionPremarket},
		{"premarket last minute", time.Date(2024, 3, 4, 9, 29, 0, 0, et), contracts.SessionPremarket},
		{"regular open", time.Date(2024, 3, 4, 9, 30, 0, 0, et), contracts.SessionRegular},
		{"regular close", time.Date(2024, 3, 4, 16, 0, 0, 0, et), contracts.SessionAfterhours},
		{"afterhours close", time.Date(2024, 3, 4, 20, 0, 0, 0, et), contracts.SessionClosed},
		{"saturday midday", time.Date(2024, 3, 9, 12, 0, 0, 0, et), contracts.SessionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionAt(tt.at))
		})
	}
}

func TestSessionAt_ConvertsTimezone(t *testing.T) {
	// 14:30 UTC = 09:30 EST (3월 4일은 서머타임 이전)
	assert.Equal(t, contracts.SessionRegular, SessionAt(time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)))
}

func TestStaticProvider_Snapshot(t *testing.T) {
	at := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	p := NewStatic(contracts.MarketState{VIX: 15, Trend: "up"},
		contracts.Quote{Symbol: "AAPL", Price: 180},
		contracts.Quote{Symbol: "TSLA", Price: 200},
	).WithClock(func() time.Time { return at })

	snap, err := p.Snapshot(context.Background(), []string{"TSLA", "MISSING"})
	require.NoError(t, err)
	assert.Equal(t, at, snap.Timestamp)
	assert.Equal(t, contracts.SessionRegular, snap.Session)
	assert.Equal(t, []string{"TSLA", "MISSING"}, snap.Symbols)
	require.NotNil(t, snap.Quote("TSLA"))
	assert.Nil(t, snap.Quote("MISSING"))
	assert.Equal(t, 15.0, snap.Market.VIX)

	// 스냅샷은 복사본
	snap.Quote("TSLA").Price = 1
	again, _ := p.Snapshot(context.Background(), []string{"TSLA"})
	assert.Equal(t, 200.0, again.Quote("TSLA").Price)

	_, err = p.Snapshot(context.Background(), []string{"NOPE"})
	assert.True(t, errors.Is(err, ErrNoQuotes))
}

func TestStaticProvider_Set(t *testing.T) {
	p := NewStatic(contracts.MarketState{})
	p.Set(contracts.Quote{Symbol: "GME", Price: 25})
	p.SetMarket(contracts.MarketState{Trend: "down"})

	snap, err := p.Snapshot(context.Background(), []string{"GME"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.Quote("GME").Price)
	assert.Equal(t, "down", snap.Market.Trend)
	assert.Equal(t, []string{"GME"}, p.Symbols())
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quotes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
market:
  vix: 22
  trend: neutral
quotes:
  - symbol: AMC
    price: 5.2
    volume: 40000000
    avg_volume: 20000000
    obv_slope: 0.7
`), 0o644))

	p, err := LoadFixture(path)
	require.NoError(t, err)
	snap, err := p.Snapshot(context.Background(), []string{"AMC"})
	require.NoError(t, err)
	assert.Equal(t, 5.2, snap.Quote("AMC").Price)
	assert.Equal(t, 2.0, snap.Quote("AMC").VolumeRatio())
	assert.Equal(t, 22.0, snap.Market.VIX)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("quotes:\n  - price: 1\n"), 0o644))
	_, err = LoadFixture(bad)
	assert.Error(t, err)
}

func TestLoadFixture_Sample(t *testing.T) {
	path := "../../config/fixtures/quotes.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("fixture not found")
	}
	p, err := LoadFixture(path)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Symbols())
}

func TestTrendFromChange(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{1.5, "strong_up"},
		{0.5, "up"},
		{0.1, "neutral"},
		{-0.5, "down"},
		{-2, "strong_down"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrendFromChange(tt.pct), "%v", tt.pct)
	}
}

const quoteJSON = `{"quoteResponse":{"result":[
 {"symbol":"AAPL","regularMarketPrice":180,"regularMarketOpen":178,"regularMarketPreviousClose":176,
  "regularMarketDayHigh":181,"regularMarketDayLow":177,"regularMarketVolume":60000000,
  "averageDailyVolume3Month":50000000,"marketCap":2800000000000,"sharesOutstanding":15500000000,
  "bid":179.9,"ask":180.1,"bidSize":8,"askSize":4}
],"error":null}}`

const marketJSON = `{"quoteResponse":{"result":[
 {"symbol":"^VIX","regularMarketPrice":18.5},
 {"symbol":"SPY","regularMarketPrice":510,"regularMarketChangePercent":0.6,"regularMarketVolume":80000000,"averageDailyVolume10Day":40000000}
],"error":null}}`

func newYahoo(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	cache := redis.NewCache(redis.Disabled(), "test")
	return NewYahoo(client, cache, srv.URL, nil)
}

func TestYahooProvider_Snapshot(t *testing.T) {
	var calls int32
	p := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if strings.Contains(r.URL.Query().Get("symbols"), "^VIX") {
			_, _ = w.Write([]byte(marketJSON))
			return
		}
		assert.Equal(t, "AAPL,MISSING", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(quoteJSON))
	})

	snap, err := p.Snapshot(context.Background(), []string{"AAPL", "MISSING"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	q := snap.Quote("AAPL")
	require.NotNil(t, q)
	assert.Equal(t, 180.0, q.Price)
	assert.Equal(t, 50000000.0, q.AvgVolume)
	assert.InDelta(t, 1.2, q.VolumeRatio(), 1e-9)
	assert.InDelta(t, 0.2/180, q.Spread, 1e-9)
	assert.InDelta(t, 4.0/176, q.Volatility, 1e-9)
	assert.Equal(t, 8.0, q.BidSize)
	assert.Nil(t, snap.Quote("MISSING"))

	assert.Equal(t, 18.5, snap.Market.VIX)
	assert.Equal(t, "up", snap.Market.Trend)
	assert.Equal(t, 2.0, snap.Market.RelativeVolume)
}

func TestYahooProvider_MapsClassShareSymbols(t *testing.T) {
	p := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("symbols"), "^VIX") {
			_, _ = w.Write([]byte(marketJSON))
			return
		}
		assert.Equal(t, "BRK-B,AAPL", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[
 {"symbol":"BRK-B","regularMarketPrice":410,"regularMarketVolume":3000000},
 {"symbol":"AAPL","regularMarketPrice":180},
 {"symbol":"TSLA","regularMarketPrice":200}
],"error":null}}`))
	})

	snap, err := p.Snapshot(context.Background(), []string{"BRK.B", "AAPL"})
	require.NoError(t, err)

	q := snap.Quote("BRK.B")
	require.NotNil(t, q)
	assert.Equal(t, "BRK.B", q.Symbol)
	assert.Equal(t, 410.0, q.Price)
	assert.Nil(t, snap.Quote("BRK-B"))
	assert.NotNil(t, snap.Quote("AAPL"))
	assert.Nil(t, snap.Quote("TSLA"))
	assert.Len(t, snap.Quotes, 2)
}

func TestYahooSymbol(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BRK.B", "BRK-B"},
		{"brk.b", "BRK-B"},
		{"AAPL", "AAPL"},
		{" BF.B ", "BF-B"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, YahooSymbol(tt.in))
		})
	}
}

func TestYahooProvider_AllFail(t *testing.T) {
	p := newYahoo(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Snapshot(context.Background(), []string{"AAPL"})
	assert.True(t, errors.Is(err, ErrNoQuotes))
}

func TestYahooProvider_MarketStateFallback(t *testing.T) {
	p := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("symbols"), "^VIX") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(quoteJSON))
	})

	snap, err := p.Snapshot(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "neutral", snap.Market.Trend)
	assert.Zero(t, snap.Market.VIX)
}
