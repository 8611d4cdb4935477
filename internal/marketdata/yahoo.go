package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/httputil"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/redis"
)

const (
	vixSymbol   = "^VIX"
	trendSymbol = "SPY"
	batchSize   = 50
)

// YahooProvider reads the v7 quote endpoint
// 종목별 시세는 redis에 30초 캐시, 요청은 httputil 리미터/브레이커 경유
type YahooProvider struct {
	client  *httputil.Client
	cache   *redis.Cache
	baseURL string
	logger  *logger.Logger
	now     func() time.Time
}

// NewYahoo creates a provider; cache may wrap a disabled redis client
func NewYahoo(client *httputil.Client, cache *redis.Cache, baseURL string, log *logger.Logger) *YahooProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &YahooProvider{client: client, cache: cache, baseURL: baseURL, logger: log, now: time.Now}
}

// yahooResponse v7 quote 응답
type yahooResponse struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	AverageDailyVolume3Month   float64 `json:"averageDailyVolume3Month"`
	AverageDailyVolume10Day    float64 `json:"averageDailyVolume10Day"`
	MarketCap                  float64 `json:"marketCap"`
	SharesOutstanding          float64 `json:"sharesOutstanding"`
	FiftyDayAverage            float64 `json:"fiftyDayAverage"`
	Bid                        float64 `json:"bid"`
	Ask                        float64 `json:"ask"`
	BidSize                    float64 `json:"bidSize"`
	AskSize                    float64 `json:"askSize"`
}

func (y yahooQuote) toQuote() contracts.Quote {
	q := contracts.Quote{
		Symbol:        y.Symbol,
		Price:         y.RegularMarketPrice,
		Open:          y.RegularMarketOpen,
		PreviousClose: y.RegularMarketPreviousClose,
		DayHigh:       y.RegularMarketDayHigh,
		DayLow:        y.RegularMarketDayLow,
		Volume:        y.RegularMarketVolume,
		AvgVolume:     y.AverageDailyVolume3Month,
		MarketCap:     y.MarketCap,
		FloatShares:   y.SharesOutstanding,
		BidSize:       y.BidSize,
		AskSize:       y.AskSize,
	}
	if q.AvgVolume == 0 {
		q.AvgVolume = y.AverageDailyVolume10Day
	}
	if mid := (y.Bid + y.Ask) / 2; y.Bid > 0 && y.Ask > 0 && mid > 0 {
		q.Spread = (y.Ask - y.Bid) / mid
	}
	// 일중 변동폭을 변동성 근사치로 사용
	if y.RegularMarketDayHigh > 0 && y.RegularMarketDayLow > 0 && y.RegularMarketPreviousClose > 0 {
		q.Volatility = (y.RegularMarketDayHigh - y.RegularMarketDayLow) / y.RegularMarketPreviousClose
	}
	return q
}

// Snapshot fetches quotes for symbols plus the VIX/SPY market state
func (p *YahooProvider) Snapshot(ctx context.Context, symbols []string) (*contracts.MarketSnapshot, error) {
	now := p.now()
	snap := &contracts.MarketSnapshot{
		Timestamp: now,
		Session:   SessionAt(now),
		Symbols:   append([]string(nil), symbols...),
		Quotes:    make(map[string]*contracts.Quote, len(symbols)),
	}

	// 캐시 히트 먼저
	var misses []string
	for _, sym := range symbols {
		var q contracts.Quote
		if found, err := p.cache.Get(ctx, redis.QuoteKey(sym), &q); err == nil && found {
			snap.Quotes[sym] = &q
			continue
		}
		misses = append(misses, sym)
	}

	for start := 0; start < len(misses); start += batchSize {
		end := start + batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batch := misses[start:end]

		// 응답 심볼(BRK-B) → 요청 심볼(BRK.B)
		requested := make(map[string]string, len(batch))
		wire := make([]string, len(batch))
		for i, sym := range batch {
			wire[i] = YahooSymbol(sym)
			requested[wire[i]] = sym
		}

		quotes, err := p.fetch(ctx, wire)
		if err != nil {
			p.logger.WithError(err).WithField("batch", len(batch)).Warn("Quote batch failed")
			continue
		}
		for _, yq := range quotes {
			sym, ok := requested[YahooSymbol(yq.Symbol)]
			if !ok {
				p.logger.WithField("symbol", yq.Symbol).Debug("Unrequested quote ignored")
				continue
			}
			q := yq.toQuote()
			q.Symbol = sym
			_ = p.cache.Set(ctx, redis.QuoteKey(sym), q, redis.TTLQuote)
			snap.Quotes[sym] = &q
		}
	}

	if len(snap.Quotes) == 0 {
		return nil, ErrNoQuotes
	}

	var mkt contracts.MarketState
	if err := p.cache.GetOrSet(ctx, "market_state", &mkt, redis.TTLQuote, func() (interface{}, error) {
		return p.marketState(ctx)
	}); err != nil {
		p.logger.WithError(err).Warn("Market state unavailable, using neutral")
		mkt = contracts.MarketState{Trend: "neutral"}
	}
	snap.Market = mkt

	return snap, nil
}

func (p *YahooProvider) fetch(ctx context.Context, symbols []string) ([]yahooQuote, error) {
	u := p.baseURL + "?" + url.Values{"symbols": {strings.Join(symbols, ",")}}.Encode()

	var resp yahooResponse
	if err := p.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return nil, fmt.Errorf("yahoo quote error %s: %s", e.Code, e.Description)
	}
	return resp.QuoteResponse.Result, nil
}

// YahooSymbol converts a listing symbol to Yahoo's form (BRK.B → BRK-B)
func YahooSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), ".", "-"))
}

// marketState VIX 레벨 + SPY 등락률로 추세 분류
func (p *YahooProvider) marketState(ctx context.Context) (contracts.MarketState, error) {
	quotes, err := p.fetch(ctx, []string{vixSymbol, trendSymbol})
	if err != nil {
		return contracts.MarketState{}, err
	}

	mkt := contracts.MarketState{Trend: "neutral"}
	for _, q := range quotes {
		switch q.Symbol {
		case vixSymbol:
			mkt.VIX = q.RegularMarketPrice
		case trendSymbol:
			mkt.Trend = TrendFromChange(q.RegularMarketChangePercent)
			if q.AverageDailyVolume10Day > 0 {
				mkt.RelativeVolume = q.RegularMarketVolume / q.AverageDailyVolume10Day
			}
		}
	}
	return mkt, nil
}

// TrendFromChange buckets the index day change (percent)
func TrendFromChange(pct float64) string {
	switch {
	case pct >= 1:
		return "strong_up"
	case pct >= 0.3:
		return "up"
	case pct <= -1:
		return "strong_down"
	case pct <= -0.3:
		return "down"
	default:
		return "neutral"
	}
}
