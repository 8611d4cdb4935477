package contracts

import "time"

// Session is the trading session a tick runs in
type Session string

const (
	SessionPremarket  Session = "premarket"
	SessionRegular    Session = "regular"
	SessionAfterhours Session = "afterhours"
	SessionClosed     Session = "closed"
)

// Valid reports whether s is a known session
func (s Session) Valid() bool {
	switch s {
	case SessionPremarket, SessionRegular, SessionAfterhours, SessionClosed:
		return true
	}
	return false
}

// Quote holds the per-instrument fields analysis modules read
// 0 값 = 미제공 (각 모듈이 기본값 적용)
type Quote struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Sector string `json:"sector,omitempty" yaml:"sector"`

	Price         float64 `json:"price" yaml:"price"`
	Open          float64 `json:"open" yaml:"open"`
	PreviousClose float64 `json:"previous_close" yaml:"previous_close"`
	DayHigh       float64 `json:"day_high" yaml:"day_high"`
	DayLow        float64 `json:"day_low" yaml:"day_low"`
	Volume        float64 `json:"volume" yaml:"volume"`
	AvgVolume     float64 `json:"avg_volume" yaml:"avg_volume"`
	MarketCap     float64 `json:"market_cap" yaml:"market_cap"`
	FloatShares   float64 `json:"float_shares" yaml:"float_shares"`

	// Short-side data, percentages
	ShortInterest float64 `json:"short_interest" yaml:"short_interest"`
	Utilization   float64 `json:"utilization" yaml:"utilization"`
	DaysToCover   float64 `json:"days_to_cover" yaml:"days_to_cover"`
	BorrowRate    float64 `json:"borrow_rate" yaml:"borrow_rate"`

	// Technicals
	Volatility float64 `json:"volatility" yaml:"volatility"` // daily, fraction
	Spread     float64 `json:"spread" yaml:"spread"`         // bid/ask, fraction of price
	RSI        float64 `json:"rsi" yaml:"rsi"`
	MA20       float64 `json:"ma20" yaml:"ma20"`
	VWAP       float64 `json:"vwap" yaml:"vwap"`
	OBVSlope   float64 `json:"obv_slope" yaml:"obv_slope"` // normalized [-1,1]

	// Order book
	BidSize float64 `json:"bid_size" yaml:"bid_size"`
	AskSize float64 `json:"ask_size" yaml:"ask_size"`

	// Attention
	Sentiment float64 `json:"sentiment" yaml:"sentiment"` // -1~1
	Mentions  int     `json:"mentions" yaml:"mentions"`
	NewsCount int     `json:"news_count" yaml:"news_count"`

	// Corporate actions
	ShelfAmount     float64 `json:"shelf_amount" yaml:"shelf_amount"`
	RecentFilings   int     `json:"recent_filings" yaml:"recent_filings"`
	CatalystAgeDays float64 `json:"catalyst_age_days" yaml:"catalyst_age_days"`
	TurnoverRate    float64 `json:"turnover_rate" yaml:"turnover_rate"`
}

// VolumeRatio is current volume over average volume, 0 when unknown
func (q *Quote) VolumeRatio() float64 {
	if q.AvgVolume <= 0 {
		return 0
	}
	return q.Volume / q.AvgVolume
}

// DollarVolume is volume × price
func (q *Quote) DollarVolume() float64 {
	return q.Volume * q.Price
}

// PriceChangePercent is the day change vs previous close, in percent
func (q *Quote) PriceChangePercent() float64 {
	if q.PreviousClose <= 0 {
		return 0
	}
	return (q.Price - q.PreviousClose) / q.PreviousClose * 100
}

// GapPercent is the open vs previous close, in percent
func (q *Quote) GapPercent() float64 {
	if q.PreviousClose <= 0 || q.Open <= 0 {
		return 0
	}
	return (q.Open - q.PreviousClose) / q.PreviousClose * 100
}

// MarketState is the market-wide context for a tick
type MarketState struct {
	VIX            float64 `json:"vix" yaml:"vix"`
	Trend          string  `json:"trend" yaml:"trend"` // strong_up, up, neutral, down, strong_down
	RelativeVolume float64 `json:"relative_volume" yaml:"relative_volume"`
}

// MarketSnapshot is the market data one tick runs against
// ⭐ SSOT: MarketDataProvider → Executor 입력
type MarketSnapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Session   Session           `json:"session"`
	Symbols   []string          `json:"symbols"`
	Quotes    map[string]*Quote `json:"quotes"`
	Market    MarketState       `json:"market"`
}

// Quote returns the quote for symbol or nil
func (s *MarketSnapshot) Quote(symbol string) *Quote {
	if s == nil || s.Quotes == nil {
		return nil
	}
	return s.Quotes[symbol]
}

// Each calls fn for every symbol with a quote, in Symbols order
func (s *MarketSnapshot) Each(fn func(symbol string, q *Quote)) {
	for _, sym := range s.Symbols {
		if q := s.Quote(sym); q != nil {
			fn(sym, q)
		}
	}
}
