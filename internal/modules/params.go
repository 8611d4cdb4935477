package modules

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// OBVVWAPParams obv_vwap 파라미터
type OBVVWAPParams struct {
	LookbackPeriod       int     `yaml:"lookback_period" default:"20" validate:"gte=2"`
	SlopeThreshold       float64 `yaml:"slope_threshold" default:"0.5" validate:"gte=0,lte=1"`
	VWAPStretchThreshold float64 `yaml:"vwap_stretch_threshold" default:"0.02" validate:"gt=0"`
	MinMomentum          float64 `yaml:"min_momentum" default:"60" validate:"gte=0,lte=100"`
}

// FloatChurnParams float_churn 파라미터
type FloatChurnParams struct {
	ChurnThreshold float64 `yaml:"churn_threshold" default:"0.3" validate:"gt=0"`
}

// PatternParams pattern_scorer 파라미터
type PatternParams struct {
	RSIOptimalLow  float64 `yaml:"rsi_optimal_low" default:"30" validate:"gte=0,lte=100"`
	RSIOptimalHigh float64 `yaml:"rsi_optimal_high" default:"70" validate:"gte=0,lte=100,gtfield=RSIOptimalLow"`
	RSIWideLow     float64 `yaml:"rsi_wide_low" default:"20" validate:"gte=0,lte=100"`
	RSIWideHigh    float64 `yaml:"rsi_wide_high" default:"80" validate:"gte=0,lte=100,gtfield=RSIWideLow"`
}

// SentimentParams sentiment_analyzer 파라미터
type SentimentParams struct {
	NewsBoost    float64 `yaml:"news_boost" default:"1.1" validate:"gte=1"`
	BuzzBoost    float64 `yaml:"buzz_boost" default:"1.05" validate:"gte=1"`
	BuzzMentions int     `yaml:"buzz_mentions" default:"100" validate:"gte=1"`
}

// DilutionParams dilution_detector 파라미터
type DilutionParams struct {
	ShelfThresholdMillions float64 `yaml:"shelf_threshold_millions" default:"50" validate:"gt=0"`
	ATMAlertThreshold      float64 `yaml:"atm_alert_threshold" default:"0.2" validate:"gte=0,lte=1"`
	DefaultMarketCap       float64 `yaml:"default_market_cap" default:"1000000000" validate:"gt=0"`
}

// SqueezeParams squeeze_potential 파라미터
type SqueezeParams struct {
	MinShortInterest float64 `yaml:"min_short_interest" default:"15" validate:"gte=0"`
	MinUtilization   float64 `yaml:"min_utilization" default:"85" validate:"gte=0,lte=100"`
	MinDaysToCover   float64 `yaml:"min_days_to_cover" default:"3" validate:"gte=0"`
	MinBorrowRate    float64 `yaml:"min_borrow_rate" default:"30" validate:"gte=0"`
}

// OrderbookParams orderbook_imbalance 파라미터
type OrderbookParams struct {
	DepthLevels        int     `yaml:"depth_levels" default:"10" validate:"gte=1"`
	ImbalanceThreshold float64 `yaml:"imbalance_threshold" default:"2.0" validate:"gt=1"`
}

// RiskParams risk 모듈 파라미터
type RiskParams struct {
	EmitLevels []string `yaml:"emit_levels" validate:"dive,oneof=LOW MEDIUM HIGH EXTREME"`
}

// decodeParams 기본값 → YAML 파라미터 덮어쓰기 → 검증
// 알 수 없는 파라미터는 오류
func decodeParams(module string, raw map[string]interface{}, dest interface{}) error {
	if err := validate.Defaults(dest); err != nil {
		return fmt.Errorf("%s params: %w", module, err)
	}

	if len(raw) > 0 {
		b, err := yaml.Marshal(raw)
		if err != nil {
			return fmt.Errorf("%s params: %w", module, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(dest); err != nil {
			return fmt.Errorf("%s params: %w", module, err)
		}
	}

	if err := validate.Struct(context.Background(), dest); err != nil {
		return fmt.Errorf("%s params: %w", module, err)
	}
	return nil
}
