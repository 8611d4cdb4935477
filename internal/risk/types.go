package risk

import "github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"

// =============================================================================
// Config
// =============================================================================

// SizingMode 포지션 사이징 방식
type SizingMode string

const (
	SizingFixed SizingMode = "fixed" // base cap × risk × confidence
	SizingKelly SizingMode = "kelly" // base cap을 Kelly 추정치로 제한
)

// ComponentWeights 5개 리스크 컴포넌트 가중치 (합 = 1.0)
type ComponentWeights struct {
	Portfolio   float64 `yaml:"portfolio" json:"portfolio"`
	Position    float64 `yaml:"position" json:"position"`
	Market      float64 `yaml:"market" json:"market"`
	Correlation float64 `yaml:"correlation" json:"correlation"`
	Liquidity   float64 `yaml:"liquidity" json:"liquidity"`
}

// Sum returns the total weight
func (w ComponentWeights) Sum() float64 {
	return w.Portfolio + w.Position + w.Market + w.Correlation + w.Liquidity
}

// LevelValues 리스크 레벨별 값 (손절 기준, 손익비 등)
type LevelValues struct {
	Low     float64 `yaml:"low" json:"low"`
	Medium  float64 `yaml:"medium" json:"medium"`
	High    float64 `yaml:"high" json:"high"`
	Extreme float64 `yaml:"extreme" json:"extreme"`
}

// For returns the value for level
func (v LevelValues) For(level contracts.RiskLevel) float64 {
	switch level {
	case contracts.RiskLow:
		return v.Low
	case contracts.RiskMedium:
		return v.Medium
	case contracts.RiskHigh:
		return v.High
	default:
		return v.Extreme
	}
}

// LevelThresholds overall risk 상한 (미만이면 해당 레벨)
// ⚠️ 기본값은 [0,1] 점수 대비 매우 좁음 → 운영 환경에서 설정으로 조정
type LevelThresholds struct {
	Low    float64 `yaml:"low" json:"low"`
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

// Config 리스크 엔진 설정
// ⭐ SSOT: 모든 가중치/임계값은 여기서만 정의
type Config struct {
	Weights         ComponentWeights `yaml:"weights" json:"weights"`
	AmplifyAbove    float64          `yaml:"amplify_above" json:"amplify_above"`
	AmplifyFactor   float64          `yaml:"amplify_factor" json:"amplify_factor"`
	LevelThresholds LevelThresholds  `yaml:"level_thresholds" json:"level_thresholds"`

	// Position sizing
	SizingMode      SizingMode `yaml:"sizing_mode" json:"sizing_mode"`
	MaxPositionSize float64    `yaml:"max_position_size" json:"max_position_size"`
	MinPositionSize float64    `yaml:"min_position_size" json:"min_position_size"`
	KellyCap        float64    `yaml:"kelly_cap" json:"kelly_cap"`

	// 거래 이력이 없을 때 Kelly 입력 기본값
	KellyDefaultWinRate float64 `yaml:"kelly_default_win_rate" json:"kelly_default_win_rate"`
	KellyDefaultAvgWin  float64 `yaml:"kelly_default_avg_win" json:"kelly_default_avg_win"`
	KellyDefaultAvgLoss float64 `yaml:"kelly_default_avg_loss" json:"kelly_default_avg_loss"`

	// Exits
	StopLossBase       LevelValues `yaml:"stop_loss_base" json:"stop_loss_base"`
	RewardRatio        LevelValues `yaml:"reward_ratio" json:"reward_ratio"`
	StopLossMin        float64     `yaml:"stop_loss_min" json:"stop_loss_min"`
	StopLossMax        float64     `yaml:"stop_loss_max" json:"stop_loss_max"`
	TakeProfitMin      float64     `yaml:"take_profit_min" json:"take_profit_min"`
	TakeProfitMax      float64     `yaml:"take_profit_max" json:"take_profit_max"`
	BaselineVolatility float64     `yaml:"baseline_volatility" json:"baseline_volatility"`
	MomentumBoostAbove float64     `yaml:"momentum_boost_above" json:"momentum_boost_above"`
	MomentumBoost      float64     `yaml:"momentum_boost" json:"momentum_boost"`

	// Component normalizers
	MaxVolatility     float64 `yaml:"max_volatility" json:"max_volatility"`       // 50% = max position risk
	CatalystMaxDays   float64 `yaml:"catalyst_max_days" json:"catalyst_max_days"` // 30일 = max
	VIXCeiling        float64 `yaml:"vix_ceiling" json:"vix_ceiling"`             // VIX 30 = max
	MinAvgVolume      float64 `yaml:"min_avg_volume" json:"min_avg_volume"`       // 유동성 하한
	MaxSpread         float64 `yaml:"max_spread" json:"max_spread"`               // 5% spread = max
	DefaultMaxDD      float64 `yaml:"default_max_drawdown" json:"default_max_drawdown"`
	DefaultTotalValue float64 `yaml:"default_total_value" json:"default_total_value"`
}

// DefaultConfig 기본 리스크 설정
func DefaultConfig() Config {
	return Config{
		Weights: ComponentWeights{
			Portfolio:   0.25,
			Position:    0.20,
			Market:      0.25,
			Correlation: 0.15,
			Liquidity:   0.15,
		},
		AmplifyAbove:  0.7,
		AmplifyFactor: 1.5,
		LevelThresholds: LevelThresholds{
			Low:    0.02,
			Medium: 0.04,
			High:   0.06,
		},

		SizingMode:      SizingFixed,
		MaxPositionSize: 0.10,
		MinPositionSize: 0.001,
		KellyCap:        0.25,

		KellyDefaultWinRate: 0.5,
		KellyDefaultAvgWin:  0.02,
		KellyDefaultAvgLoss: 0.01,

		StopLossBase:       LevelValues{Low: 0.05, Medium: 0.03, High: 0.02, Extreme: 0.01},
		RewardRatio:        LevelValues{Low: 3.0, Medium: 2.5, High: 2.0, Extreme: 1.5},
		StopLossMin:        0.005,
		StopLossMax:        0.10,
		TakeProfitMin:      0.01,
		TakeProfitMax:      0.50,
		BaselineVolatility: 0.02,
		MomentumBoostAbove: 80,
		MomentumBoost:      1.2,

		MaxVolatility:     0.5,
		CatalystMaxDays:   30,
		VIXCeiling:        30,
		MinAvgVolume:      500_000,
		MaxSpread:         0.05,
		DefaultMaxDD:      0.1,
		DefaultTotalValue: 100_000,
	}
}

// =============================================================================
// Input
// =============================================================================

// Input 종목 단위 리스크 입력
// 0 값 = 미제공 → 엔진 기본값 적용 (Confidence, CatalystAgeDays 제외)
type Input struct {
	Symbol          string  `json:"symbol"`
	Sector          string  `json:"sector"`
	Confidence      float64 `json:"confidence"`        // 0~100
	MomentumScore   float64 `json:"momentum_score"`    // 0~100, 기본 50
	Volatility      float64 `json:"volatility"`        // 기본 0.02
	CatalystAgeDays float64 `json:"catalyst_age_days"` // 기본 0
	AvgVolume       float64 `json:"avg_volume"`        // 기본 1,000,000
	Spread          float64 `json:"spread"`            // 기본 0.01
	TurnoverRate    float64 `json:"turnover_rate"`     // 기본 1.0
}

// 입력 기본값
const (
	defaultMomentum   = 50.0
	defaultVolatility = 0.02
	defaultAvgVolume  = 1_000_000.0
	defaultSpread     = 0.01
	defaultTurnover   = 1.0
	defaultVIX        = 15.0
	defaultRelVolume  = 1.0
)

// withDefaults fills unknown fields
func (in Input) withDefaults() Input {
	if in.MomentumScore == 0 {
		in.MomentumScore = defaultMomentum
	}
	if in.Volatility <= 0 {
		in.Volatility = defaultVolatility
	}
	if in.AvgVolume <= 0 {
		in.AvgVolume = defaultAvgVolume
	}
	if in.Spread <= 0 {
		in.Spread = defaultSpread
	}
	if in.TurnoverRate <= 0 {
		in.TurnoverRate = defaultTurnover
	}
	return in
}

// InputFromQuote builds an Input from snapshot data
func InputFromQuote(q *contracts.Quote) Input {
	if q == nil {
		return Input{}
	}
	return Input{
		Symbol:          q.Symbol,
		Sector:          q.Sector,
		Volatility:      q.Volatility,
		CatalystAgeDays: q.CatalystAgeDays,
		AvgVolume:       q.AvgVolume,
		Spread:          q.Spread,
		TurnoverRate:    q.TurnoverRate,
	}
}
