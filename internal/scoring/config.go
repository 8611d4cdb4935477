package scoring

import (
	"fmt"
	"math"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// 점수 카테고리
const (
	CategoryMomentum  = "momentum"
	CategoryVolume    = "volume"
	CategoryTechnical = "technical"
	CategorySentiment = "sentiment"
	CategoryRisk      = "risk"
)

// Categories returns categories in scoring order
func Categories() []string {
	return []string{CategoryMomentum, CategoryVolume, CategoryTechnical, CategorySentiment, CategoryRisk}
}

// CategoryWeights 카테고리별 가중치
type CategoryWeights struct {
	Momentum  float64 `yaml:"momentum" json:"momentum" validate:"gte=0"`
	Volume    float64 `yaml:"volume" json:"volume" validate:"gte=0"`
	Technical float64 `yaml:"technical" json:"technical" validate:"gte=0"`
	Sentiment float64 `yaml:"sentiment" json:"sentiment" validate:"gte=0"`
	Risk      float64 `yaml:"risk" json:"risk" validate:"gte=0"`
}

// For returns the weight of category
func (w CategoryWeights) For(category string) float64 {
	switch category {
	case CategoryMomentum:
		return w.Momentum
	case CategoryVolume:
		return w.Volume
	case CategoryTechnical:
		return w.Technical
	case CategorySentiment:
		return w.Sentiment
	case CategoryRisk:
		return w.Risk
	}
	return 0
}

// Sum returns the total weight
func (w CategoryWeights) Sum() float64 {
	return w.Momentum + w.Volume + w.Technical + w.Sentiment + w.Risk
}

// CategoryModules 카테고리 → 모듈 이름 매핑
type CategoryModules struct {
	Momentum  string `yaml:"momentum" json:"momentum"`
	Volume    string `yaml:"volume" json:"volume"`
	Technical string `yaml:"technical" json:"technical"`
	Sentiment string `yaml:"sentiment" json:"sentiment"`
	Risk      string `yaml:"risk" json:"risk"`
}

// For returns the module feeding category
func (m CategoryModules) For(category string) string {
	switch category {
	case CategoryMomentum:
		return m.Momentum
	case CategoryVolume:
		return m.Volume
	case CategoryTechnical:
		return m.Technical
	case CategorySentiment:
		return m.Sentiment
	case CategoryRisk:
		return m.Risk
	}
	return ""
}

// TierThresholds 티어 하한 (adjusted confidence 기준)
type TierThresholds struct {
	Platinum float64 `yaml:"platinum" json:"platinum"`
	Gold     float64 `yaml:"gold" json:"gold"`
	Silver   float64 `yaml:"silver" json:"silver"`
	Bronze   float64 `yaml:"bronze" json:"bronze"`
}

// Adjustments 보정 배수
type Adjustments struct {
	DilutionModule   string  `yaml:"dilution_module" json:"dilution_module"`
	DilutionPenalty  float64 `yaml:"dilution_penalty" json:"dilution_penalty"`
	SqueezeModule    string  `yaml:"squeeze_module" json:"squeeze_module"`
	SqueezeBonus     float64 `yaml:"squeeze_bonus" json:"squeeze_bonus"`
	PremarketFactor  float64 `yaml:"premarket_factor" json:"premarket_factor"`
	AfterhoursFactor float64 `yaml:"afterhours_factor" json:"afterhours_factor"`
}

// Config Confidence Scorer 설정
// ⭐ SSOT: 스코어링 가중치/임계값은 여기서만 정의
type Config struct {
	Weights         CategoryWeights `yaml:"weights" json:"weights"`
	Thresholds      TierThresholds  `yaml:"thresholds" json:"thresholds"`
	CategoryModules CategoryModules `yaml:"category_modules" json:"category_modules"`
	ExcludeMissing  []string        `yaml:"exclude_missing" json:"exclude_missing"`
	Adjustments     Adjustments     `yaml:"adjustments" json:"adjustments"`
	NeutralRisk     float64         `yaml:"neutral_risk" json:"neutral_risk"` // risk 모듈 부재 시
}

// DefaultConfig 기본 스코어링 설정
func DefaultConfig() Config {
	return Config{
		Weights: CategoryWeights{
			Momentum:  0.25,
			Volume:    0.20,
			Technical: 0.20,
			Sentiment: 0.15,
			Risk:      0.20,
		},
		Thresholds: TierThresholds{
			Platinum: 85,
			Gold:     70,
			Silver:   50,
			Bronze:   30,
		},
		CategoryModules: CategoryModules{
			Momentum:  "obv_vwap",
			Volume:    "float_churn",
			Technical: "pattern_scorer",
			Sentiment: "sentiment_analyzer",
			Risk:      "risk",
		},
		Adjustments: Adjustments{
			DilutionModule:   "dilution_detector",
			DilutionPenalty:  0.7,
			SqueezeModule:    "squeeze_potential",
			SqueezeBonus:     1.2,
			PremarketFactor:  0.9,
			AfterhoursFactor: 0.85,
		},
		NeutralRisk: 50,
	}
}

// Validate checks weights and tier ordering
func (c Config) Validate() error {
	if c.Weights.Sum() <= 0 {
		return fmt.Errorf("scoring weights must not all be zero")
	}
	t := c.Thresholds
	if !(t.Platinum > t.Gold && t.Gold > t.Silver && t.Silver > t.Bronze && t.Bronze >= 0 && t.Platinum <= 100) {
		return fmt.Errorf("tier thresholds must satisfy 100 >= platinum > gold > silver > bronze >= 0")
	}
	known := make(map[string]bool)
	for _, cat := range Categories() {
		known[cat] = true
	}
	for _, cat := range c.ExcludeMissing {
		if !known[cat] {
			return fmt.Errorf("exclude_missing: unknown category %q", cat)
		}
	}
	return nil
}

// Tier maps adjusted confidence to a tier (monotone)
func (t TierThresholds) Tier(confidence float64) contracts.Tier {
	switch {
	case confidence >= t.Platinum:
		return contracts.TierPlatinum
	case confidence >= t.Gold:
		return contracts.TierGold
	case confidence >= t.Silver:
		return contracts.TierSilver
	case confidence >= t.Bronze:
		return contracts.TierBronze
	default:
		return contracts.TierUnranked
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
