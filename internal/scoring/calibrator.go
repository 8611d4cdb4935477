package scoring

import "github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"

// CalibrationFactors 티어별 보정 계수
type CalibrationFactors struct {
	Platinum float64 `yaml:"platinum" json:"platinum"`
	Gold     float64 `yaml:"gold" json:"gold"`
	Silver   float64 `yaml:"silver" json:"silver"`
	Bronze   float64 `yaml:"bronze" json:"bronze"`
	Default  float64 `yaml:"default" json:"default"`
}

// DefaultCalibration 기본 보정 계수
func DefaultCalibration() CalibrationFactors {
	return CalibrationFactors{
		Platinum: 0.95,
		Gold:     0.85,
		Silver:   0.75,
		Bronze:   0.65,
		Default:  0.70,
	}
}

// For returns the factor for tier
func (f CalibrationFactors) For(tier contracts.Tier) float64 {
	switch tier {
	case contracts.TierPlatinum:
		return f.Platinum
	case contracts.TierGold:
		return f.Gold
	case contracts.TierSilver:
		return f.Silver
	case contracts.TierBronze:
		return f.Bronze
	default:
		return f.Default
	}
}

// Calibrator adjusted confidence × 티어 계수 → calibrated confidence
// 마지막 단계, adjusted 값은 그대로 유지
type Calibrator struct {
	factors CalibrationFactors
}

// NewCalibrator 새 캘리브레이터 생성
func NewCalibrator(factors CalibrationFactors) *Calibrator {
	return &Calibrator{factors: factors}
}

// Calibrate returns the calibrated value for adjusted confidence at tier
func (c *Calibrator) Calibrate(adjusted float64, tier contracts.Tier) float64 {
	return clamp(adjusted*c.factors.For(tier), 0, 100)
}

// Apply sets CalibratedConfidence on every candidate using its final tier
func (c *Calibrator) Apply(candidates []*contracts.CandidateSignal) {
	for _, cand := range candidates {
		cand.CalibratedConfidence = c.Calibrate(cand.AdjustedConfidence, cand.Tier)
	}
}
