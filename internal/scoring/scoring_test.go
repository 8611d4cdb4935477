package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

const eps = 1e-9

func sig(symbol string, score *float64, meta map[string]interface{}) contracts.RawSignal {
	return contracts.RawSignal{Symbol: symbol, Score: score, Metadata: meta}
}

// workedCandidate momentum 80 / volume 60 / technical 70 / sentiment 50 / risk 90
func workedCandidate() *contracts.CandidateSignal {
	c := contracts.NewCandidate("id", "NVDA", time.Time{})
	c.Modules["obv_vwap"] = sig("NVDA", contracts.Score(55), map[string]interface{}{"momentum_score": 80.0})
	c.Modules["float_churn"] = sig("NVDA", contracts.Score(60), nil)
	c.Modules["pattern_scorer"] = sig("NVDA", contracts.Score(70), map[string]interface{}{"rsi": 55.0})
	c.Modules["sentiment_analyzer"] = sig("NVDA", contracts.Score(50), nil)
	c.Modules["risk"] = sig("NVDA", nil, map[string]interface{}{"overall_risk": 10.0, "risk_level": "LOW"})
	return c
}

func TestScore_WorkedExample(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := workedCandidate()

	res := s.Score(c, nil, contracts.SessionRegular)

	assert.InDelta(t, 71.5, res.Raw, eps)
	assert.InDelta(t, 71.5, res.Adjusted, eps)
	assert.Equal(t, contracts.TierGold, res.Tier)

	assert.InDelta(t, 71.5, c.RawConfidence, eps)
	assert.InDelta(t, 71.5, c.AdjustedConfidence, eps)
	assert.Equal(t, contracts.TierGold, c.InitialTier)
	assert.Equal(t, contracts.TierGold, c.Tier)
	assert.Equal(t, contracts.SessionRegular, c.Session)

	require.NotNil(t, c.Breakdown)
	mom, ok := c.Breakdown.Category(CategoryMomentum)
	require.True(t, ok)
	assert.Equal(t, 80.0, mom.Score)
	assert.Equal(t, "STRONG", mom.Label)

	risk, ok := c.Breakdown.Category(CategoryRisk)
	require.True(t, ok)
	assert.Equal(t, 90.0, risk.Score)
	assert.Equal(t, "VERY_LOW_RISK", risk.Label)

	assert.Equal(t, []string{"STRONG_MOMENTUM", "HIGH_VOLUME", "BULLISH_TECHNICALS", "LOW_RISK"}, c.Breakdown.Factors)
	assert.Empty(t, c.Breakdown.Adjustments)
}

func TestScore_MomentumFallsBackToScore(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := workedCandidate()
	c.Modules["obv_vwap"] = sig("NVDA", contracts.Score(40), nil)

	res := s.Evaluate(c, nil, contracts.SessionRegular)
	mom, _ := res.Breakdown.Category(CategoryMomentum)
	assert.Equal(t, 40.0, mom.Score)
	assert.True(t, mom.Present)
	assert.InDelta(t, 61.5, res.Raw, eps)
}

func TestScore_ReadsTickOutputs(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := contracts.NewCandidate("id", "AMD", time.Time{})

	outputs := contracts.ModuleOutputs{
		"float_churn":    {Module: "float_churn", Signals: []contracts.RawSignal{sig("AMD", contracts.Score(100), nil)}},
		"pattern_scorer": {Module: "pattern_scorer", Signals: []contracts.RawSignal{sig("AMD", contracts.Score(50), nil)}},
	}

	res := s.Evaluate(c, outputs, contracts.SessionRegular)
	// volume 100×0.2 + technical 50×0.2 + neutral risk 50×0.2
	assert.InDelta(t, 40, res.Raw, eps)
	assert.Equal(t, contracts.TierBronze, res.Tier)
}

func TestScore_Defaults(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := contracts.NewCandidate("id", "X", time.Time{})

	res := s.Evaluate(c, nil, contracts.SessionRegular)
	assert.InDelta(t, 10, res.Raw, eps)
	assert.Equal(t, contracts.TierUnranked, res.Tier)

	risk, _ := res.Breakdown.Category(CategoryRisk)
	assert.False(t, risk.Present)
	assert.Equal(t, 50.0, risk.Score)
}

func TestScore_ExcludeMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludeMissing = []string{CategorySentiment}
	s := NewScorer(cfg)

	c := workedCandidate()
	delete(c.Modules, "sentiment_analyzer")

	res := s.Evaluate(c, nil, contracts.SessionRegular)
	assert.InDelta(t, (80*0.25+60*0.20+70*0.20+90*0.20)/0.85, res.Raw, eps)

	cfg.ExcludeMissing = Categories()
	empty := NewScorer(cfg).Evaluate(contracts.NewCandidate("id", "X", time.Time{}), nil, contracts.SessionRegular)
	assert.Zero(t, empty.Raw)
	assert.Equal(t, contracts.TierUnranked, empty.Tier)
}

func TestScore_Adjustments(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *contracts.CandidateSignal)
		session  contracts.Session
		adjusted float64
		tier     contracts.Tier
	}{
		{
			name: "dilution penalty",
			mutate: func(c *contracts.CandidateSignal) {
				c.Modules["dilution_detector"] = sig("NVDA", nil, map[string]interface{}{"risk_level": "HIGH", "risk_score": 55.0})
			},
			session:  contracts.SessionRegular,
			adjusted: 71.5 * 0.7,
			tier:     contracts.TierSilver,
		},
		{
			name: "moderate dilution ignored",
			mutate: func(c *contracts.CandidateSignal) {
				c.Modules["dilution_detector"] = sig("NVDA", nil, map[string]interface{}{"risk_level": "MODERATE"})
			},
			session:  contracts.SessionRegular,
			adjusted: 71.5,
			tier:     contracts.TierGold,
		},
		{
			name: "squeeze bonus",
			mutate: func(c *contracts.CandidateSignal) {
				c.Modules["squeeze_potential"] = sig("NVDA", nil, map[string]interface{}{"squeeze_potential": "EXTREME"})
			},
			session:  contracts.SessionRegular,
			adjusted: 71.5 * 1.2,
			tier:     contracts.TierPlatinum,
		},
		{
			name:     "premarket",
			session:  contracts.SessionPremarket,
			adjusted: 71.5 * 0.9,
			tier:     contracts.TierSilver,
		},
		{
			name:     "afterhours",
			session:  contracts.SessionAfterhours,
			adjusted: 71.5 * 0.85,
			tier:     contracts.TierSilver,
		},
		{
			name: "stacked in sequence",
			mutate: func(c *contracts.CandidateSignal) {
				c.Modules["dilution_detector"] = sig("NVDA", nil, map[string]interface{}{"risk_level": "CRITICAL"})
				c.Modules["squeeze_potential"] = sig("NVDA", nil, map[string]interface{}{"squeeze_potential": "HIGH"})
			},
			session:  contracts.SessionAfterhours,
			adjusted: 71.5 * 0.7 * 1.2 * 0.85,
			tier:     contracts.TierSilver,
		},
	}

	s := NewScorer(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := workedCandidate()
			if tt.mutate != nil {
				tt.mutate(c)
			}
			res := s.Evaluate(c, nil, tt.session)
			assert.InDelta(t, 71.5, res.Raw, eps)
			assert.InDelta(t, tt.adjusted, res.Adjusted, eps)
			assert.Equal(t, tt.tier, res.Tier)
		})
	}
}

func TestScore_AdjustedClamped(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := contracts.NewCandidate("id", "Z", time.Time{})
	for _, m := range []string{"obv_vwap", "float_churn", "pattern_scorer", "sentiment_analyzer"} {
		c.Modules[m] = sig("Z", contracts.Score(100), nil)
	}
	c.Modules["risk"] = sig("Z", nil, map[string]interface{}{"overall_risk": 0.0})
	c.Modules["squeeze_potential"] = sig("Z", nil, map[string]interface{}{"squeeze_potential": "EXTREME"})

	res := s.Evaluate(c, nil, contracts.SessionRegular)
	assert.InDelta(t, 100, res.Raw, eps)
	assert.Equal(t, 100.0, res.Adjusted)
	assert.Equal(t, contracts.TierPlatinum, res.Tier)
}

func TestTierThresholds(t *testing.T) {
	th := DefaultConfig().Thresholds

	tests := []struct {
		conf float64
		want contracts.Tier
	}{
		{100, contracts.TierPlatinum},
		{85, contracts.TierPlatinum},
		{84.99, contracts.TierGold},
		{70, contracts.TierGold},
		{50, contracts.TierSilver},
		{30, contracts.TierBronze},
		{29.99, contracts.TierUnranked},
		{0, contracts.TierUnranked},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Tier(tt.conf), "conf=%v", tt.conf)
	}

	prev := th.Tier(0).Rank()
	for conf := 0.0; conf <= 100; conf += 0.25 {
		r := th.Tier(conf).Rank()
		assert.GreaterOrEqual(t, r, prev, "tier must not drop as confidence rises (conf=%v)", conf)
		prev = r
	}
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "NEGATIVE", categoryLabel(CategoryMomentum, 39.9))
	assert.Equal(t, "WEAK", categoryLabel(CategoryMomentum, 40))
	assert.Equal(t, "EXCEPTIONAL", categoryLabel(CategoryVolume, 75))
	assert.Equal(t, "NEUTRAL_BULLISH", categoryLabel(CategoryTechnical, 50))
	assert.Equal(t, "POSITIVE", categoryLabel(CategorySentiment, 60))
	assert.Equal(t, "HIGH_RISK", categoryLabel(CategoryRisk, 10))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Thresholds.Gold = 90
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Weights = CategoryWeights{}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ExcludeMissing = []string{"astrology"}
	assert.Error(t, cfg.Validate())
}

func TestCalibrator(t *testing.T) {
	cal := NewCalibrator(DefaultCalibration())

	tests := []struct {
		tier     contracts.Tier
		adjusted float64
		want     float64
	}{
		{contracts.TierPlatinum, 90, 85.5},
		{contracts.TierGold, 71.5, 60.775},
		{contracts.TierSilver, 60, 45},
		{contracts.TierBronze, 40, 26},
		{contracts.TierUnranked, 10, 7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, cal.Calibrate(tt.adjusted, tt.tier), eps, string(tt.tier))
	}

	over := NewCalibrator(CalibrationFactors{Platinum: 2})
	assert.Equal(t, 100.0, over.Calibrate(90, contracts.TierPlatinum))
}

func TestCalibrator_ApplyKeepsAdjusted(t *testing.T) {
	cal := NewCalibrator(DefaultCalibration())

	c := contracts.NewCandidate("id", "A", time.Time{})
	c.AdjustedConfidence = 90
	c.InitialTier = contracts.TierPlatinum
	c.Tier = contracts.TierGold

	cal.Apply([]*contracts.CandidateSignal{c})
	assert.InDelta(t, 90*0.85, c.CalibratedConfidence, eps)
	assert.Equal(t, 90.0, c.AdjustedConfidence)
}
