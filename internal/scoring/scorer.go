package scoring

import (
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// =============================================================================
// Confidence Scorer
// =============================================================================

// Result 한 후보의 스코어링 결과
type Result struct {
	Raw       float64
	Adjusted  float64
	Tier      contracts.Tier
	Breakdown *contracts.ScoreBreakdown
}

// Scorer 카테고리 점수 → raw/adjusted confidence → 티어
// ⭐ SSOT: 티어 결정은 이 구조체에서만 (Gatekeeper는 PLATINUM → GOLD 강등만)
type Scorer struct {
	cfg      Config
	excluded map[string]bool
}

// NewScorer 새 스코어러 생성
func NewScorer(cfg Config) *Scorer {
	excluded := make(map[string]bool, len(cfg.ExcludeMissing))
	for _, c := range cfg.ExcludeMissing {
		excluded[c] = true
	}
	return &Scorer{cfg: cfg, excluded: excluded}
}

// Config returns the scorer configuration
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score evaluates c and writes confidences, tiers and breakdown onto it
func (s *Scorer) Score(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, session contracts.Session) Result {
	res := s.Evaluate(c, outputs, session)

	c.Session = session
	c.RawConfidence = res.Raw
	c.AdjustedConfidence = res.Adjusted
	c.InitialTier = res.Tier
	c.Tier = res.Tier
	c.Breakdown = res.Breakdown

	return res
}

// Evaluate computes the result without touching c
func (s *Scorer) Evaluate(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, session contracts.Session) Result {
	categories := s.categoryScores(c, outputs)
	raw := s.rawConfidence(categories)
	adjusted, notes := s.adjust(raw, c, outputs, session)

	return Result{
		Raw:      raw,
		Adjusted: adjusted,
		Tier:     s.cfg.Thresholds.Tier(adjusted),
		Breakdown: &contracts.ScoreBreakdown{
			Categories:  categories,
			Adjustments: notes,
			Factors:     confidenceFactors(categories),
		},
	}
}

// TierFor exposes the tier mapping for adjusted confidence
func (s *Scorer) TierFor(adjusted float64) contracts.Tier {
	return s.cfg.Thresholds.Tier(adjusted)
}

// =============================================================================
// Category scores
// =============================================================================

// lookup prefers the candidate's own module map, then the tick outputs
func lookup(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, module string) (contracts.RawSignal, bool) {
	if module == "" {
		return contracts.RawSignal{}, false
	}
	if sig, ok := c.Modules[module]; ok {
		return sig, true
	}
	return outputs.Signal(module, c.Symbol)
}

func (s *Scorer) categoryScores(c *contracts.CandidateSignal, outputs contracts.ModuleOutputs) []contracts.CategoryScore {
	out := make([]contracts.CategoryScore, 0, 5)

	for _, cat := range Categories() {
		module := s.cfg.CategoryModules.For(cat)
		sig, found := lookup(c, outputs, module)

		score, present := 0.0, false
		switch cat {
		case CategoryMomentum:
			if found {
				if v, ok := sig.MetaFloat("momentum_score"); ok {
					score, present = v, true
				} else if sig.HasScore() {
					score, present = sig.ScoreValue(), true
				}
			}
		case CategoryRisk:
			if found {
				if v, ok := sig.MetaFloat("overall_risk"); ok {
					score, present = 100-v, true
				}
			}
			if !present {
				score = s.cfg.NeutralRisk
			}
		default:
			if found && sig.HasScore() {
				score, present = sig.ScoreValue(), true
			}
		}

		out = append(out, contracts.CategoryScore{
			Category: cat,
			Module:   module,
			Score:    clamp(score, 0, 100),
			Weight:   s.cfg.Weights.For(cat),
			Present:  present,
			Label:    categoryLabel(cat, score),
		})
	}

	return out
}

// rawConfidence Σ wᵢsᵢ / Σ wᵢ, exclude_missing 카테고리는 양쪽에서 제외
func (s *Scorer) rawConfidence(categories []contracts.CategoryScore) float64 {
	var sum, weights float64
	for _, c := range categories {
		if c.Weight <= 0 {
			continue
		}
		if !c.Present && s.excluded[c.Category] {
			continue
		}
		sum += c.Score * c.Weight
		weights += c.Weight
	}
	if weights <= 0 {
		return 0
	}
	return clamp(sum/weights, 0, 100)
}

// =============================================================================
// Adjustments
// =============================================================================

func (s *Scorer) adjust(raw float64, c *contracts.CandidateSignal, outputs contracts.ModuleOutputs, session contracts.Session) (float64, []string) {
	a := s.cfg.Adjustments
	adjusted := raw
	var notes []string

	if sig, ok := lookup(c, outputs, a.DilutionModule); ok {
		if level := sig.MetaString("risk_level"); level == "HIGH" || level == "CRITICAL" {
			adjusted *= a.DilutionPenalty
			notes = append(notes, fmt.Sprintf("dilution_%s x%.2f", level, a.DilutionPenalty))
		}
	}

	if sig, ok := lookup(c, outputs, a.SqueezeModule); ok {
		if p := sig.MetaString("squeeze_potential"); p == "HIGH" || p == "EXTREME" {
			adjusted *= a.SqueezeBonus
			notes = append(notes, fmt.Sprintf("squeeze_%s x%.2f", p, a.SqueezeBonus))
		}
	}

	switch session {
	case contracts.SessionPremarket:
		adjusted *= a.PremarketFactor
		notes = append(notes, fmt.Sprintf("premarket x%.2f", a.PremarketFactor))
	case contracts.SessionAfterhours:
		adjusted *= a.AfterhoursFactor
		notes = append(notes, fmt.Sprintf("afterhours x%.2f", a.AfterhoursFactor))
	}

	return clamp(adjusted, 0, 100), notes
}

// =============================================================================
// Labels & factors
// =============================================================================

type labelBand struct {
	min   float64
	label string
}

var categoryBands = map[string][]labelBand{
	CategoryMomentum:  {{80, "STRONG"}, {60, "MODERATE"}, {40, "WEAK"}, {0, "NEGATIVE"}},
	CategoryVolume:    {{75, "EXCEPTIONAL"}, {50, "GOOD"}, {25, "FAIR"}, {0, "POOR"}},
	CategoryTechnical: {{75, "BULLISH"}, {50, "NEUTRAL_BULLISH"}, {25, "NEUTRAL"}, {0, "BEARISH"}},
	CategorySentiment: {{80, "VERY_POSITIVE"}, {60, "POSITIVE"}, {40, "NEUTRAL"}, {0, "NEGATIVE"}},
	CategoryRisk:      {{80, "VERY_LOW_RISK"}, {60, "LOW_RISK"}, {40, "MODERATE_RISK"}, {0, "HIGH_RISK"}},
}

func categoryLabel(category string, score float64) string {
	bands := categoryBands[category]
	for _, b := range bands[:len(bands)-1] {
		if score >= b.min {
			return b.label
		}
	}
	return bands[len(bands)-1].label
}

var factorBars = []struct {
	category string
	min      float64
	factor   string
}{
	{CategoryMomentum, 70, "STRONG_MOMENTUM"},
	{CategoryVolume, 60, "HIGH_VOLUME"},
	{CategoryTechnical, 65, "BULLISH_TECHNICALS"},
	{CategorySentiment, 70, "POSITIVE_SENTIMENT"},
	{CategoryRisk, 75, "LOW_RISK"},
}

func confidenceFactors(categories []contracts.CategoryScore) []string {
	byName := make(map[string]float64, len(categories))
	for _, c := range categories {
		byName[c.Category] = c.Score
	}
	var factors []string
	for _, f := range factorBars {
		if byName[f.category] >= f.min {
			factors = append(factors, f.factor)
		}
	}
	return factors
}
