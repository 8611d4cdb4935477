package aggregator

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Aggregator 모듈 출력 → 종목별 후보 시그널
// ⭐ SSOT: 후보 생성은 여기서만 (이후 단계는 필드 채우기만)
type Aggregator struct {
	newID func() string
}

// New creates an aggregator that assigns uuid candidate ids
func New() *Aggregator {
	return &Aggregator{newID: uuid.NewString}
}

// Aggregate fuses module outputs in order into candidates sorted by AggregateScore desc
// order는 레지스트리 순서, 완료 순서와 무관하게 결과가 결정적
func (a *Aggregator) Aggregate(outputs contracts.ModuleOutputs, order []string, at time.Time) []*contracts.CandidateSignal {
	bySymbol := make(map[string]*contracts.CandidateSignal)
	candidates := make([]*contracts.CandidateSignal, 0)

	for _, module := range order {
		out, ok := outputs[module]
		if !ok || out == nil {
			continue
		}

		for _, sig := range out.Signals {
			if sig.Symbol == "" {
				continue
			}

			c, exists := bySymbol[sig.Symbol]
			if !exists {
				c = contracts.NewCandidate(a.newID(), sig.Symbol, at)
				bySymbol[sig.Symbol] = c
				candidates = append(candidates, c)
			}

			// 같은 모듈이 같은 종목을 두 번 보고하면 첫 번째만 유지
			if _, dup := c.Modules[module]; dup {
				continue
			}
			c.Modules[module] = sig
			c.ModuleOrder = append(c.ModuleOrder, module)
		}
	}

	for _, c := range candidates {
		c.AggregateScore = meanScore(c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AggregateScore > candidates[j].AggregateScore
	})

	return candidates
}

// meanScore 점수를 보고한 모듈의 평균, 없으면 0
func meanScore(c *contracts.CandidateSignal) float64 {
	sum, n := 0.0, 0
	for _, module := range c.ModuleOrder {
		if s := c.Modules[module]; s.HasScore() {
			sum += s.ScoreValue()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
