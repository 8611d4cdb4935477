package modules

import (
	"context"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// Sentiment 뉴스/소셜 감성 점수
// 언급 또는 뉴스가 있는 종목만 시그널
type Sentiment struct {
	p SentimentParams
}

func newSentiment(raw map[string]interface{}, _ Deps) (Module, error) {
	m := &Sentiment{}
	if err := decodeParams(NameSentiment, raw, &m.p); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the module name
func (m *Sentiment) Name() string { return NameSentiment }

// Execute scores quotes with attention data
func (m *Sentiment) Execute(ctx context.Context, snap *contracts.MarketSnapshot) (*contracts.ModuleOutput, error) {
	out := newOutput(NameSentiment, snap)
	var bullish, bearish int
	var sentiments []float64

	for _, sym := range snap.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := snap.Quote(sym)
		if q == nil || (q.Mentions <= 0 && q.NewsCount <= 0) {
			continue
		}

		s := clamp(q.Sentiment, -1, 1)
		sentiments = append(sentiments, s)
		if s > 0 {
			bullish += q.Mentions
		} else if s < 0 {
			bearish += q.Mentions
		}

		score := 50 + 50*s
		recentNews := q.NewsCount > 0
		socialBuzz := q.Mentions >= m.p.BuzzMentions
		if recentNews {
			score *= m.p.NewsBoost
		}
		if socialBuzz {
			score *= m.p.BuzzBoost
		}

		out.Signals = append(out.Signals, contracts.RawSignal{
			Symbol: sym,
			Score:  contracts.Score(round(clamp(score, 0, 100), 2)),
			Metadata: map[string]interface{}{
				"sentiment":   s,
				"mentions":    q.Mentions,
				"news_count":  q.NewsCount,
				"recent_news": recentNews,
				"social_buzz": socialBuzz,
			},
		})
	}

	out.Metrics["sentiment_score"] = round((mean(sentiments)+1)/2, 3)
	out.Metrics["bullish_mentions"] = bullish
	out.Metrics["bearish_mentions"] = bearish
	return out, nil
}
