package modules

import (
	"math"
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

func newOutput(name string, snap *contracts.MarketSnapshot) *contracts.ModuleOutput {
	at := time.Now()
	if snap != nil && !snap.Timestamp.IsZero() {
		at = snap.Timestamp
	}
	return &contracts.ModuleOutput{
		Module:    name,
		Signals:   make([]contracts.RawSignal, 0),
		Metrics:   make(map[string]interface{}),
		Timestamp: at,
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// band returns the first label whose floor is <= v
func band(v float64, floors []float64, labels []string) string {
	for i, f := range floors {
		if v >= f {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}
