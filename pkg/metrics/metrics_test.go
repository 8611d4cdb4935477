package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMemorySink(t *testing.T) {
	m := NewMemory()

	m.IncCounter(ModuleExecutions, "obv_vwap", "success")
	m.IncCounter(ModuleExecutions, "obv_vwap", "success")
	m.IncCounter(ModuleExecutions, "dilution_detector", "fallback")
	m.ObserveHistogram(TickDuration, 0.25)
	m.SetGauge(CooldownsActive, 4)

	assert.Equal(t, 2.0, m.Counter(ModuleExecutions, "obv_vwap", "success"))
	assert.Equal(t, 1.0, m.Counter(ModuleExecutions, "dilution_detector", "fallback"))
	assert.Equal(t, 0.0, m.Counter(ModuleExecutions, "missing", "success"))
	assert.Equal(t, []float64{0.25}, m.Observations(TickDuration))
	assert.Equal(t, 4.0, m.Gauge(CooldownsActive))
	assert.Equal(t, []string{
		"module_executions_total{dilution_detector,fallback}",
		"module_executions_total{obv_vwap,success}",
	}, m.CounterKeys())
}

func TestMemorySinkConcurrent(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncCounter(Rejections, "cooldown")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50.0, m.Counter(Rejections, "cooldown"))
}

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncCounter(ModuleExecutions, "float_churn", "success")
	p.IncCounter(GateDowngrades)
	p.ObserveHistogram(ModuleDuration, 0.01, "float_churn")
	p.SetGauge(CooldownsActive, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.counters[ModuleExecutions].WithLabelValues("float_churn", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.counters[GateDowngrades].WithLabelValues()))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.gauges[CooldownsActive].WithLabelValues()))
	assert.Equal(t, 1, testutil.CollectAndCount(p.histograms[ModuleDuration]))
}

func TestPrometheusSinkIgnoresBadInput(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())

	assert.NotPanics(t, func() {
		p.IncCounter("unknown_total", "x")
		p.IncCounter(ModuleExecutions, "only-one-label")
		p.ObserveHistogram(TickDuration, 1, "unexpected")
		p.SetGauge("unknown_gauge", 1)
	})
}

func TestMultiAndNop(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	sink := Multi{a, b, Nop{}}

	sink.IncCounter(SignalsEmitted, "GOLD")
	sink.SetGauge(CooldownsActive, 2)
	sink.ObserveHistogram(TickDuration, 1.5)

	for _, m := range []*Memory{a, b} {
		assert.Equal(t, 1.0, m.Counter(SignalsEmitted, "GOLD"))
		assert.Equal(t, 2.0, m.Gauge(CooldownsActive))
		assert.Len(t, m.Observations(TickDuration), 1)
	}
}
