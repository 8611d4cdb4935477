package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stealth"

// Prometheus implements Sink with pre-registered collectors.
// Unknown names and label-count mismatches are dropped instead of panicking.
type Prometheus struct {
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheus registers all pipeline collectors on reg
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}
	histogram := func(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
		return f.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
	}

	return &Prometheus{
		counters: map[string]*prometheus.CounterVec{
			ModuleExecutions: counter(ModuleExecutions, "Analysis module executions by outcome", "module", "status"),
			SignalsEmitted:   counter(SignalsEmitted, "Signals emitted per tier", "tier"),
			Rejections:       counter(Rejections, "Candidates dropped from a tick by reason", "reason"),
			GateChecks:       counter(GateChecks, "Platinum gate check results", "check", "result"),
			GateDowngrades:   counter(GateDowngrades, "Platinum candidates downgraded to gold"),
			TicksTotal:       counter(TicksTotal, "Completed ticks by status", "status"),
			PublishedSignals: counter(PublishedSignals, "Signals handed to downstream sinks", "sink", "result"),
		},
		histograms: map[string]*prometheus.HistogramVec{
			ModuleDuration: histogram(ModuleDuration, "Analysis module latency", prometheus.DefBuckets, "module"),
			TickDuration:   histogram(TickDuration, "End-to-end tick latency", []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}),
		},
		gauges: map[string]*prometheus.GaugeVec{
			CooldownsActive: f.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: CooldownsActive, Help: "Live cooldown entries"}, nil),
		},
	}
}

func (p *Prometheus) IncCounter(name string, labelValues ...string) {
	vec, ok := p.counters[name]
	if !ok {
		return
	}
	if c, err := vec.GetMetricWithLabelValues(labelValues...); err == nil {
		c.Inc()
	}
}

func (p *Prometheus) ObserveHistogram(name string, value float64, labelValues ...string) {
	vec, ok := p.histograms[name]
	if !ok {
		return
	}
	if h, err := vec.GetMetricWithLabelValues(labelValues...); err == nil {
		h.Observe(value)
	}
}

func (p *Prometheus) SetGauge(name string, value float64, labelValues ...string) {
	vec, ok := p.gauges[name]
	if !ok {
		return
	}
	if g, err := vec.GetMetricWithLabelValues(labelValues...); err == nil {
		g.Set(value)
	}
}
