// Package metrics defines the counter/histogram sink injected into the
// scan pipeline, with a Prometheus recorder and an in-memory recorder.
package metrics

import (
	"sort"
	"strings"
	"sync"
)

// Metric names understood by every sink
const (
	ModuleExecutions = "module_executions_total" // labels: module, status
	ModuleDuration   = "module_duration_seconds" // labels: module
	SignalsEmitted   = "signals_total"           // labels: tier
	Rejections       = "rejections_total"        // labels: reason
	GateChecks       = "gate_checks_total"       // labels: check, result
	GateDowngrades   = "gate_downgrades_total"   // no labels
	TicksTotal       = "ticks_total"             // labels: status
	TickDuration     = "tick_duration_seconds"   // no labels
	CooldownsActive  = "cooldowns_active"        // gauge, no labels
	PublishedSignals = "published_signals_total" // labels: sink, result
)

// Sink receives pipeline metrics. Label values are positional and must
// match the label schema of the named metric.
type Sink interface {
	IncCounter(name string, labelValues ...string)
	ObserveHistogram(name string, value float64, labelValues ...string)
	SetGauge(name string, value float64, labelValues ...string)
}

// Nop discards all metrics
type Nop struct{}

func (Nop) IncCounter(string, ...string)                {}
func (Nop) ObserveHistogram(string, float64, ...string) {}
func (Nop) SetGauge(string, float64, ...string)         {}

// Memory records metrics in process; used by tests and the status endpoint
type Memory struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	gauges     map[string]float64
}

// NewMemory creates an empty in-memory sink
func NewMemory() *Memory {
	return &Memory{
		counters:   make(map[string]float64),
		histograms: make(map[string][]float64),
		gauges:     make(map[string]float64),
	}
}

// Key joins a metric name with its label values: name{a,b}
func Key(name string, labelValues ...string) string {
	if len(labelValues) == 0 {
		return name
	}
	return name + "{" + strings.Join(labelValues, ",") + "}"
}

func (m *Memory) IncCounter(name string, labelValues ...string) {
	m.mu.Lock()
	m.counters[Key(name, labelValues...)]++
	m.mu.Unlock()
}

func (m *Memory) ObserveHistogram(name string, value float64, labelValues ...string) {
	m.mu.Lock()
	k := Key(name, labelValues...)
	m.histograms[k] = append(m.histograms[k], value)
	m.mu.Unlock()
}

func (m *Memory) SetGauge(name string, value float64, labelValues ...string) {
	m.mu.Lock()
	m.gauges[Key(name, labelValues...)] = value
	m.mu.Unlock()
}

// Counter returns the current counter value
func (m *Memory) Counter(name string, labelValues ...string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[Key(name, labelValues...)]
}

// Observations returns a copy of the recorded histogram samples
func (m *Memory) Observations(name string, labelValues ...string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.histograms[Key(name, labelValues...)]...)
}

// Gauge returns the current gauge value
func (m *Memory) Gauge(name string, labelValues ...string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[Key(name, labelValues...)]
}

// CounterKeys lists recorded counter keys in sorted order
func (m *Memory) CounterKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.counters))
	for k := range m.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Multi fans out to several sinks
type Multi []Sink

func (ms Multi) IncCounter(name string, labelValues ...string) {
	for _, s := range ms {
		s.IncCounter(name, labelValues...)
	}
}

func (ms Multi) ObserveHistogram(name string, value float64, labelValues ...string) {
	for _, s := range ms {
		s.ObserveHistogram(name, value, labelValues...)
	}
}

func (ms Multi) SetGauge(name string, value float64, labelValues ...string) {
	for _, s := range ms {
		s.SetGauge(name, value, labelValues...)
	}
}
