package modules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/risk"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// 모듈 이름
const (
	NameOBVVWAP    = "obv_vwap"
	NameFloatChurn = "float_churn"
	NamePattern    = "pattern_scorer"
	NameSentiment  = "sentiment_analyzer"
	NameDilution   = "dilution_detector"
	NameSqueeze    = "squeeze_potential"
	NameOrderbook  = "orderbook_imbalance"
	NameRisk       = "risk"
)

// ErrUnknownModule is returned for a configured name with no implementation
var ErrUnknownModule = errors.New("unknown module")

// Names returns every known module in registry order
// ⭐ SSOT: 레지스트리 순서 = Aggregator 소비 순서
func Names() []string {
	return []string{
		NameOBVVWAP,
		NameFloatChurn,
		NamePattern,
		NameSentiment,
		NameDilution,
		NameSqueeze,
		NameOrderbook,
		NameRisk,
	}
}

// Spec is one module's configuration entry
type Spec struct {
	Enabled bool                   `yaml:"enabled" json:"enabled"`
	Params  map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// DefaultSpecs enables every known module with default params
func DefaultSpecs() map[string]Spec {
	specs := make(map[string]Spec)
	for _, n := range Names() {
		specs[n] = Spec{Enabled: true}
	}
	return specs
}

// Deps are collaborators some modules need
type Deps struct {
	Risk      *risk.Engine
	Portfolio contracts.PortfolioProvider
	Logger    *logger.Logger
}

type factory func(params map[string]interface{}, deps Deps) (Module, error)

var factories = map[string]factory{
	NameOBVVWAP:    newOBVVWAP,
	NameFloatChurn: newFloatChurn,
	NamePattern:    newPatternScorer,
	NameSentiment:  newSentiment,
	NameDilution:   newDilution,
	NameSqueeze:    newSqueeze,
	NameOrderbook:  newOrderbook,
	NameRisk:       newRiskModule,
}

// Registry holds enabled modules in registry order
type Registry struct {
	modules []Module
	byName  map[string]Module
}

// Build instantiates enabled modules from specs
func Build(specs map[string]Spec, deps Deps) (*Registry, error) {
	if err := CheckNames(specs); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	r := &Registry{byName: make(map[string]Module)}
	for _, name := range Names() {
		spec, ok := specs[name]
		if !ok || !spec.Enabled {
			continue
		}
		m, err := factories[name](spec.Params, deps)
		if err != nil {
			return nil, fmt.Errorf("build module %s: %w", name, err)
		}
		r.Add(m)
	}
	return r, nil
}

// CheckNames rejects configured names with no implementation
func CheckNames(specs map[string]Spec) error {
	var unknown []string
	for name := range specs {
		if _, ok := factories[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownModule, strings.Join(unknown, ", "))
	}
	return nil
}

// NewRegistry wraps explicit modules (tests, custom wiring)
func NewRegistry(mods ...Module) *Registry {
	r := &Registry{byName: make(map[string]Module)}
	for _, m := range mods {
		r.Add(m)
	}
	return r
}

// Add appends m, replacing any module with the same name in place
func (r *Registry) Add(m Module) {
	if _, exists := r.byName[m.Name()]; exists {
		for i, existing := range r.modules {
			if existing.Name() == m.Name() {
				r.modules[i] = m
			}
		}
	} else {
		r.modules = append(r.modules, m)
	}
	r.byName[m.Name()] = m
}

// Modules returns modules in registry order
func (r *Registry) Modules() []Module {
	return append([]Module(nil), r.modules...)
}

// Names returns enabled module names in registry order
func (r *Registry) Names() []string {
	names := make([]string, len(r.modules))
	for i, m := range r.modules {
		names[i] = m.Name()
	}
	return names
}

// Get looks up a module by name
func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Len returns the number of enabled modules
func (r *Registry) Len() int {
	return len(r.modules)
}
