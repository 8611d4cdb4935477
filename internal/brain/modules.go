package brain

import (
	"errors"
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
)

// Module status labels
const (
	ModuleOK       = "ok"
	ModuleFailed   = "error"
	ModuleDisabled = "disabled"
	ModuleNotRun   = "not_run"
)

// ErrModuleControlUnavailable is returned when the orchestrator was wired
// with a fixed registry instead of module specs
var ErrModuleControlUnavailable = errors.New("module control unavailable")

// ModuleInfo is one module's configuration and last-tick outcome
type ModuleInfo struct {
	Name    string                 `json:"name"`
	Enabled bool                   `json:"enabled"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  string                 `json:"status"`
	Error   string                 `json:"error,omitempty"`
}

// ModuleStatus lists every module in registry order with its last-tick status
func (o *Orchestrator) ModuleStatus() []ModuleInfo {
	o.regMu.RLock()
	registry, specs := o.registry, o.specs
	o.regMu.RUnlock()

	names := registry.Names()
	if specs != nil {
		names = modules.Names()
	}

	last := o.LastTick()
	infos := make([]ModuleInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, moduleInfo(name, registry, specs, last))
	}
	return infos
}

// ToggleModule flips a module's enabled flag and rebuilds the registry.
// A tick already running keeps the registry it started with.
func (o *Orchestrator) ToggleModule(name string) (ModuleInfo, error) {
	if err := modules.CheckNames(map[string]modules.Spec{name: {}}); err != nil {
		return ModuleInfo{}, err
	}

	o.regMu.Lock()
	if o.specs == nil {
		o.regMu.Unlock()
		return ModuleInfo{}, ErrModuleControlUnavailable
	}

	next := copySpecs(o.specs)
	spec := next[name]
	spec.Enabled = !spec.Enabled
	next[name] = spec

	registry, err := modules.Build(next, o.c.ModuleDeps)
	if err != nil {
		o.regMu.Unlock()
		return ModuleInfo{}, fmt.Errorf("rebuild modules: %w", err)
	}
	o.registry, o.specs = registry, next
	o.regMu.Unlock()

	o.logger.WithFields(map[string]interface{}{
		"module":  name,
		"enabled": spec.Enabled,
		"loaded":  registry.Len(),
	}).Info("Module toggled")

	return moduleInfo(name, registry, next, o.LastTick()), nil
}

func moduleInfo(name string, registry *modules.Registry, specs map[string]modules.Spec, last *contracts.TickResult) ModuleInfo {
	info := ModuleInfo{Name: name}
	if spec, ok := specs[name]; ok {
		info.Enabled = spec.Enabled
		info.Params = spec.Params
	} else if specs == nil {
		_, info.Enabled = registry.Get(name)
	}

	switch {
	case !info.Enabled:
		info.Status = ModuleDisabled
	case last == nil:
		info.Status = ModuleNotRun
	default:
		info.Status = ModuleOK
		if e, failed := last.ErrorFor(name); failed {
			info.Status = ModuleFailed
			info.Error = e.Error
		}
	}
	return info
}

func copySpecs(specs map[string]modules.Spec) map[string]modules.Spec {
	if specs == nil {
		return nil
	}
	out := make(map[string]modules.Spec, len(specs))
	for k, v := range specs {
		out[k] = v
	}
	return out
}
