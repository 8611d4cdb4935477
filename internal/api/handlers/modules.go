package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/brain"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/modules"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// ModuleController is the orchestrator surface for runtime module control
type ModuleController interface {
	ModuleStatus() []brain.ModuleInfo
	ToggleModule(name string) (brain.ModuleInfo, error)
}

// ModuleHandler lists and toggles analysis modules
type ModuleHandler struct {
	ctrl   ModuleController
	logger *logger.Logger
}

// NewModuleHandler creates a new module handler
func NewModuleHandler(c ModuleController, log *logger.Logger) *ModuleHandler {
	return &ModuleHandler{ctrl: c, logger: log}
}

// List returns every module with its last-tick status
// GET /api/modules
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	mods := h.ctrl.ModuleStatus()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(mods),
		"modules": mods,
	})
}

// Toggle flips a module on or off; the next tick uses the new set
// POST /api/modules/{name}/toggle
func (h *ModuleHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	info, err := h.ctrl.ToggleModule(name)
	switch {
	case errors.Is(err, modules.ErrUnknownModule):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, brain.ErrModuleControlUnavailable):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"module":  name,
		"enabled": info.Enabled,
	}).Info("Module toggled via API")
	respondJSON(w, http.StatusOK, info)
}
