package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/cooldown"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// CooldownHandler lists and clears cooldowns
type CooldownHandler struct {
	registry *cooldown.Registry
	logger   *logger.Logger
}

// NewCooldownHandler creates a new cooldown handler
func NewCooldownHandler(reg *cooldown.Registry, log *logger.Logger) *CooldownHandler {
	return &CooldownHandler{registry: reg, logger: log}
}

// List returns live cooldowns
// GET /api/cooldowns
func (h *CooldownHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.Entries()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(entries),
		"cooldowns": entries,
	})
}

// Clear removes one symbol's cooldown
// DELETE /api/cooldowns/{symbol}
func (h *CooldownHandler) Clear(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	if !h.registry.Clear(symbol) {
		respondError(w, http.StatusNotFound, "no active cooldown for "+symbol)
		return
	}

	h.logger.WithField("symbol", symbol).Info("Cooldown cleared via API")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"cleared": true,
	})
}
