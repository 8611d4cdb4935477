package handlers

import (
	"context"
	"net/http"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/portfolio"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// PortfolioStore is the mutable portfolio provider
type PortfolioStore interface {
	Portfolio(ctx context.Context) (contracts.PortfolioState, error)
	Set(ctx context.Context, state contracts.PortfolioState) error
}

// PortfolioHandler reads and replaces the portfolio used by risk assessment
type PortfolioHandler struct {
	store       PortfolioStore
	constraints portfolio.Constraints
	logger      *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(store PortfolioStore, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{store: store, constraints: portfolio.DefaultConstraints(), logger: log}
}

// Get returns the portfolio with weights and breaches
// GET /api/portfolio
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Portfolio(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get portfolio")
		respondError(w, http.StatusInternalServerError, "failed to get portfolio")
		return
	}
	respondJSON(w, http.StatusOK, h.constraints.Summarize(state))
}

// Put replaces the portfolio
// PUT /api/portfolio
func (h *PortfolioHandler) Put(w http.ResponseWriter, r *http.Request) {
	var state contracts.PortfolioState
	if err := decodeJSON(r, &state); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Set(r.Context(), state); err != nil {
		respondValidation(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"positions":   len(state.Positions),
		"total_value": state.TotalValue,
	}).Info("Portfolio replaced via API")

	respondJSON(w, http.StatusOK, h.constraints.Summarize(state))
}
