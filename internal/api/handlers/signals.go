package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/data/repos"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// SignalStore is the persisted signal history
type SignalStore interface {
	Recent(ctx context.Context, limit int) ([]*contracts.CandidateSignal, error)
	BySymbol(ctx context.Context, symbol string, limit int) ([]*contracts.CandidateSignal, error)
	TickSummary(ctx context.Context, tickID string) (*repos.TickSummary, error)
}

// SignalHandler serves signal history
// store가 nil이면 마지막 틱 결과로 응답
type SignalHandler struct {
	store    SignalStore
	pipeline Pipeline
	logger   *logger.Logger
}

// NewSignalHandler creates a new signal handler; store may be nil
func NewSignalHandler(store SignalStore, p Pipeline, log *logger.Logger) *SignalHandler {
	return &SignalHandler{store: store, pipeline: p, logger: log}
}

// List returns recent signals
// GET /api/signals?limit=50&symbol=SOFI
func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := repos.ClampLimit(queryLimit(r, repos.DefaultLimit))
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))

	if h.store == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"source":  "latest_tick",
			"signals": h.fromLastTick(symbol, limit),
		})
		return
	}

	var (
		signals []*contracts.CandidateSignal
		err     error
	)
	if symbol != "" {
		signals, err = h.store.BySymbol(ctx, symbol, limit)
	} else {
		signals, err = h.store.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get signals")
		respondError(w, http.StatusInternalServerError, "failed to get signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"source":  "database",
		"signals": signals,
	})
}

func (h *SignalHandler) fromLastTick(symbol string, limit int) []*contracts.CandidateSignal {
	out := make([]*contracts.CandidateSignal, 0)
	last := h.pipeline.LastTick()
	if last == nil {
		return out
	}
	for _, s := range last.Signals {
		if symbol != "" && s.Symbol != symbol {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// TickSummary returns one stored tick
// GET /api/ticks/{id}
func (h *SignalHandler) TickSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if h.store == nil {
		if last := h.pipeline.LastTick(); last != nil && last.TickID == id {
			respondJSON(w, http.StatusOK, last)
			return
		}
		respondError(w, http.StatusNotFound, "tick not found")
		return
	}

	summary, err := h.store.TickSummary(r.Context(), id)
	if errors.Is(err, repos.ErrNotFound) {
		respondError(w, http.StatusNotFound, "tick not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("tick_id", id).Error("Failed to get tick")
		respondError(w, http.StatusInternalServerError, "failed to get tick")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
