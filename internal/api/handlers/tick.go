package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/brain"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// TickTimeout bounds an API-triggered tick
const TickTimeout = 2 * time.Minute

// Pipeline is the orchestrator surface the API uses
type Pipeline interface {
	RunTick(ctx context.Context, req brain.TickRequest) *contracts.TickResult
	LastTick() *contracts.TickResult
	Status() brain.MetricsSnapshot
}

// TickHandler handles tick endpoints
// ⭐ SSOT: 틱 API 핸들러는 이 구조체에서만
type TickHandler struct {
	pipeline Pipeline
	logger   *logger.Logger
}

// NewTickHandler creates a new tick handler
func NewTickHandler(p Pipeline, log *logger.Logger) *TickHandler {
	return &TickHandler{pipeline: p, logger: log}
}

// RunTick runs one tick synchronously
// POST /api/ticks {"symbols":[...],"session":"premarket"}
func (h *TickHandler) RunTick(w http.ResponseWriter, r *http.Request) {
	var req brain.TickRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(r.Context(), &req); err != nil {
		respondValidation(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"symbols": len(req.Symbols),
		"session": req.Session,
	}).Info("Tick triggered via API")

	// 클라이언트 연결 종료와 무관하게 틱 완료 (쿨다운/싱크 일관성)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), TickTimeout)
	defer cancel()

	respondJSON(w, http.StatusOK, h.pipeline.RunTick(ctx, req))
}

// Latest returns the most recent tick
// GET /api/ticks/latest
func (h *TickHandler) Latest(w http.ResponseWriter, r *http.Request) {
	last := h.pipeline.LastTick()
	if last == nil {
		respondError(w, http.StatusNotFound, "no tick has run yet")
		return
	}
	respondJSON(w, http.StatusOK, last)
}

// Status returns orchestrator counters
// GET /api/status
func (h *TickHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.pipeline.Status())
}
