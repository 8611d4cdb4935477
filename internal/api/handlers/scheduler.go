package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/scheduler"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// JobRunner is the scheduler surface the API uses
type JobRunner interface {
	GetJobStats() []scheduler.JobStats
	RunNow(ctx context.Context, name string) (scheduler.JobResult, error)
	PauseJob(name string) error
	ResumeJob(name string) error
}

// SchedulerHandler lists and triggers jobs
type SchedulerHandler struct {
	jobs   JobRunner
	logger *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(jobs JobRunner, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{jobs: jobs, logger: log}
}

// List returns job stats
// GET /api/scheduler/jobs
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.jobs.GetJobStats(),
	})
}

// Run triggers a job and waits for its result
// POST /api/scheduler/jobs/{name}/run
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	res, err := h.jobs.RunNow(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job":     name,
		"success": res.Success,
	}).Info("Job triggered via API")
	respondJSON(w, http.StatusOK, res)
}

// Pause stops scheduled runs of a job
// POST /api/scheduler/jobs/{name}/pause
func (h *SchedulerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, true)
}

// Resume re-enables scheduled runs of a job
// POST /api/scheduler/jobs/{name}/resume
func (h *SchedulerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setPaused(w, r, false)
}

func (h *SchedulerHandler) setPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	name := mux.Vars(r)["name"]

	toggle := h.jobs.ResumeJob
	if paused {
		toggle = h.jobs.PauseJob
	}
	if err := toggle(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"job":    name,
		"paused": paused,
	}).Info("Job pause state changed via API")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":    name,
		"paused": paused,
	})
}
