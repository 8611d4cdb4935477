package jobs

import (
	"context"
	"errors"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/brain"
	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// Ticker runs one pipeline tick
type Ticker interface {
	RunTick(ctx context.Context, req brain.TickRequest) *contracts.TickResult
}

// ScanTickJob runs the pipeline on the configured schedule
// ⭐ SSOT: 정기 스캔 스케줄은 이 Job에서만
type ScanTickJob struct {
	ticker   Ticker
	schedule string
	logger   *logger.Logger
}

// NewScanTickJob creates a new scan tick job
func NewScanTickJob(t Ticker, schedule string, log *logger.Logger) *ScanTickJob {
	if schedule == "" {
		schedule = "0 * * * * *"
	}
	return &ScanTickJob{ticker: t, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *ScanTickJob) Name() string {
	return "scan_tick"
}

// Schedule returns the cron schedule (default every minute)
func (j *ScanTickJob) Schedule() string {
	return j.schedule
}

// Run executes one tick; a tick-level failure fails the job
func (j *ScanTickJob) Run(ctx context.Context) error {
	res := j.ticker.RunTick(ctx, brain.TickRequest{})

	if e, failed := res.ErrorFor(brain.OrchestratorModule); failed {
		return errors.New(e.Error)
	}

	if len(res.Errors) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"tick_id": res.TickID,
			"errors":  len(res.Errors),
		}).Warn("Tick completed with module failures")
	}
	return nil
}
