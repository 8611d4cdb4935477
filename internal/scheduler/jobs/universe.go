package jobs

import (
	"context"
	"fmt"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// UniverseRefresher rebuilds the cached universe
type UniverseRefresher interface {
	Refresh(ctx context.Context) (*contracts.Universe, error)
}

// UniverseRefreshJob refreshes the universe hourly
// ⭐ SSOT: Universe 갱신 스케줄은 이 Job에서만
type UniverseRefreshJob struct {
	universe UniverseRefresher
	logger   *logger.Logger
}

// NewUniverseRefreshJob creates a new universe refresh job
func NewUniverseRefreshJob(u UniverseRefresher, log *logger.Logger) *UniverseRefreshJob {
	return &UniverseRefreshJob{
		universe: u,
		logger:   log,
	}
}

// Name returns the job name
func (j *UniverseRefreshJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (top of every hour)
func (j *UniverseRefreshJob) Schedule() string {
	return "0 0 * * * *"
}

// Run executes the refresh; the previous universe stays cached on failure
func (j *UniverseRefreshJob) Run(ctx context.Context) error {
	u, err := j.universe.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh universe: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"source":   u.Source,
		"included": len(u.Symbols),
		"excluded": len(u.Excluded),
	}).Info("Universe refreshed by schedule")

	return nil
}
