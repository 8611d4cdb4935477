package jobs

import (
	"context"

	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

// CooldownSweeper purges expired cooldowns
type CooldownSweeper interface {
	ActiveCount() int
}

// CooldownSweepJob purges expired cooldown entries
type CooldownSweepJob struct {
	cooldowns CooldownSweeper
	logger    *logger.Logger
}

// NewCooldownSweepJob creates a new cooldown sweep job
func NewCooldownSweepJob(c CooldownSweeper, log *logger.Logger) *CooldownSweepJob {
	return &CooldownSweepJob{
		cooldowns: c,
		logger:    log,
	}
}

// Name returns the job name
func (j *CooldownSweepJob) Name() string {
	return "cooldown_sweep"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CooldownSweepJob) Schedule() string {
	return "0 */5 * * * *" // Every 5 minutes
}

// Run executes the sweep
// ActiveCount가 만료 항목을 정리함
func (j *CooldownSweepJob) Run(ctx context.Context) error {
	active := j.cooldowns.ActiveCount()
	j.logger.WithField("active", active).Debug("Cooldown sweep completed")
	return nil
}
