package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waleedabsoluit/stealth-scan-trader/pkg/logger"
)

func countingJob(name string, calls *atomic.Int32, err error) FuncJob {
	return FuncJob{JobName: name, Spec: "@every 1h", Fn: func(ctx context.Context) error {
		calls.Add(1)
		return err
	}}
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())
	var calls atomic.Int32

	require.NoError(t, s.AddJob(countingJob("b", &calls, nil)))
	require.NoError(t, s.AddJob(countingJob("a", &calls, nil)))

	err := s.AddJob(countingJob("a", &calls, nil))
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(FuncJob{JobName: "bad", Spec: "not a cron", Fn: func(context.Context) error { return nil }})
	assert.ErrorContains(t, err, "failed to schedule job bad")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunNow(t *testing.T) {
	s := New(logger.Nop())
	var calls atomic.Int32
	require.NoError(t, s.AddJob(countingJob("ok", &calls, nil)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.JobName)
	assert.EqualValues(t, 1, calls.Load())

	history, err := s.GetJobHistory("ok")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNow_RetriesThenFails(t *testing.T) {
	s := New(logger.Nop(), WithRetry(2, time.Millisecond))
	var calls atomic.Int32
	require.NoError(t, s.AddJob(countingJob("flaky", &calls, errors.New("upstream 503"))))

	res, err := s.RunNow(context.Background(), "flaky")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "upstream 503", res.Error)
	assert.EqualValues(t, 3, calls.Load())

	stats := s.GetJobStats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].FailureCount)
	assert.Equal(t, "upstream 503", stats[0].LastError)
	assert.NotNil(t, stats[0].LastFailure)
	assert.Nil(t, stats[0].LastSuccess)
}

func TestRunNow_PanicBecomesFailure(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(FuncJob{JobName: "boom", Spec: "@hourly", Fn: func(context.Context) error {
		panic("nil map")
	}}))

	res, err := s.RunNow(context.Background(), "boom")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "nil map")
}

func TestRunNow_SkipsOverlap(t *testing.T) {
	s := New(logger.Nop())
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.AddJob(FuncJob{JobName: "slow", Spec: "@hourly", Fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background(), "slow")
		done <- err
	}()
	<-started

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobRunning)
	assert.True(t, s.GetJobStats()[0].Running)

	close(release)
	assert.NoError(t, <-done)
}

func TestRunNow_Timeout(t *testing.T) {
	s := New(logger.Nop(), WithTimeout(10*time.Millisecond))
	require.NoError(t, s.AddJob(FuncJob{JobName: "hung", Spec: "@hourly", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	res, err := s.RunNow(context.Background(), "hung")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "deadline exceeded")
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.Nop())
	var calls atomic.Int32
	require.NoError(t, s.AddJob(countingJob("a", &calls, nil)))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.ErrorIs(t, s.RemoveJob("a"), ErrJobNotFound)
}

func TestScheduledRun(t *testing.T) {
	s := New(logger.Nop())
	var calls atomic.Int32
	require.NoError(t, s.AddJob(FuncJob{JobName: "fast", Spec: "@every 1s", Fn: func(context.Context) error {
		calls.Add(1)
		return nil
	}}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	stats := s.GetJobStats()
	require.Len(t, stats, 1)
	assert.NotNil(t, stats[0].NextRun)
}

func TestPauseResume(t *testing.T) {
	s := New(logger.Nop())
	var calls atomic.Int32
	require.NoError(t, s.AddJob(countingJob("scan", &calls, nil)))
	require.NoError(t, s.AddJob(FuncJob{JobName: "fast", Spec: "@every 1s", Fn: func(context.Context) error {
		calls.Add(1)
		return nil
	}}))

	require.NoError(t, s.PauseJob("fast"))
	assert.ErrorIs(t, s.PauseJob("missing"), ErrJobNotFound)
	assert.ErrorIs(t, s.ResumeJob("missing"), ErrJobNotFound)

	stats := s.GetJobStats()
	require.Len(t, stats, 2)
	assert.True(t, stats[0].Paused)
	assert.False(t, stats[1].Paused)

	s.Start()
	defer s.Stop()

	// 일시정지 중에는 예약 실행 없음
	time.Sleep(1500 * time.Millisecond)
	assert.EqualValues(t, 0, calls.Load())

	// 수동 실행은 일시정지와 무관
	_, err := s.RunNow(context.Background(), "fast")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	require.NoError(t, s.ResumeJob("fast"))
	assert.False(t, s.GetJobStats()[0].Paused)
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestJobHistoryCapped(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(5))
}
