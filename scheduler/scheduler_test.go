package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy_reco/config"
)

type fakePurger struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakePurger) PurgeExpired(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.retention = retention
	return f.deleted, f.err
}

func TestGetNextTimePoint(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), getNextTimePoint(now, 10, 0))
	assert.Equal(t, time.Date(2026, 10, 20, 0, 10, 0, 0, time.UTC), getNextTimePoint(now, 0, 10))
	assert.Equal(t, now, getNextTimePoint(now, 9, 30))
}

func TestValidateHourMinute(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.DefaultHour = 3
	cfg.Scheduler.DefaultMinute = 15

	h, m := validateHourMinute(cfg, 25, 61)
	assert.Equal(t, 3, h)
	assert.Equal(t, 15, m)

	h, m = validateHourMinute(cfg, 23, 59)
	assert.Equal(t, 23, h)
	assert.Equal(t, 59, m)
}

func TestInitTasksDailySchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Cron.PurgeHour = 2
	cfg.Cron.PurgeMin = 5
	s := NewScheduler(cfg, &fakePurger{})

	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	s.initTasks(now)

	status, ok := s.Status(TaskPurgeCache)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 20, 2, 5, 0, 0, time.UTC), status.NextRun)
	assert.Contains(t, status.Description, "02:05")
}

func TestCheckTasksRunsDuePurge(t *testing.T) {
	cfg := config.Default()
	cfg.Cron.RetentionDays = 3
	cfg.Debug.Enabled = true
	cfg.Debug.PurgeFreq = 60
	purger := &fakePurger{deleted: 4}
	s := NewScheduler(cfg, purger)

	start := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	s.initTasks(start)

	// 未到时间不执行
	s.checkTasks(context.Background(), start.Add(30*time.Second))
	s.waitTasks()
	assert.Equal(t, 0, purger.calls)

	due := start.Add(time.Minute)
	s.checkTasks(context.Background(), due)
	s.waitTasks()

	assert.Equal(t, 1, purger.calls)
	assert.Equal(t, 3*24*time.Hour, purger.retention)

	status, _ := s.Status(TaskPurgeCache)
	assert.False(t, status.IsRunning)
	assert.Equal(t, due, status.LastRun)
	assert.Equal(t, due.Add(time.Minute), status.NextRun)
	assert.Equal(t, int64(4), status.LastDeleted)
}

func TestRunTaskReschedulesAfterFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Cron.PurgeHour = 0
	cfg.Cron.PurgeMin = 10
	purger := &fakePurger{err: errors.New("db down")}
	s := NewScheduler(cfg, purger)

	s.initTasks(time.Date(2026, 10, 19, 0, 5, 0, 0, time.UTC))
	now := time.Date(2026, 10, 19, 0, 10, 0, 0, time.UTC)
	s.checkTasks(context.Background(), now)
	s.waitTasks()

	status, _ := s.Status(TaskPurgeCache)
	assert.Equal(t, 1, purger.calls)
	assert.False(t, status.IsRunning)
	assert.Equal(t, int64(0), status.LastDeleted)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 10, 0, 0, time.UTC), status.NextRun)
}

func TestWaitReturnsAfterRunStops(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduler.CheckIntervalSec = 1
	s := NewScheduler(cfg, &fakePurger{})
	s.initTasks(time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	go s.run(ctx)

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned before the loop stopped")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after cancel")
	}
	_, open := <-s.done
	assert.False(t, open)
}
