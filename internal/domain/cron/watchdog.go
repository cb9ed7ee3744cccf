package cron

import (
	"context"
	"time"

	"github.com/questx-lab/lottery/internal/domain"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

// WatchdogCronJob releases expired leases and resumes stuck sessions.
type WatchdogCronJob struct {
	watchdog domain.Watchdog
	interval time.Duration
}

func NewWatchdogCronJob(watchdog domain.Watchdog, interval time.Duration) *WatchdogCronJob {
	if interval <= 0 {
		interval = time.Minute
	}

	return &WatchdogCronJob{watchdog: watchdog, interval: interval}
}

func (job *WatchdogCronJob) Do(ctx context.Context) {
	if _, err := job.watchdog.RecoverStaleEvents(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot recover stale events: %v", err)
	}

	sessions, err := job.watchdog.RecoverStuckSessions(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot recover stuck sessions: %v", err)
		return
	}

	if len(sessions) > 0 {
		xcontext.Logger(ctx).Warnf("Resumed %d stuck sessions", len(sessions))
	}
}

func (job *WatchdogCronJob) RunNow() bool {
	return true
}

func (job *WatchdogCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
