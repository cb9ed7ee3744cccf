package cron

import (
	"context"
	"time"

	"github.com/questx-lab/lottery/internal/domain"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type EnsureSessionsCronJob struct {
	watchdog domain.Watchdog
}

func NewEnsureSessionsCronJob(watchdog domain.Watchdog) *EnsureSessionsCronJob {
	return &EnsureSessionsCronJob{watchdog: watchdog}
}

func (job *EnsureSessionsCronJob) Do(ctx context.Context) {
	created, err := job.watchdog.EnsureActiveSessions(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot ensure active sessions: %v", err)
	}

	for _, resp := range created {
		xcontext.Logger(ctx).Infof("Opened missing session %d of %s", resp.Session.SessionNumber, resp.Session.GameType)
	}
}

func (job *EnsureSessionsCronJob) RunNow() bool {
	return true
}

func (job *EnsureSessionsCronJob) Next() time.Time {
	return time.Now().Add(time.Minute).Truncate(time.Minute)
}
