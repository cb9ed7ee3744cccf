package cron

import (
	"context"
	"sync"
	"time"

	"github.com/questx-lab/lottery/pkg/xcontext"
)

// CronJob is run by CronJobManager at Next, and once at start if RunNow.
type CronJob interface {
	Do(context.Context)
	RunNow() bool
	Next() time.Time
}

// CronJobManager runs each job in its own loop, so a job never overlaps with
// itself while a slow job does not delay the others.
type CronJobManager struct {
	jobs []CronJob
}

func NewCronJobManager() *CronJobManager {
	return &CronJobManager{}
}

func (m *CronJobManager) Register(job CronJob) {
	m.jobs = append(m.jobs, job)
}

// Start blocks until ctx is done. A run in progress at that time is not
// cancelled and Start returns once it finished.
func (m *CronJobManager) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron job manager started with %d jobs", len(m.jobs))

	var wait sync.WaitGroup
	for _, job := range m.jobs {
		wait.Add(1)
		go func(job CronJob) {
			defer wait.Done()
			m.loop(ctx, job)
		}(job)
	}

	wait.Wait()
	xcontext.Logger(ctx).Infof("Cron job manager stopped")
}

func (m *CronJobManager) loop(ctx context.Context, job CronJob) {
	if job.RunNow() {
		m.run(ctx, job)
	}

	for {
		timer := time.NewTimer(time.Until(job.Next()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-timer.C:
			m.run(ctx, job)
		}
	}
}

func (m *CronJobManager) run(ctx context.Context, job CronJob) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			xcontext.Logger(ctx).Errorf("%T panicked: %v", job, r)
		}
	}()

	xcontext.Logger(ctx).Debugf("%T is running...", job)
	job.Do(context.WithoutCancel(ctx))
	xcontext.Logger(ctx).Debugf("%T ok", job)
}
