package cron

import (
	"context"
	"time"

	"github.com/questx-lab/lottery/internal/domain"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type ProcessEventsCronJob struct {
	processor domain.EventProcessor
	interval  time.Duration
}

func NewProcessEventsCronJob(processor domain.EventProcessor, interval time.Duration) *ProcessEventsCronJob {
	if interval <= 0 {
		interval = time.Second
	}

	return &ProcessEventsCronJob{processor: processor, interval: interval}
}

func (job *ProcessEventsCronJob) Do(ctx context.Context) {
	resp, err := job.processor.ProcessReadyEvents(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot process ready events: %v", err)
		return
	}

	failed := 0
	for _, result := range resp.Results {
		if result.Status != "success" {
			failed++
		}
	}

	if len(resp.Results) > 0 {
		xcontext.Logger(ctx).Infof("Processed %d events, %d unsuccessful", len(resp.Results), failed)
	}
}

func (job *ProcessEventsCronJob) RunNow() bool {
	return true
}

func (job *ProcessEventsCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
