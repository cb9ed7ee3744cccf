package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/math"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

const (
	eventResultSuccess  = "success"
	eventResultFailed   = "failed"
	eventResultRequeued = "requeued"
)

// EventHandler runs the stage of the pipeline triggered by an event. The
// returned detail is stored nowhere but reported to the caller.
type EventHandler interface {
	Handle(ctx context.Context, event *entity.ScheduledEvent) (string, error)
}

type EventHandlerFunc func(ctx context.Context, event *entity.ScheduledEvent) (string, error)

func (f EventHandlerFunc) Handle(ctx context.Context, event *entity.ScheduledEvent) (string, error) {
	return f(ctx, event)
}

// DefaultEventHandlers chains the stages of a session: an expired session is
// drawn, a drawn session is settled and a settled session is followed by the
// next one of the same game type.
func DefaultEventHandlers(
	scheduler SessionScheduler,
	draw DrawEngine,
	settlement SettlementEngine,
) map[entity.EventType]EventHandler {
	return map[entity.EventType]EventHandler{
		entity.EventSessionExpired: EventHandlerFunc(
			func(ctx context.Context, event *entity.ScheduledEvent) (string, error) {
				resp, err := draw.Draw(ctx, event.SessionID)
				if err != nil {
					return "", err
				}

				if resp.AlreadyProcessed {
					return "already processed", nil
				}

				return fmt.Sprintf("drew session %d", resp.Session.SessionNumber), nil
			}),
		entity.EventDrawCompleted: EventHandlerFunc(
			func(ctx context.Context, event *entity.ScheduledEvent) (string, error) {
				summary, err := settlement.Settle(ctx, event.SessionID)
				if err != nil {
					return "", err
				}

				return fmt.Sprintf("settled %d bets, %d winners, payout %d",
					summary.ProcessedBets, summary.Winners, summary.TotalPayout), nil
			}),
		entity.EventPayoutCompleted: EventHandlerFunc(
			func(ctx context.Context, event *entity.ScheduledEvent) (string, error) {
				resp, err := scheduler.EnsureActiveSession(ctx, event.GameType)
				if err != nil {
					return "", err
				}

				if !resp.Created {
					return resp.Note, nil
				}

				return fmt.Sprintf("created session %d", resp.Session.SessionNumber), nil
			}),
	}
}

type EventProcessor interface {
	ProcessReadyEvents(ctx context.Context) (*model.ProcessEventsResponse, error)
}

type eventProcessor struct {
	eventQueue EventQueue
	handlers   map[entity.EventType]EventHandler
}

func NewEventProcessor(eventQueue EventQueue, handlers map[entity.EventType]EventHandler) *eventProcessor {
	return &eventProcessor{eventQueue: eventQueue, handlers: handlers}
}

func (p *eventProcessor) ProcessReadyEvents(ctx context.Context) (*model.ProcessEventsResponse, error) {
	events, err := p.eventQueue.Ready(ctx, xcontext.Now(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get ready events: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.ProcessEventsResponse{Results: []model.EventResult{}}
	for i := range events {
		// Each event is claimed right before its dispatch so that its lease
		// does not run out while the previous ones are handled.
		claimed, err := p.eventQueue.Claim(ctx, &events[i], xcontext.Now(ctx))
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot claim event %s: %v", events[i].ID, err)
			continue
		}

		if !claimed {
			xcontext.Logger(ctx).Debugf("Event %s was claimed by another worker", events[i].ID)
			continue
		}

		resp.Results = append(resp.Results, p.process(ctx, &events[i]))
	}

	return resp, nil
}

func (p *eventProcessor) process(ctx context.Context, event *entity.ScheduledEvent) model.EventResult {
	result := model.EventResult{
		EventID:   event.ID,
		EventType: string(event.EventType),
		SessionID: event.SessionID,
	}

	handler, ok := p.handlers[event.EventType]
	if !ok {
		result.Status = eventResultFailed
		result.Detail = fmt.Sprintf("no handler for event type %s", event.EventType)
		p.finish(ctx, event, errors.New(result.Detail))
		return result
	}

	start := time.Now()
	detail, err := p.handle(ctx, handler, event)
	common.PromHistograms[common.EventProcessDuration].
		WithLabelValues(string(event.EventType)).
		Observe(time.Since(start).Seconds())

	if err == nil {
		result.Status = eventResultSuccess
		result.Detail = detail
		p.finish(ctx, event, nil)
		common.PromCounters[common.EventProcessedTotal].WithLabelValues(result.EventType, result.Status).Inc()
		xcontext.Logger(ctx).Infof("Processed event %s (%s) of session %s: %s",
			event.ID, event.EventType, event.SessionID, detail)
		return result
	}

	result.Detail = err.Error()
	xcontext.Logger(ctx).Errorf("Cannot process event %s (%s) of session %s: %v",
		event.ID, event.EventType, event.SessionID, err)

	cfg := xcontext.Configs(ctx).Lottery
	if cfg.RequeueOnFailure && !isPermanent(err) && event.Attempts < cfg.MaxAttempts {
		at := xcontext.Now(ctx).Add(requeueDelay(cfg.RetryBackoff, cfg.RetryMaxDelay, event.Attempts))
		if err := p.eventQueue.Requeue(ctx, event, at, result.Detail); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot requeue event %s: %v", event.ID, err)
		}

		result.Status = eventResultRequeued
	} else {
		result.Status = eventResultFailed
		p.finish(ctx, event, err)
	}

	common.PromCounters[common.EventProcessedTotal].WithLabelValues(result.EventType, result.Status).Inc()
	return result
}

// handle retries transient failures of handler with an exponential backoff.
// Coded errors other than infrastructure ones are never retried.
func (p *eventProcessor) handle(
	ctx context.Context, handler EventHandler, event *entity.ScheduledEvent,
) (string, error) {
	cfg := xcontext.Configs(ctx).Lottery

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = cfg.RetryBackoff
	exponential.MaxInterval = cfg.RetryMaxDelay
	exponential.MaxElapsedTime = 0

	var detail string
	err := backoff.RetryNotify(
		func() error {
			var err error
			detail, err = handler.Handle(ctx, event)
			if err != nil && isPermanent(err) {
				return backoff.Permanent(err)
			}

			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(exponential, cfg.MaxRetries), ctx),
		func(err error, d time.Duration) {
			xcontext.Logger(ctx).Warnf("Retry event %s in %s: %v", event.ID, d, err)
		},
	)

	return detail, err
}

// finish completes event, or fails it with cause if cause is not nil.
func (p *eventProcessor) finish(ctx context.Context, event *entity.ScheduledEvent, cause error) {
	var err error
	if cause == nil {
		err = p.eventQueue.Complete(ctx, event)
	} else {
		err = p.eventQueue.Fail(ctx, event, cause)
	}

	if err != nil {
		if isNotFound(err) {
			xcontext.Logger(ctx).Warnf("Lease of event %s was lost before it finished", event.ID)
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot finish event %s: %v", event.ID, err)
	}
}

// isPermanent reports whether err is a coded error which would fail the same
// way on retry.
func isPermanent(err error) bool {
	var errx errorx.Error
	if !errors.As(err, &errx) {
		return false
	}

	switch errx.Code {
	case errorx.Unknown.Code, errorx.Internal, errorx.Unavailable:
		return false
	}

	return true
}

// requeueDelay doubles base for each attempt already made, up to maxDelay.
func requeueDelay(base, maxDelay time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	if attempts > 30 {
		return maxDelay
	}

	delay := int64(base) << (attempts - 1)
	return time.Duration(math.MinInt64(delay, int64(maxDelay)))
}
