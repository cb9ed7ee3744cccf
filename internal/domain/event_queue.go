package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

// EventQueue is the durable queue of scheduled events. Enqueue joins the
// transaction of ctx, so an event becomes visible together with the state
// change which produced it.
type EventQueue interface {
	Enqueue(ctx context.Context, eventType entity.EventType, session *entity.Session, scheduledAt time.Time, payload entity.Map) (*entity.ScheduledEvent, error)
	Ready(ctx context.Context, now time.Time) ([]entity.ScheduledEvent, error)

	// Claim leases event to the consumer of this worker. It returns false
	// without error if another worker claimed the event first.
	Claim(ctx context.Context, event *entity.ScheduledEvent, now time.Time) (bool, error)
	Complete(ctx context.Context, event *entity.ScheduledEvent) error

	// Fail records cause on event. The code of a coded cause is kept so that
	// the watchdog can tell a fatal failure from a transient one.
	Fail(ctx context.Context, event *entity.ScheduledEvent, cause error) error
	Requeue(ctx context.Context, event *entity.ScheduledEvent, scheduledAt time.Time, message string) error
}

type eventQueue struct {
	eventRepo repository.ScheduledEventRepository
}

func NewEventQueue(eventRepo repository.ScheduledEventRepository) *eventQueue {
	return &eventQueue{eventRepo: eventRepo}
}

func (q *eventQueue) Enqueue(
	ctx context.Context,
	eventType entity.EventType,
	session *entity.Session,
	scheduledAt time.Time,
	payload entity.Map,
) (*entity.ScheduledEvent, error) {
	event := &entity.ScheduledEvent{
		Base:        entity.Base{ID: uuid.NewString()},
		EventType:   eventType,
		SessionID:   session.ID,
		GameType:    session.GameType,
		ScheduledAt: scheduledAt.UTC(),
		Status:      entity.EventPending,
		Payload:     payload,
	}

	if err := q.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (q *eventQueue) Ready(ctx context.Context, now time.Time) ([]entity.ScheduledEvent, error) {
	limit := xcontext.Configs(ctx).Lottery.EventBatchLimit
	if limit <= 0 {
		limit = 100
	}

	return q.eventRepo.GetReady(ctx, now, limit)
}

func (q *eventQueue) Claim(ctx context.Context, event *entity.ScheduledEvent, now time.Time) (bool, error) {
	cfg := xcontext.Configs(ctx).Lottery
	if err := q.eventRepo.Claim(ctx, event.ID, cfg.Consumer, now, cfg.LeaseTTL); err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, err
	}

	event.Status = entity.EventProcessing
	event.LeaseOwner = cfg.Consumer
	event.Attempts++
	return true, nil
}

func (q *eventQueue) Complete(ctx context.Context, event *entity.ScheduledEvent) error {
	return q.eventRepo.Complete(ctx, event.ID, event.LeaseOwner, xcontext.Now(ctx))
}

func (q *eventQueue) Fail(ctx context.Context, event *entity.ScheduledEvent, cause error) error {
	var code int
	var errx errorx.Error
	if errors.As(cause, &errx) {
		code = int(errx.Code)
	}

	return q.eventRepo.Fail(ctx, event.ID, event.LeaseOwner, xcontext.Now(ctx), code, cause.Error())
}

func (q *eventQueue) Requeue(
	ctx context.Context, event *entity.ScheduledEvent, scheduledAt time.Time, message string,
) error {
	return q.eventRepo.Requeue(ctx, event.ID, event.LeaseOwner, scheduledAt.UTC(), message)
}
