package domain

import (
	"context"
	"sync"

	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"golang.org/x/sync/errgroup"
)

// blockingEventStatuses are the statuses of an event which still owns the
// progress of its session.
var blockingEventStatuses = []entity.EventStatus{
	entity.EventPending,
	entity.EventProcessing,
}

// Watchdog recovers the pipeline after crashed workers.
type Watchdog interface {
	RecoverStaleEvents(ctx context.Context) (int64, error)
	RecoverStuckSessions(ctx context.Context) ([]model.RecoveredSession, error)
	EnsureActiveSessions(ctx context.Context) ([]model.EnsureSessionResponse, error)
	Sweep(ctx context.Context) (*model.RecoverResponse, error)
}

type watchdog struct {
	sessionRepo repository.SessionRepository
	eventRepo   repository.ScheduledEventRepository
	eventQueue  EventQueue
	scheduler   SessionScheduler
}

func NewWatchdog(
	sessionRepo repository.SessionRepository,
	eventRepo repository.ScheduledEventRepository,
	eventQueue EventQueue,
	scheduler SessionScheduler,
) *watchdog {
	return &watchdog{
		sessionRepo: sessionRepo,
		eventRepo:   eventRepo,
		eventQueue:  eventQueue,
		scheduler:   scheduler,
	}
}

// RecoverStaleEvents puts events whose lease expired back to pending. Their
// attempt count is kept, and an event which used all of its attempts is
// failed instead.
func (w *watchdog) RecoverStaleEvents(ctx context.Context) (int64, error) {
	released, failed, err := w.eventRepo.ReleaseExpired(
		ctx, xcontext.Now(ctx), xcontext.Configs(ctx).Lottery.MaxAttempts)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot release expired events: %v", err)
		return 0, err
	}

	if released > 0 {
		common.PromCounters[common.EventRecoveredTotal].WithLabelValues("lease_expired").Add(float64(released))
		xcontext.Logger(ctx).Warnf("Released %d events with an expired lease", released)
	}

	if failed > 0 {
		common.PromCounters[common.EventRecoveredTotal].WithLabelValues("attempts_exhausted").Add(float64(failed))
		xcontext.Logger(ctx).Warnf("Failed %d events with an expired lease and no attempt left", failed)
	}

	return released, nil
}

// RecoverStuckSessions resumes each session overdue by more than the stuck
// threshold and having no event in progress. The last failed resume event of
// the session is put back to pending, otherwise a new one is enqueued. A
// session whose event failed on a broken invariant is left to an operator.
func (w *watchdog) RecoverStuckSessions(ctx context.Context) ([]model.RecoveredSession, error) {
	now := xcontext.Now(ctx)
	sessions, err := w.sessionRepo.GetOverdue(ctx, now.Add(-xcontext.Configs(ctx).Lottery.StuckThreshold))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get overdue sessions: %v", err)
		return nil, err
	}

	recovered := []model.RecoveredSession{}
	for i := range sessions {
		session := &sessions[i]

		var eventType entity.EventType
		switch session.Status {
		case entity.SessionOpen, entity.SessionDrawing:
			eventType = entity.EventSessionExpired
		case entity.SessionProcessingRewards:
			eventType = entity.EventDrawCompleted
		default:
			continue
		}

		blocked, err := w.eventRepo.HasBySessionID(ctx, session.ID, blockingEventStatuses)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot check events of session %s: %v", session.ID, err)
			continue
		}

		if blocked {
			continue
		}

		failed, fatal, err := w.lastFailedEvent(ctx, session.ID, eventType)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get failed events of session %s: %v", session.ID, err)
			continue
		}

		if fatal {
			common.PromCounters[common.EventRecoveredTotal].WithLabelValues("invariant_violation").Inc()
			xcontext.Logger(ctx).Errorf("Session %d of %s is stuck in %s by a broken invariant",
				session.SessionNumber, session.GameType, session.Status)
			continue
		}

		var eventID string
		if failed != nil {
			if err := w.eventRepo.Retry(ctx, failed.ID, now); err != nil {
				if !isNotFound(err) {
					xcontext.Logger(ctx).Errorf("Cannot retry event %s: %v", failed.ID, err)
				}

				continue
			}

			eventID = failed.ID
			common.PromCounters[common.EventRecoveredTotal].WithLabelValues("failed_event").Inc()
			xcontext.Logger(ctx).Warnf("Session %d of %s is stuck in %s, retried failed event %s: %s",
				session.SessionNumber, session.GameType, session.Status, failed.ID, failed.ErrorMessage)
		} else {
			event, err := w.eventQueue.Enqueue(ctx, eventType, session, now, entity.Map{
				"session_number": session.SessionNumber,
				"recovered":      true,
			})
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot enqueue recovery event of session %s: %v", session.ID, err)
				continue
			}

			eventID = event.ID
			common.PromCounters[common.EventRecoveredTotal].WithLabelValues("stuck_session").Inc()
			xcontext.Logger(ctx).Warnf("Session %d of %s is stuck in %s, enqueued %s",
				session.SessionNumber, session.GameType, session.Status, eventType)
		}

		recovered = append(recovered, model.RecoveredSession{
			SessionID: session.ID,
			Status:    string(session.Status),
			EventID:   eventID,
			EventType: string(eventType),
		})
	}

	return recovered, nil
}

// lastFailedEvent returns the latest failed event of eventType of the
// session. fatal is true if any failed event of the session broke an
// invariant.
func (w *watchdog) lastFailedEvent(
	ctx context.Context, sessionID string, eventType entity.EventType,
) (*entity.ScheduledEvent, bool, error) {
	events, err := w.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	var last *entity.ScheduledEvent
	for i := range events {
		if events[i].Status != entity.EventFailed {
			continue
		}

		if events[i].ErrorCode == int(errorx.InvariantViolation) {
			return nil, true, nil
		}

		if events[i].EventType == eventType {
			last = &events[i]
		}
	}

	return last, false, nil
}

// EnsureActiveSessions creates a session for every game type which has
// neither an active session nor a pending payout event that would create it.
func (w *watchdog) EnsureActiveSessions(ctx context.Context) ([]model.EnsureSessionResponse, error) {
	cfg := xcontext.Configs(ctx)
	concurrency := cfg.Lottery.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var mutex sync.Mutex
	responses := []model.EnsureSessionResponse{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, gameType := range cfg.Catalog().GameTypes {
		gameType := gameType.Key
		g.Go(func() error {
			pending, err := w.eventRepo.HasActiveByGameType(gctx, gameType, entity.EventPayoutCompleted)
			if err != nil {
				xcontext.Logger(gctx).Errorf("Cannot check payout events of %s: %v", gameType, err)
				return err
			}

			if pending {
				return nil
			}

			resp, err := w.scheduler.EnsureActiveSession(gctx, gameType)
			if err != nil {
				xcontext.Logger(gctx).Errorf("Cannot ensure active session of %s: %v", gameType, err)
				return err
			}

			if resp.Created {
				mutex.Lock()
				responses = append(responses, *resp)
				mutex.Unlock()
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return responses, err
	}

	return responses, nil
}

func (w *watchdog) Sweep(ctx context.Context) (*model.RecoverResponse, error) {
	released, err := w.RecoverStaleEvents(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := w.RecoverStuckSessions(ctx)
	if err != nil {
		return nil, err
	}

	ensured, err := w.EnsureActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	return &model.RecoverResponse{
		ReleasedEvents: released,
		Sessions:       sessions,
		Ensured:        ensured,
	}, nil
}
