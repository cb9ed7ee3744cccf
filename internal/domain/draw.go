package domain

import (
	"context"
	"errors"

	"github.com/questx-lab/lottery/internal/domain/drawing"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

type DrawEngine interface {
	// Draw generates the result of an expired session and moves it to
	// processing_rewards. Drawing a session which has already been drawn is a
	// no-op.
	Draw(ctx context.Context, sessionID string) (*model.DrawSessionResponse, error)
}

type drawEngine struct {
	sessionRepo repository.SessionRepository
	eventQueue  EventQueue
	generator   *drawing.Generator
	notifier    SessionNotifier
}

func NewDrawEngine(
	sessionRepo repository.SessionRepository,
	eventQueue EventQueue,
	generator *drawing.Generator,
	notifier SessionNotifier,
) *drawEngine {
	return &drawEngine{
		sessionRepo: sessionRepo,
		eventQueue:  eventQueue,
		generator:   generator,
		notifier:    notifier,
	}
}

func (d *drawEngine) Draw(ctx context.Context, sessionID string) (*model.DrawSessionResponse, error) {
	session, err := d.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found session")
		}

		xcontext.Logger(ctx).Errorf("Cannot get session %s: %v", sessionID, err)
		return nil, err
	}

	now := xcontext.Now(ctx)
	switch session.Status {
	case entity.SessionOpen:
		if now.Before(session.EndTime) {
			return nil, errorx.New(errorx.SessionNotExpired, "Session %d has not expired yet", session.SessionNumber)
		}

		// Closing the session is committed alone so that no bet is accepted
		// while the numbers are generated.
		err := d.sessionRepo.UpdateIfStatus(ctx, session.ID,
			[]entity.SessionStatus{entity.SessionOpen},
			repository.SessionUpdate{Status: entity.SessionDrawing})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return d.alreadyProcessed(ctx, sessionID)
			}

			return nil, err
		}
		session.Status = entity.SessionDrawing

	case entity.SessionDrawing:
		xcontext.Logger(ctx).Infof("Resume drawing session %s", session.ID)

	default:
		return &model.DrawSessionResponse{Session: convertSession(session), AlreadyProcessed: true}, nil
	}

	result := d.generator.Generate()
	resultsData := entity.Map(result.ToMap())
	resultsData["draw_time"] = now.Format(defaultTimeLayout)
	resultsData["session_number"] = session.SessionNumber
	resultsData["status"] = string(entity.SessionProcessingRewards)
	winningNumbers := entity.Array[string](result.Endings())

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err = d.sessionRepo.UpdateIfStatus(ctx, session.ID,
		[]entity.SessionStatus{entity.SessionDrawing},
		repository.SessionUpdate{
			Status:         entity.SessionProcessingRewards,
			WinningNumbers: winningNumbers,
			ResultsData:    resultsData,
		})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.WithRollbackDBTransaction(ctx)
			return d.alreadyProcessed(ctx, sessionID)
		}

		return nil, err
	}

	if _, err := d.eventQueue.Enqueue(ctx, entity.EventDrawCompleted, session, now, nil); err != nil {
		return nil, err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return nil, err
	}

	session.Status = entity.SessionProcessingRewards
	session.WinningNumbers = winningNumbers
	session.ResultsData = resultsData

	xcontext.Logger(ctx).Infof("Drew session %d of %s, special prize %s",
		session.SessionNumber, session.GameType, result.SpecialPrize)
	d.notifier.Notify(ctx, model.SessionDrawnNotification, session, nil)

	return &model.DrawSessionResponse{Session: convertSession(session)}, nil
}

func (d *drawEngine) alreadyProcessed(ctx context.Context, sessionID string) (*model.DrawSessionResponse, error) {
	session, err := d.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &model.DrawSessionResponse{Session: convertSession(session), AlreadyProcessed: true}, nil
}
