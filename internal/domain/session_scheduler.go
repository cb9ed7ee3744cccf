package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/dateutil"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

const (
	sessionNumberDayFactor = 10000

	// sessionNumberRange is the spacing between the offsets of the default
	// game types. A game type creating more sessions per day overflows into
	// the numbers of the next one.
	sessionNumberRange = 1000
)

const (
	noteSessionAlreadyExists = "already exists"
	sessionAcceptingBets     = "accepting_bets"
)

type SessionScheduler interface {
	// EnsureActiveSession makes sure gameType has exactly one non-terminal
	// session, creating one if needed.
	EnsureActiveSession(ctx context.Context, gameType string) (*model.EnsureSessionResponse, error)
}

type sessionScheduler struct {
	sessionRepo repository.SessionRepository
	eventQueue  EventQueue
	notifier    SessionNotifier
}

func NewSessionScheduler(
	sessionRepo repository.SessionRepository,
	eventQueue EventQueue,
	notifier SessionNotifier,
) *sessionScheduler {
	return &sessionScheduler{
		sessionRepo: sessionRepo,
		eventQueue:  eventQueue,
		notifier:    notifier,
	}
}

func (s *sessionScheduler) EnsureActiveSession(
	ctx context.Context, gameType string,
) (*model.EnsureSessionResponse, error) {
	gt, ok := xcontext.Configs(ctx).Catalog().GameType(gameType)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid game type %s", gameType)
	}

	active, err := s.sessionRepo.GetActiveByGameType(ctx, gameType)
	if err == nil {
		return &model.EnsureSessionResponse{
			Session: convertSession(active),
			Created: false,
			Note:    noteSessionAlreadyExists,
		}, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get active session of %s: %v", gameType, err)
		return nil, errorx.Unknown
	}

	session, err := s.createSession(ctx, gt)
	if err != nil {
		var errx errorx.Error
		if errors.As(err, &errx) {
			return nil, err
		}

		// The insert lost a race against another scheduler.
		active, getErr := s.sessionRepo.GetActiveByGameType(ctx, gameType)
		if getErr == nil {
			return &model.EnsureSessionResponse{
				Session: convertSession(active),
				Created: false,
				Note:    noteSessionAlreadyExists,
			}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot create session of %s: %v", gameType, err)
		return nil, errorx.Unknown
	}

	common.PromCounters[common.SessionCreatedTotal].WithLabelValues(gameType).Inc()
	xcontext.Logger(ctx).Infof("Created session %d of %s ending at %s",
		session.SessionNumber, gameType, session.EndTime.Format(time.RFC3339))
	s.notifier.Notify(ctx, model.SessionCreatedNotification, session, nil)

	return &model.EnsureSessionResponse{
		Session: convertSession(session),
		Created: true,
	}, nil
}

func (s *sessionScheduler) createSession(ctx context.Context, gt config.GameType) (*entity.Session, error) {
	now := xcontext.Now(ctx)
	number, err := s.nextSessionNumber(ctx, gt, now)
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		Base:          entity.Base{ID: uuid.NewString()},
		GameType:      gt.Key,
		SessionNumber: number,
		StartTime:     now,
		EndTime:       now.Add(gt.Duration.Duration),
		Status:        entity.SessionOpen,
		ActiveSlot:    sql.NullString{String: gt.Key, Valid: true},
		ResultsData:   entity.Map{"status": sessionAcceptingBets},
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	_, err = s.eventQueue.Enqueue(ctx, entity.EventSessionExpired, session, session.EndTime, entity.Map{
		"session_number": session.SessionNumber,
	})
	if err != nil {
		return nil, err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

// nextSessionNumber returns YYYYMMDD*10000 + offset + n where n counts the
// sessions of the game type created during the day, starting from 1.
func (s *sessionScheduler) nextSessionNumber(ctx context.Context, gt config.GameType, now time.Time) (int64, error) {
	loc, err := dateutil.LoadLocation(xcontext.Configs(ctx).Lottery.Timezone)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Invalid timezone, fallback to UTC: %v", err)
		loc = time.UTC
	}

	dayBase := dateutil.DayNumber(now, loc)*sessionNumberDayFactor + gt.NumberOffset

	next := dayBase + 1
	last, err := s.sessionRepo.GetLastByGameType(ctx, gt.Key)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if err == nil && last.SessionNumber > dayBase {
		next = last.SessionNumber + 1
	}

	if next-dayBase == sessionNumberRange {
		xcontext.Logger(ctx).Warnf("Session numbers of %s reached %d and overlap the range of the next game type",
			gt.Key, next)
	}

	return next, nil
}
