package domain

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_sessionScheduler_EnsureActiveSession(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	p := newTestPipeline(t, ctx)

	first, err := p.scheduler.EnsureActiveSession(ctx, "lottery_5m")
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Equal(t, int64(202501022001), first.Session.SessionNumber)
	require.Equal(t, string(entity.SessionOpen), first.Session.Status)
	require.Equal(t, "accepting_bets", first.Session.ResultsData["status"])

	second, err := p.scheduler.EnsureActiveSession(ctx, "lottery_5m")
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, noteSessionAlreadyExists, second.Note)
	require.Equal(t, first.Session.ID, second.Session.ID)

	events := eventsOf(t, ctx, p, first.Session.ID, entity.EventSessionExpired)
	require.Len(t, events, 1)
	require.True(t, events[0].ScheduledAt.Equal(testutil.FixedTime.Add(5*time.Minute)))

	_, err = p.scheduler.EnsureActiveSession(ctx, "lottery_2m")
	require.True(t, errorx.IsCode(err, errorx.BadRequest))
}

// racingSessionRepository runs rival right before the first insert, as if
// another scheduler had created the session in between.
type racingSessionRepository struct {
	repository.SessionRepository

	once  sync.Once
	rival func()
}

func (r *racingSessionRepository) Create(ctx context.Context, session *entity.Session) error {
	r.once.Do(r.rival)
	return r.SessionRepository.Create(ctx, session)
}

func Test_sessionScheduler_EnsureActiveSession_LostRace(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	p := newTestPipeline(t, ctx)

	var rival *model.EnsureSessionResponse
	repo := &racingSessionRepository{SessionRepository: p.sessionRepo}
	repo.rival = func() {
		var err error
		rival, err = p.scheduler.EnsureActiveSession(ctx, "lottery_1m")
		require.NoError(t, err)
		require.True(t, rival.Created)
	}

	scheduler := NewSessionScheduler(repo, p.eventQueue, NewSessionNotifier(p.publisher))
	resp, err := scheduler.EnsureActiveSession(ctx, "lottery_1m")
	require.NoError(t, err)
	require.False(t, resp.Created)
	require.Equal(t, noteSessionAlreadyExists, resp.Note)
	require.Equal(t, rival.Session.ID, resp.Session.ID)

	var sessions int64
	err = xcontext.DB(ctx).Model(&entity.Session{}).
		Where("game_type=? AND active_slot IS NOT NULL", "lottery_1m").
		Count(&sessions).Error
	require.NoError(t, err)
	require.Equal(t, int64(1), sessions)

	var events int64
	err = xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("game_type=? AND event_type=?", "lottery_1m", entity.EventSessionExpired).
		Count(&events).Error
	require.NoError(t, err)
	require.Equal(t, int64(1), events)

	// Only the winner announced a session.
	require.Equal(t, 1, p.publisher.Count(model.SessionTopic))
}

func Test_sessionScheduler_SessionNumber(t *testing.T) {
	tests := []struct {
		name string
		last int64
		want int64
	}{
		{name: "first session", last: 0, want: 202501021001},
		{name: "same day", last: 202501021004, want: 202501021005},
		{name: "after midnight", last: 202501011480, want: 202501021001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
			p := newTestPipeline(t, ctx)

			if tt.last != 0 {
				err := p.sessionRepo.Create(ctx, &entity.Session{
					Base:          entity.Base{ID: "last"},
					GameType:      "lottery_1m",
					SessionNumber: tt.last,
					StartTime:     testutil.FixedTime.Add(-2 * time.Minute),
					EndTime:       testutil.FixedTime.Add(-time.Minute),
					Status:        entity.SessionCompleted,
					ActiveSlot:    sql.NullString{},
				})
				require.NoError(t, err)
			}

			resp, err := p.scheduler.EnsureActiveSession(ctx, "lottery_1m")
			require.NoError(t, err)
			require.True(t, resp.Created)
			require.Equal(t, tt.want, resp.Session.SessionNumber)
		})
	}
}

func Test_sessionScheduler_Timezone(t *testing.T) {
	ctx := testutil.MockContext()
	cfg := testutil.MockConfigs()
	cfg.Lottery.Timezone = "Asia/Ho_Chi_Minh"
	ctx = xcontext.WithConfigs(ctx, cfg)

	// 20:00 UTC is already the next day in UTC+7.
	ctx = testutil.WithFixedClock(ctx, time.Date(2025, 1, 2, 20, 0, 0, 0, time.UTC))
	p := newTestPipeline(t, ctx)

	resp, err := p.scheduler.EnsureActiveSession(ctx, "lottery_30m")
	require.NoError(t, err)
	require.Equal(t, int64(202501033001), resp.Session.SessionNumber)
}
