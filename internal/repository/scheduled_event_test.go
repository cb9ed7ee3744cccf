package repository

import (
	"testing"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestScheduledEventRepository_GetReady(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewScheduledEventRepository()
	now := testutil.FixedTime

	for _, e := range []*entity.ScheduledEvent{
		{Base: entity.Base{ID: "late"}, EventType: entity.EventSessionExpired, Status: entity.EventPending, ScheduledAt: now.Add(-time.Second)},
		{Base: entity.Base{ID: "early"}, EventType: entity.EventSessionExpired, Status: entity.EventPending, ScheduledAt: now.Add(-time.Minute)},
		{Base: entity.Base{ID: "future"}, EventType: entity.EventSessionExpired, Status: entity.EventPending, ScheduledAt: now.Add(time.Second)},
		{Base: entity.Base{ID: "done"}, EventType: entity.EventSessionExpired, Status: entity.EventCompleted, ScheduledAt: now.Add(-time.Hour)},
	} {
		require.NoError(t, repo.Create(ctx, e))
	}

	events, err := repo.GetReady(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "early", events[0].ID)
	require.Equal(t, "late", events[1].ID)

	events, err = repo.GetReady(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "early", events[0].ID)
}

func TestScheduledEventRepository_Claim(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewScheduledEventRepository()
	now := testutil.FixedTime

	require.NoError(t, repo.Create(ctx, &entity.ScheduledEvent{
		Base:        entity.Base{ID: "event1"},
		EventType:   entity.EventDrawCompleted,
		Status:      entity.EventPending,
		ScheduledAt: now,
	}))

	require.NoError(t, repo.Claim(ctx, "event1", "worker-a", now, time.Minute))

	// A second claimer loses.
	require.ErrorIs(t, repo.Claim(ctx, "event1", "worker-b", now, time.Minute), gorm.ErrRecordNotFound)

	event, err := repo.GetByID(ctx, "event1")
	require.NoError(t, err)
	require.Equal(t, entity.EventProcessing, event.Status)
	require.Equal(t, "worker-a", event.LeaseOwner)
	require.Equal(t, 1, event.Attempts)
	require.True(t, event.LeaseExpiresAt.Valid)

	// Only the lease owner can finish the event.
	require.ErrorIs(t, repo.Complete(ctx, "event1", "worker-b", now), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Complete(ctx, "event1", "worker-a", now))

	event, err = repo.GetByID(ctx, "event1")
	require.NoError(t, err)
	require.Equal(t, entity.EventCompleted, event.Status)
	require.True(t, event.ProcessedAt.Valid)

	// A completed event cannot be finished again.
	require.ErrorIs(t, repo.Fail(ctx, "event1", "worker-a", now, 0, "late"), gorm.ErrRecordNotFound)
}

func TestScheduledEventRepository_ReleaseExpiredAndRetry(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewScheduledEventRepository()
	now := testutil.FixedTime

	for _, id := range []string{"stale", "fresh"} {
		require.NoError(t, repo.Create(ctx, &entity.ScheduledEvent{
			Base:        entity.Base{ID: id},
			EventType:   entity.EventSessionExpired,
			Status:      entity.EventPending,
			ScheduledAt: now,
		}))
	}

	require.NoError(t, repo.Claim(ctx, "stale", "crashed", now, time.Minute))
	require.NoError(t, repo.Claim(ctx, "fresh", "alive", now.Add(time.Minute), time.Minute))

	n, failed, err := repo.ReleaseExpired(ctx, now.Add(90*time.Second), 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.Equal(t, int64(0), failed)

	stale, err := repo.GetByID(ctx, "stale")
	require.NoError(t, err)
	require.Equal(t, entity.EventPending, stale.Status)
	require.Empty(t, stale.LeaseOwner)

	// The crashed worker has lost its lease.
	require.ErrorIs(t, repo.Complete(ctx, "stale", "crashed", now), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Fail(ctx, "fresh", "alive", now, 300002, "boom"))
	fresh, err := repo.GetByID(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, entity.EventFailed, fresh.Status)
	require.Equal(t, 300002, fresh.ErrorCode)
	require.Equal(t, "boom", fresh.ErrorMessage)

	require.NoError(t, repo.Retry(ctx, "fresh", now))
	require.ErrorIs(t, repo.Retry(ctx, "fresh", now), gorm.ErrRecordNotFound)

	fresh, err = repo.GetByID(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, entity.EventPending, fresh.Status)
	require.Zero(t, fresh.ErrorCode)
}

func TestScheduledEventRepository_ReleaseExpired_MaxAttempts(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewScheduledEventRepository()
	now := testutil.FixedTime

	for _, e := range []*entity.ScheduledEvent{
		{Base: entity.Base{ID: "poison"}, EventType: entity.EventDrawCompleted, Status: entity.EventPending, ScheduledAt: now, Attempts: 2},
		{Base: entity.Base{ID: "young"}, EventType: entity.EventDrawCompleted, Status: entity.EventPending, ScheduledAt: now},
	} {
		require.NoError(t, repo.Create(ctx, e))
		require.NoError(t, repo.Claim(ctx, e.ID, "crashed", now, time.Minute))
	}

	released, failed, err := repo.ReleaseExpired(ctx, now.Add(time.Minute), 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), released)
	require.Equal(t, int64(1), failed)

	poison, err := repo.GetByID(ctx, "poison")
	require.NoError(t, err)
	require.Equal(t, entity.EventFailed, poison.Status)
	require.Equal(t, 3, poison.Attempts)
	require.False(t, poison.LeaseExpiresAt.Valid)
	require.True(t, poison.ProcessedAt.Valid)

	young, err := repo.GetByID(ctx, "young")
	require.NoError(t, err)
	require.Equal(t, entity.EventPending, young.Status)
	require.Equal(t, 1, young.Attempts)

	// Without a limit every expired event goes back to pending.
	require.NoError(t, repo.Claim(ctx, "young", "crashed", now, time.Minute))
	released, failed, err = repo.ReleaseExpired(ctx, now.Add(time.Minute), 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), released)
	require.Equal(t, int64(0), failed)
}

func TestScheduledEventRepository_HasActive(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewScheduledEventRepository()
	now := testutil.FixedTime

	require.NoError(t, repo.Create(ctx, &entity.ScheduledEvent{
		Base:        entity.Base{ID: "event1"},
		EventType:   entity.EventPayoutCompleted,
		SessionID:   "session1",
		GameType:    "lottery_1m",
		Status:      entity.EventPending,
		ScheduledAt: now,
	}))

	ok, err := repo.HasActiveBySessionID(ctx, "session1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.HasActiveByGameType(ctx, "lottery_1m", entity.EventPayoutCompleted)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.HasActiveByGameType(ctx, "lottery_5m", entity.EventPayoutCompleted)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Claim(ctx, "event1", "w", now, time.Minute))
	require.NoError(t, repo.Complete(ctx, "event1", "w", now))

	ok, err = repo.HasActiveBySessionID(ctx, "session1")
	require.NoError(t, err)
	require.False(t, ok)
}
