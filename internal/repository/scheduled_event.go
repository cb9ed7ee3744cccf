package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

var activeEventStatuses = []entity.EventStatus{entity.EventPending, entity.EventProcessing}

type ScheduledEventRepository interface {
	Create(ctx context.Context, event *entity.ScheduledEvent) error
	GetByID(ctx context.Context, id string) (*entity.ScheduledEvent, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]entity.ScheduledEvent, error)
	GetList(ctx context.Context, status entity.EventStatus, offset, limit int) ([]entity.ScheduledEvent, error)

	// GetReady returns pending events whose scheduled time is not after now,
	// oldest first.
	GetReady(ctx context.Context, now time.Time, limit int) ([]entity.ScheduledEvent, error)

	// Claim moves a pending event to processing and leases it to owner. It
	// returns gorm.ErrRecordNotFound if another worker claimed it first.
	Claim(ctx context.Context, id, owner string, now time.Time, leaseTTL time.Duration) error

	// The following methods only apply to an event which is still leased to
	// owner and return gorm.ErrRecordNotFound otherwise.
	Complete(ctx context.Context, id, owner string, now time.Time) error
	Fail(ctx context.Context, id, owner string, now time.Time, code int, message string) error
	Requeue(ctx context.Context, id, owner string, scheduledAt time.Time, message string) error

	// ReleaseExpired puts every processing event whose lease expired before now
	// back to pending. An expired event which already made maxAttempts attempts
	// is failed instead. A non-positive maxAttempts never fails an event.
	ReleaseExpired(ctx context.Context, now time.Time, maxAttempts int) (released, failed int64, err error)

	// Retry moves a failed event back to pending.
	Retry(ctx context.Context, id string, now time.Time) error

	HasActiveBySessionID(ctx context.Context, sessionID string) (bool, error)
	HasBySessionID(ctx context.Context, sessionID string, statuses []entity.EventStatus) (bool, error)
	HasActiveByGameType(ctx context.Context, gameType string, eventType entity.EventType) (bool, error)
}

type scheduledEventRepository struct{}

func NewScheduledEventRepository() *scheduledEventRepository {
	return &scheduledEventRepository{}
}

func (r *scheduledEventRepository) Create(ctx context.Context, event *entity.ScheduledEvent) error {
	return xcontext.DB(ctx).Create(event).Error
}

func (r *scheduledEventRepository) GetByID(ctx context.Context, id string) (*entity.ScheduledEvent, error) {
	var result entity.ScheduledEvent
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *scheduledEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]entity.ScheduledEvent, error) {
	var result []entity.ScheduledEvent
	err := xcontext.DB(ctx).Where("session_id=?", sessionID).
		Order("scheduled_at ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *scheduledEventRepository) GetList(
	ctx context.Context, status entity.EventStatus, offset, limit int,
) ([]entity.ScheduledEvent, error) {
	var result []entity.ScheduledEvent
	tx := xcontext.DB(ctx).Order("scheduled_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		tx = tx.Where("status=?", status)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *scheduledEventRepository) GetReady(
	ctx context.Context, now time.Time, limit int,
) ([]entity.ScheduledEvent, error) {
	var result []entity.ScheduledEvent
	err := xcontext.DB(ctx).
		Where("status=? AND scheduled_at <= ?", entity.EventPending, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *scheduledEventRepository) Claim(
	ctx context.Context, id, owner string, now time.Time, leaseTTL time.Duration,
) error {
	tx := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("id=? AND status=?", id, entity.EventPending).
		Updates(map[string]any{
			"status":           entity.EventProcessing,
			"lease_owner":      owner,
			"lease_expires_at": sql.NullTime{Time: now.Add(leaseTTL), Valid: true},
			"attempts":         gorm.Expr("attempts+?", 1),
		})
	return checkAffected(tx)
}

func (r *scheduledEventRepository) Complete(ctx context.Context, id, owner string, now time.Time) error {
	return r.finish(ctx, id, owner, map[string]any{
		"status":           entity.EventCompleted,
		"processed_at":     sql.NullTime{Time: now, Valid: true},
		"lease_expires_at": sql.NullTime{},
		"error_code":       0,
		"error_message":    "",
	})
}

func (r *scheduledEventRepository) Fail(
	ctx context.Context, id, owner string, now time.Time, code int, message string,
) error {
	return r.finish(ctx, id, owner, map[string]any{
		"status":           entity.EventFailed,
		"processed_at":     sql.NullTime{Time: now, Valid: true},
		"lease_expires_at": sql.NullTime{},
		"error_code":       code,
		"error_message":    message,
	})
}

func (r *scheduledEventRepository) Requeue(
	ctx context.Context, id, owner string, scheduledAt time.Time, message string,
) error {
	return r.finish(ctx, id, owner, map[string]any{
		"status":           entity.EventPending,
		"scheduled_at":     scheduledAt,
		"lease_owner":      "",
		"lease_expires_at": sql.NullTime{},
		"error_message":    message,
	})
}

func (r *scheduledEventRepository) finish(ctx context.Context, id, owner string, updateMap map[string]any) error {
	tx := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("id=? AND status=? AND lease_owner=?", id, entity.EventProcessing, owner).
		Updates(updateMap)
	return checkAffected(tx)
}

func (r *scheduledEventRepository) ReleaseExpired(
	ctx context.Context, now time.Time, maxAttempts int,
) (int64, int64, error) {
	var failed int64
	if maxAttempts > 0 {
		tx := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
			Where("status=? AND lease_expires_at <= ? AND attempts >= ?", entity.EventProcessing, now, maxAttempts).
			Updates(map[string]any{
				"status":           entity.EventFailed,
				"processed_at":     sql.NullTime{Time: now, Valid: true},
				"lease_expires_at": sql.NullTime{},
				"error_message":    fmt.Sprintf("lease expired after %d attempts", maxAttempts),
			})
		if tx.Error != nil {
			return 0, 0, tx.Error
		}

		failed = tx.RowsAffected
	}

	tx := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("status=? AND lease_expires_at <= ?", entity.EventProcessing, now).
		Updates(map[string]any{
			"status":           entity.EventPending,
			"lease_owner":      "",
			"lease_expires_at": sql.NullTime{},
			"error_message":    "lease expired",
		})
	if tx.Error != nil {
		return 0, failed, tx.Error
	}

	return tx.RowsAffected, failed, nil
}

func (r *scheduledEventRepository) Retry(ctx context.Context, id string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("id=? AND status=?", id, entity.EventFailed).
		Updates(map[string]any{
			"status":       entity.EventPending,
			"scheduled_at": now,
			"lease_owner":  "",
			"processed_at": sql.NullTime{},
			"error_code":   0,
		})
	return checkAffected(tx)
}

func (r *scheduledEventRepository) HasActiveBySessionID(ctx context.Context, sessionID string) (bool, error) {
	return r.HasBySessionID(ctx, sessionID, activeEventStatuses)
}

func (r *scheduledEventRepository) HasBySessionID(
	ctx context.Context, sessionID string, statuses []entity.EventStatus,
) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("session_id=? AND status IN (?)", sessionID, statuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *scheduledEventRepository) HasActiveByGameType(
	ctx context.Context, gameType string, eventType entity.EventType,
) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.ScheduledEvent{}).
		Where("game_type=? AND event_type=? AND status IN (?)", gameType, eventType, activeEventStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func checkAffected(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
