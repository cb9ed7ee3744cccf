package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

type SessionUpdate struct {
	Status         entity.SessionStatus
	WinningNumbers entity.Array[string]
	ResultsData    entity.Map
}

type SessionFilter struct {
	GameType string
	Status   entity.SessionStatus
	Offset   int
	Limit    int
}

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	GetActiveByGameType(ctx context.Context, gameType string) (*entity.Session, error)
	GetLastByGameType(ctx context.Context, gameType string) (*entity.Session, error)
	GetLastCompletedByGameType(ctx context.Context, gameType string) (*entity.Session, error)
	GetOverdue(ctx context.Context, before time.Time) ([]entity.Session, error)
	GetList(ctx context.Context, filter SessionFilter) ([]entity.Session, error)

	// IncreaseBetCount returns gorm.ErrRecordNotFound if the session is not
	// open or has ended before now.
	IncreaseBetCount(ctx context.Context, id string, now time.Time) error

	// UpdateIfStatus applies update only if the session is currently in one of
	// the given statuses. It returns gorm.ErrRecordNotFound otherwise.
	UpdateIfStatus(ctx context.Context, id string, from []entity.SessionStatus, update SessionUpdate) error
}

type sessionRepository struct{}

func NewSessionRepository() *sessionRepository {
	return &sessionRepository{}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	return xcontext.DB(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	var result entity.Session
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *sessionRepository) GetActiveByGameType(ctx context.Context, gameType string) (*entity.Session, error) {
	var result entity.Session
	if err := xcontext.DB(ctx).Take(&result, "active_slot=?", gameType).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *sessionRepository) GetLastByGameType(ctx context.Context, gameType string) (*entity.Session, error) {
	var result entity.Session
	err := xcontext.DB(ctx).Where("game_type=?", gameType).
		Order("session_number DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *sessionRepository) GetLastCompletedByGameType(ctx context.Context, gameType string) (*entity.Session, error) {
	var result entity.Session
	err := xcontext.DB(ctx).Where("game_type=? AND status=?", gameType, entity.SessionCompleted).
		Order("session_number DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *sessionRepository) GetOverdue(ctx context.Context, before time.Time) ([]entity.Session, error) {
	var result []entity.Session
	err := xcontext.DB(ctx).
		Where("status IN (?) AND end_time <= ?", entity.NonTerminalSessionStatuses, before).
		Order("end_time ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *sessionRepository) GetList(ctx context.Context, filter SessionFilter) ([]entity.Session, error) {
	var result []entity.Session
	tx := xcontext.DB(ctx).Order("session_number DESC").Offset(filter.Offset).Limit(filter.Limit)
	if filter.GameType != "" {
		tx = tx.Where("game_type=?", filter.GameType)
	}

	if filter.Status != "" {
		tx = tx.Where("status=?", filter.Status)
	}

	if err := tx.Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *sessionRepository) IncreaseBetCount(ctx context.Context, id string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Session{}).
		Where("id=? AND status=? AND end_time > ?", id, entity.SessionOpen, now).
		Update("bet_count", gorm.Expr("bet_count+?", 1))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *sessionRepository) UpdateIfStatus(
	ctx context.Context, id string, from []entity.SessionStatus, update SessionUpdate,
) error {
	updateMap := map[string]any{
		"status": update.Status,
	}

	if update.Status.IsTerminal() {
		updateMap["active_slot"] = sql.NullString{}
	}

	if update.WinningNumbers != nil {
		updateMap["winning_numbers"] = update.WinningNumbers
	}

	if update.ResultsData != nil {
		updateMap["results_data"] = update.ResultsData
	}

	tx := xcontext.DB(ctx).Model(&entity.Session{}).
		Where("id=? AND status IN (?)", id, from).
		Updates(updateMap)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
