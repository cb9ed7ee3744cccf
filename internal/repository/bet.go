package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

type BetRepository interface {
	Create(ctx context.Context, bet *entity.Bet) error
	GetByID(ctx context.Context, id string) (*entity.Bet, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]entity.Bet, error)
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Bet, error)
	GetByUserIDAndSessionID(ctx context.Context, userID, sessionID string) ([]entity.Bet, error)

	// GetPendingBySessionID returns at most limit pending bets whose id is
	// greater than afterID, in id order.
	GetPendingBySessionID(ctx context.Context, sessionID, afterID string, limit int) ([]entity.Bet, error)

	// Resolve moves a pending bet to status. It returns gorm.ErrRecordNotFound
	// if the bet has already been resolved.
	Resolve(ctx context.Context, id string, status entity.BetStatus, winCount int, winAmount int64, at time.Time) error
}

type betRepository struct{}

func NewBetRepository() *betRepository {
	return &betRepository{}
}

func (r *betRepository) Create(ctx context.Context, bet *entity.Bet) error {
	return xcontext.DB(ctx).Create(bet).Error
}

func (r *betRepository) GetByID(ctx context.Context, id string) (*entity.Bet, error) {
	var result entity.Bet
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *betRepository) GetBySessionID(ctx context.Context, sessionID string) ([]entity.Bet, error) {
	var result []entity.Bet
	if err := xcontext.DB(ctx).Order("id ASC").Find(&result, "session_id=?", sessionID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *betRepository) GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Bet, error) {
	var result []entity.Bet
	err := xcontext.DB(ctx).Where("user_id=?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *betRepository) GetByUserIDAndSessionID(ctx context.Context, userID, sessionID string) ([]entity.Bet, error) {
	var result []entity.Bet
	err := xcontext.DB(ctx).Where("user_id=? AND session_id=?", userID, sessionID).
		Order("created_at ASC").Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *betRepository) GetPendingBySessionID(
	ctx context.Context, sessionID, afterID string, limit int,
) ([]entity.Bet, error) {
	var result []entity.Bet
	err := xcontext.DB(ctx).
		Where("session_id=? AND status=? AND id > ?", sessionID, entity.BetPending, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *betRepository) Resolve(
	ctx context.Context, id string, status entity.BetStatus, winCount int, winAmount int64, at time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Bet{}).
		Where("id=? AND status=?", id, entity.BetPending).
		Updates(map[string]any{
			"status":     status,
			"win_count":  winCount,
			"win_amount": winAmount,
			"settled_at": sql.NullTime{Time: at, Valid: true},
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
