package repository

import (
	"context"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	GetLastByUserID(ctx context.Context, userID string) (*entity.Transaction, error)
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.Transaction, error)
	GetByReference(ctx context.Context, txType entity.TransactionType, referenceID string) (*entity.Transaction, error)
	SumAmountByUserID(ctx context.Context, userID string) (int64, error)
}

type transactionRepository struct{}

func NewTransactionRepository() *transactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	return xcontext.DB(ctx).Create(tx).Error
}

func (r *transactionRepository) GetLastByUserID(ctx context.Context, userID string) (*entity.Transaction, error) {
	var result entity.Transaction
	err := xcontext.DB(ctx).Where("user_id=?", userID).
		Order("sequence DESC").Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *transactionRepository) GetByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.Transaction, error) {
	var result []entity.Transaction
	err := xcontext.DB(ctx).Where("user_id=?", userID).
		Order("sequence DESC").Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *transactionRepository) GetByReference(
	ctx context.Context, txType entity.TransactionType, referenceID string,
) (*entity.Transaction, error) {
	var result entity.Transaction
	err := xcontext.DB(ctx).
		Take(&result, "type=? AND reference_id=?", txType, referenceID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *transactionRepository) SumAmountByUserID(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := xcontext.DB(ctx).Model(&entity.Transaction{}).
		Where("user_id=?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}

	return sum, nil
}
