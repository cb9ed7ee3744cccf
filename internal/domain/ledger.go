package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"gorm.io/gorm"
)

type LedgerEntry struct {
	Type        entity.TransactionType
	ReferenceID string
	CreatedBy   string
	Note        string
}

// Ledger is the only writer of user balances. Every balance change appends a
// transaction whose BalanceBefore must equal the BalanceAfter of the previous
// one, otherwise the change is refused.
type Ledger interface {
	Credit(ctx context.Context, userID string, amount int64, entry LedgerEntry) (*entity.Transaction, error)
	Debit(ctx context.Context, userID string, amount int64, entry LedgerEntry) (*entity.Transaction, error)
	Verify(ctx context.Context, userID string) (*LedgerState, error)
}

type LedgerState struct {
	Balance   int64
	LedgerSum int64
	ChainTail int64
}

func (s LedgerState) Consistent() bool {
	return s.Balance == s.LedgerSum && s.Balance == s.ChainTail
}

type ledger struct {
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	node            *snowflake.Node
}

func NewLedger(
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	node *snowflake.Node,
) *ledger {
	return &ledger{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		node:            node,
	}
}

func (l *ledger) Credit(
	ctx context.Context, userID string, amount int64, entry LedgerEntry,
) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Credit amount must be a positive number")
	}

	return l.apply(ctx, userID, amount, entry)
}

func (l *ledger) Debit(
	ctx context.Context, userID string, amount int64, entry LedgerEntry,
) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Debit amount must be a positive number")
	}

	return l.apply(ctx, userID, -amount, entry)
}

func (l *ledger) apply(
	ctx context.Context, userID string, delta int64, entry LedgerEntry,
) (*entity.Transaction, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// Updating the balance first locks the user row, so the chain read below
	// cannot be stale.
	var err error
	if delta > 0 {
		err = l.userRepo.IncreaseBalance(ctx, userID, delta)
	} else {
		err = l.userRepo.DecreaseBalance(ctx, userID, -delta)
	}

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot update balance of user %s: %v", userID, err)
			return nil, errorx.Unknown
		}

		if _, err := l.userRepo.GetByID(ctx, userID); err != nil {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		return nil, errorx.New(errorx.InsufficientBalance, "Insufficient balance")
	}

	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	var chainTail, sequence int64
	last, err := l.transactionRepo.GetLastByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get last transaction of user %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	if err == nil {
		chainTail = last.BalanceAfter
		sequence = last.Sequence
	}

	before := user.Balance - delta
	if before != chainTail {
		common.PromCounters[common.LedgerInvariantViolation].WithLabelValues(string(entry.Type)).Inc()
		xcontext.Logger(ctx).Errorf("Ledger invariant violation of user %s: balance before is %d but chain tail is %d",
			userID, before, chainTail)
		return nil, errorx.New(errorx.InvariantViolation, "Balance of user %s does not match its ledger", userID)
	}

	tx := &entity.Transaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: l.node.Generate().Int64()},
		UserID:        userID,
		Sequence:      sequence + 1,
		Type:          entry.Type,
		ReferenceID:   entry.ReferenceID,
		Amount:        delta,
		BalanceBefore: before,
		BalanceAfter:  user.Balance,
		CreatedBy:     entry.CreatedBy,
		Note:          entry.Note,
	}

	if err := l.transactionRepo.Create(ctx, tx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create transaction of user %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit transaction of user %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	return tx, nil
}

func (l *ledger) Verify(ctx context.Context, userID string) (*LedgerState, error) {
	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	sum, err := l.transactionRepo.SumAmountByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sum ledger of user %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	state := &LedgerState{Balance: user.Balance, LedgerSum: sum}
	last, err := l.transactionRepo.GetLastByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get last transaction of user %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	if err == nil {
		state.ChainTail = last.BalanceAfter
	}

	return state, nil
}
