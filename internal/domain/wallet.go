package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type WalletDomain interface {
	GetBalance(context.Context, *model.GetBalanceRequest) (*model.GetBalanceResponse, error)
	GetTransactions(context.Context, *model.GetTransactionsRequest) (*model.GetTransactionsResponse, error)
	Deposit(context.Context, *model.DepositRequest) (*model.DepositResponse, error)
	Withdraw(context.Context, *model.WithdrawRequest) (*model.WithdrawResponse, error)
	VerifyBalance(context.Context, *model.VerifyBalanceRequest) (*model.VerifyBalanceResponse, error)
}

type walletDomain struct {
	userRepo           repository.UserRepository
	transactionRepo    repository.TransactionRepository
	ledger             Ledger
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewWalletDomain(
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	ledger Ledger,
	globalRoleVerifier *common.GlobalRoleVerifier,
) *walletDomain {
	return &walletDomain{
		userRepo:           userRepo,
		transactionRepo:    transactionRepo,
		ledger:             ledger,
		globalRoleVerifier: globalRoleVerifier,
	}
}

func (d *walletDomain) GetBalance(ctx context.Context, req *model.GetBalanceRequest) (*model.GetBalanceResponse, error) {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetBalanceResponse{User: convertUser(user)}, nil
}

func (d *walletDomain) GetTransactions(
	ctx context.Context, req *model.GetTransactionsRequest,
) (*model.GetTransactionsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Need to login")
	}

	txs, err := d.transactionRepo.GetByUserID(ctx, userID, req.Offset, defaultLimit(req.Limit, 20, 100))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transactions: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetTransactionsResponse{Transactions: []model.Transaction{}}
	for i := range txs {
		resp.Transactions = append(resp.Transactions, convertTransaction(&txs[i]))
	}

	return resp, nil
}

func (d *walletDomain) Deposit(ctx context.Context, req *model.DepositRequest) (*model.DepositResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid request: %v", err)
	}

	tx, err := d.ledger.Credit(ctx, req.UserID, req.Amount, LedgerEntry{
		Type:        entity.TransactionDeposit,
		ReferenceID: uuid.NewString(),
		CreatedBy:   xcontext.RequestUserID(ctx),
		Note:        req.Note,
	})
	if err != nil {
		return nil, err
	}

	return &model.DepositResponse{Transaction: convertTransaction(tx)}, nil
}

func (d *walletDomain) Withdraw(ctx context.Context, req *model.WithdrawRequest) (*model.WithdrawResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid request: %v", err)
	}

	tx, err := d.ledger.Debit(ctx, req.UserID, req.Amount, LedgerEntry{
		Type:        entity.TransactionWithdrawal,
		ReferenceID: uuid.NewString(),
		CreatedBy:   xcontext.RequestUserID(ctx),
		Note:        req.Note,
	})
	if err != nil {
		return nil, err
	}

	return &model.WithdrawResponse{Transaction: convertTransaction(tx)}, nil
}

func (d *walletDomain) VerifyBalance(
	ctx context.Context, req *model.VerifyBalanceRequest,
) (*model.VerifyBalanceResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	state, err := d.ledger.Verify(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if !state.Consistent() {
		common.PromCounters[common.LedgerInvariantViolation].WithLabelValues("verify").Inc()
		xcontext.Logger(ctx).Errorf("Ledger of user %s is inconsistent: balance %d, sum %d, chain tail %d",
			req.UserID, state.Balance, state.LedgerSum, state.ChainTail)
	}

	return &model.VerifyBalanceResponse{
		Balance:    state.Balance,
		LedgerSum:  state.LedgerSum,
		ChainTail:  state.ChainTail,
		Consistent: state.Consistent(),
	}, nil
}
