package domain

import (
	"testing"

	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_walletDomain_DepositWithdraw(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)
	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	user2Ctx := xcontext.WithRequestUserID(ctx, testutil.User2.ID)

	_, err := p.walletDomain.Deposit(user2Ctx, &model.DepositRequest{UserID: testutil.User2.ID, Amount: 100})
	require.True(t, errorx.IsCode(err, errorx.PermissionDenied))

	_, err = p.walletDomain.Deposit(adminCtx, &model.DepositRequest{UserID: testutil.User2.ID, Amount: -1})
	require.True(t, errorx.IsCode(err, errorx.BadRequest))

	deposit, err := p.walletDomain.Deposit(adminCtx, &model.DepositRequest{
		UserID: testutil.User2.ID, Amount: 1000, Note: "welcome",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), deposit.Transaction.BalanceAfter)
	require.Equal(t, testutil.Admin.ID, deposit.Transaction.CreatedBy)

	withdraw, err := p.walletDomain.Withdraw(adminCtx, &model.WithdrawRequest{UserID: testutil.User2.ID, Amount: 400})
	require.NoError(t, err)
	require.Equal(t, int64(600), withdraw.Transaction.BalanceAfter)

	_, err = p.walletDomain.Withdraw(adminCtx, &model.WithdrawRequest{UserID: testutil.User2.ID, Amount: 601})
	require.True(t, errorx.IsCode(err, errorx.InsufficientBalance))

	balance, err := p.walletDomain.GetBalance(user2Ctx, &model.GetBalanceRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(600), balance.User.Balance)

	txs, err := p.walletDomain.GetTransactions(user2Ctx, &model.GetTransactionsRequest{})
	require.NoError(t, err)
	require.Len(t, txs.Transactions, 2)

	verify, err := p.walletDomain.VerifyBalance(adminCtx, &model.VerifyBalanceRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)
	require.True(t, verify.Consistent)
	require.Equal(t, int64(600), verify.LedgerSum)
}
