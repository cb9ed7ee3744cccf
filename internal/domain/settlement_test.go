package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/internal/domain/drawing"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/stretchr/testify/require"
)

// createDrawnSession creates a session drawn with the given result.
func createDrawnSession(t *testing.T, ctx context.Context, p *testPipeline, result drawing.Result) *entity.Session {
	session := testutil.CreateOpenSession(ctx, uuid.NewString(), "lottery_1m", 202501021001, testutil.FixedTime)
	err := p.sessionRepo.UpdateIfStatus(ctx, session.ID,
		[]entity.SessionStatus{entity.SessionOpen},
		repository.SessionUpdate{
			Status:         entity.SessionProcessingRewards,
			WinningNumbers: result.Endings(),
			ResultsData:    result.ToMap(),
		})
	require.NoError(t, err)

	session, err = p.sessionRepo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	return session
}

func createBet(t *testing.T, ctx context.Context, p *testPipeline, id, sessionID, betType string, stake int64, numbers ...string) {
	err := p.betRepo.Create(ctx, &entity.Bet{
		Base:      entity.Base{ID: id},
		UserID:    testutil.User1.ID,
		SessionID: sessionID,
		BetType:   betType,
		Numbers:   numbers,
		Stake:     stake,
		Amount:    stake * int64(len(numbers)),
		Status:    entity.BetPending,
	})
	require.NoError(t, err)
}

func Test_settlementEngine_Settle(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)

	// Endings are 23, 23, 45 and 67.
	session := createDrawnSession(t, ctx, p, drawing.Result{
		SpecialPrize: "88823",
		FirstPrize:   []string{"45623"},
		SecondPrize:  []string{"11145", "22267"},
	})

	createBet(t, ctx, p, "bet1", session.ID, "lo_2_so", 100, "23")
	createBet(t, ctx, p, "bet2", session.ID, "point_lo_2_so", 5, "23")
	createBet(t, ctx, p, "bet3", session.ID, "de_dac_biet", 50000, "23")
	createBet(t, ctx, p, "bet4", session.ID, "de_dac_biet", 1000, "45")
	createBet(t, ctx, p, "bet5", session.ID, "unknown", 1000, "23")

	summary, err := p.settlement.Settle(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, summary.Completed)
	require.Equal(t, 5, summary.ProcessedBets)
	require.Equal(t, 3, summary.Winners)
	require.Equal(t, 1, summary.Anomalies)
	require.Equal(t, int64(19800+990000+4950000), summary.TotalPayout)

	wants := map[string]struct {
		status    entity.BetStatus
		winCount  int
		winAmount int64
	}{
		"bet1": {entity.BetWon, 2, 19800},
		"bet2": {entity.BetWon, 2, 990000},
		"bet3": {entity.BetWon, 1, 4950000},
		"bet4": {entity.BetLost, 0, 0},
		"bet5": {entity.BetLost, 0, 0},
	}

	for id, want := range wants {
		bet, err := p.betRepo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want.status, bet.Status, id)
		require.Equal(t, want.winCount, bet.WinCount, id)
		require.Equal(t, want.winAmount, bet.WinAmount, id)
		require.True(t, bet.SettledAt.Valid, id)
	}

	completed, err := p.sessionRepo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, entity.SessionCompleted, completed.Status)
	require.Equal(t, "completed", completed.ResultsData["status"])
	require.Len(t, eventsOf(t, ctx, p, session.ID, entity.EventPayoutCompleted), 1)

	user, err := p.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance+summary.TotalPayout, user.Balance)

	state, err := p.ledger.Verify(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.True(t, state.Consistent())

	// Settling again pays nothing.
	again, err := p.settlement.Settle(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, 0, again.ProcessedBets)
	require.Equal(t, int64(0), again.TotalPayout)
	require.True(t, again.Completed)

	txs, err := p.transactionRepo.GetByUserID(ctx, testutil.User1.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	require.Len(t, eventsOf(t, ctx, p, session.ID, entity.EventPayoutCompleted), 1)

	user, err = p.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance+summary.TotalPayout, user.Balance)
}

func Test_settlementEngine_MissingSpecialPrize(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)

	session := createDrawnSession(t, ctx, p, drawing.Result{FirstPrize: []string{"45623"}})
	createBet(t, ctx, p, "bet1", session.ID, "de_dac_biet", 1000, "23")
	createBet(t, ctx, p, "bet2", session.ID, "lo_2_so", 1000, "23")

	summary, err := p.settlement.Settle(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, 2, summary.ProcessedBets)
	require.Equal(t, 1, summary.Anomalies)
	require.Equal(t, 1, summary.Winners)
	require.Equal(t, int64(1000*99), summary.TotalPayout)
}

func Test_settlementEngine_PayoutOverflow(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)

	// Endings are 23, 23 and 45.
	session := createDrawnSession(t, ctx, p, drawing.Result{
		SpecialPrize: "88823",
		FirstPrize:   []string{"45623"},
		SecondPrize:  []string{"11145"},
	})
	createBet(t, ctx, p, "huge", session.ID, "lo_2_so", 3135946492530623775, "23")
	createBet(t, ctx, p, "small", session.ID, "lo_2_so", 100, "45")

	summary, err := p.settlement.Settle(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, summary.Completed)
	require.Equal(t, 2, summary.ProcessedBets)
	require.Equal(t, 1, summary.Anomalies)
	require.Equal(t, 1, summary.Winners)
	require.Equal(t, int64(100*99), summary.TotalPayout)

	huge, err := p.betRepo.GetByID(ctx, "huge")
	require.NoError(t, err)
	require.Equal(t, entity.BetLost, huge.Status)
	require.Zero(t, huge.WinAmount)

	user, err := p.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance+100*99, user.Balance)
}

func Test_settlementEngine_Preconditions(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	p := newTestPipeline(t, ctx)

	open := testutil.CreateOpenSession(ctx, "open", "lottery_1m", 202501021001, testutil.FixedTime)
	_, err := p.settlement.Settle(ctx, open.ID)
	require.True(t, errorx.IsCode(err, errorx.SessionNotDrawn))

	_, err = p.settlement.Settle(ctx, "unknown")
	require.True(t, errorx.IsCode(err, errorx.NotFound))

	noNumbers := testutil.CreateOpenSession(ctx, "no-numbers", "lottery_5m", 202501022001, testutil.FixedTime)
	err = p.sessionRepo.UpdateIfStatus(ctx, noNumbers.ID,
		[]entity.SessionStatus{entity.SessionOpen},
		repository.SessionUpdate{Status: entity.SessionProcessingRewards})
	require.NoError(t, err)

	_, err = p.settlement.Settle(ctx, noNumbers.ID)
	require.True(t, errorx.IsCode(err, errorx.InvariantViolation))
}

func Test_settlementEngine_LedgerFailureKeepsBetPending(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)

	session := createDrawnSession(t, ctx, p, drawing.Result{SpecialPrize: "12323"})
	createBet(t, ctx, p, "bet1", session.ID, "lo_2_so", 10, "23")

	// Break the chain of user1 so that the credit is refused.
	err := p.userRepo.IncreaseBalance(ctx, testutil.User1.ID, 1)
	require.NoError(t, err)

	_, err = p.settlement.Settle(ctx, session.ID)
	require.Error(t, err)
	require.True(t, errorx.IsCode(err, errorx.InvariantViolation))

	bet, err := p.betRepo.GetByID(ctx, "bet1")
	require.NoError(t, err)
	require.Equal(t, entity.BetPending, bet.Status)

	stillDrawn, err := p.sessionRepo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, entity.SessionProcessingRewards, stillDrawn.Status)
	require.Empty(t, eventsOf(t, ctx, p, session.ID, entity.EventPayoutCompleted))
}
