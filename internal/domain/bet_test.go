package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_betDomain_Place(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)
	session := testutil.CreateOpenSession(ctx, "session1", "lottery_1m", 202501021001, testutil.FixedTime.Add(time.Minute))
	user1Ctx := xcontext.WithRequestUserID(ctx, testutil.User1.ID)

	// Currency stake.
	resp, err := p.betDomain.Place(user1Ctx, &model.PlaceBetRequest{
		SessionID: session.ID,
		BetType:   "lo_2_so",
		Numbers:   []string{"12", "34"},
		Stake:     1000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2000), resp.Bet.Amount)
	require.Equal(t, string(entity.BetPending), resp.Bet.Status)
	require.Equal(t, int64(-2000), resp.Transaction.Amount)
	require.Equal(t, string(entity.TransactionPurchase), resp.Transaction.Type)
	require.Equal(t, resp.Bet.ID, resp.Transaction.ReferenceID)

	// Point stake costs the point price per point.
	resp, err = p.betDomain.Place(user1Ctx, &model.PlaceBetRequest{
		SessionID: session.ID,
		BetType:   "point_lo_2_so",
		Numbers:   []string{"12"},
		Stake:     2,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2*27000), resp.Bet.Amount)

	updated, err := p.sessionRepo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, 2, updated.BetCount)

	user, err := p.userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.Balance-2000-54000, user.Balance)

	bets, err := p.betDomain.GetMyBets(user1Ctx, &model.GetMyBetsRequest{})
	require.NoError(t, err)
	require.Len(t, bets.Bets, 2)
}

func Test_betDomain_Place_Errors(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)
	testutil.CreateOpenSession(ctx, "open", "lottery_1m", 202501021001, testutil.FixedTime.Add(time.Minute))
	testutil.CreateOpenSession(ctx, "ended", "lottery_5m", 202501022001, testutil.FixedTime)

	validReq := func(sessionID string) *model.PlaceBetRequest {
		return &model.PlaceBetRequest{
			SessionID: sessionID,
			BetType:   "lo_2_so",
			Numbers:   []string{"12"},
			Stake:     10,
		}
	}

	tests := []struct {
		name    string
		userID  string
		req     *model.PlaceBetRequest
		wantErr errorx.Code
	}{
		{
			name:    "not logged in",
			req:     validReq("open"),
			wantErr: errorx.Unauthenticated,
		},
		{
			name:    "insufficient balance",
			userID:  testutil.User2.ID,
			req:     validReq("open"),
			wantErr: errorx.InsufficientBalance,
		},
		{
			name:    "ended session",
			userID:  testutil.User1.ID,
			req:     validReq("ended"),
			wantErr: errorx.BadRequest,
		},
		{
			name:    "unknown session",
			userID:  testutil.User1.ID,
			req:     validReq("unknown"),
			wantErr: errorx.NotFound,
		},
		{
			name:   "invalid number",
			userID: testutil.User1.ID,
			req: &model.PlaceBetRequest{
				SessionID: "open", BetType: "lo_2_so", Numbers: []string{"123"}, Stake: 10,
			},
			wantErr: errorx.BadRequest,
		},
		{
			name:   "duplicated number",
			userID: testutil.User1.ID,
			req: &model.PlaceBetRequest{
				SessionID: "open", BetType: "lo_2_so", Numbers: []string{"12", "12"}, Stake: 10,
			},
			wantErr: errorx.BadRequest,
		},
		{
			name:   "unknown bet type",
			userID: testutil.User1.ID,
			req: &model.PlaceBetRequest{
				SessionID: "open", BetType: "lo_3_so", Numbers: []string{"12"}, Stake: 10,
			},
			wantErr: errorx.InvalidBetType,
		},
		{
			name:   "stake above max",
			userID: testutil.User1.ID,
			req: &model.PlaceBetRequest{
				SessionID: "open", BetType: "point_lo_2_so", Numbers: []string{"12"}, Stake: 100_001,
			},
			wantErr: errorx.BadRequest,
		},
		{
			name:   "stake wrapping the cost around",
			userID: testutil.User1.ID,
			req: &model.PlaceBetRequest{
				SessionID: "open", BetType: "lo_2_so", Numbers: allNumbers(), Stake: 3135946492530623775,
			},
			wantErr: errorx.BadRequest,
		},
		{
			name:   "zero stake",
			userID: testutil.User1.ID,
			req: &model.PlaceBetRequest{
				SessionID: "open", BetType: "lo_2_so", Numbers: []string{"12"}, Stake: 0,
			},
			wantErr: errorx.BadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqCtx context.Context = ctx
			if tt.userID != "" {
				reqCtx = xcontext.WithRequestUserID(ctx, tt.userID)
			}

			_, err := p.betDomain.Place(reqCtx, tt.req)
			require.Error(t, err)
			require.True(t, errorx.IsCode(err, tt.wantErr), err.Error())
		})
	}

	// No refused bet left a trace.
	bets, err := p.betRepo.GetBySessionID(ctx, "open")
	require.NoError(t, err)
	require.Empty(t, bets)

	session, err := p.sessionRepo.GetByID(ctx, "open")
	require.NoError(t, err)
	require.Equal(t, 0, session.BetCount)
}

func Test_betDomain_GetSessionBets(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)
	session := testutil.CreateOpenSession(ctx, "session1", "lottery_1m", 202501021001, testutil.FixedTime)

	createBet(t, ctx, p, "bet1", session.ID, "lo_2_so", 10, "12")
	require.NoError(t, p.betRepo.Create(ctx, &entity.Bet{
		Base:      entity.Base{ID: "bet2"},
		UserID:    testutil.User2.ID,
		SessionID: session.ID,
		BetType:   "lo_2_so",
		Numbers:   []string{"34"},
		Stake:     10,
		Status:    entity.BetPending,
	}))

	resp, err := p.betDomain.GetSessionBets(
		xcontext.WithRequestUserID(ctx, testutil.User2.ID), &model.GetSessionBetsRequest{SessionID: session.ID})
	require.NoError(t, err)
	require.Len(t, resp.Bets, 1)
	require.Equal(t, "bet2", resp.Bets[0].ID)

	resp, err = p.betDomain.GetSessionBets(
		xcontext.WithRequestUserID(ctx, testutil.Admin.ID), &model.GetSessionBetsRequest{SessionID: session.ID})
	require.NoError(t, err)
	require.Len(t, resp.Bets, 2)
}

func allNumbers() []string {
	numbers := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		numbers = append(numbers, fmt.Sprintf("%02d", i))
	}

	return numbers
}
