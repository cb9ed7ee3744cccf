package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/domain/drawing"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/testutil"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionDomain(p *testPipeline, redisClient *testutil.MockRedisClient) *sessionDomain {
	return NewSessionDomain(
		p.sessionRepo,
		p.scheduler,
		p.draw,
		p.settlement,
		common.NewGlobalRoleVerifier(p.userRepo),
		redisClient,
	)
}

func Test_sessionDomain_OperatorOnly(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	testutil.CreateFixtureDb(ctx)
	p := newTestPipeline(t, ctx)
	d := newTestSessionDomain(p, testutil.NewMockRedisClient())

	userCtx := xcontext.WithRequestUserID(ctx, testutil.User1.ID)
	_, err := d.Ensure(userCtx, &model.EnsureSessionRequest{GameType: "lottery_1m"})
	require.True(t, errorx.IsCode(err, errorx.PermissionDenied))

	_, err = d.Settle(userCtx, &model.SettleSessionRequest{SessionID: "any"})
	require.True(t, errorx.IsCode(err, errorx.PermissionDenied))

	adminCtx := xcontext.WithRequestUserID(ctx, testutil.Admin.ID)
	ensured, err := d.Ensure(adminCtx, &model.EnsureSessionRequest{GameType: "lottery_1m"})
	require.NoError(t, err)
	require.True(t, ensured.Created)

	_, err = d.Draw(adminCtx, &model.DrawSessionRequest{SessionID: ensured.Session.ID})
	require.True(t, errorx.IsCode(err, errorx.SessionNotExpired))

	trustedCtx := xcontext.WithTrustedCaller(testutil.WithFixedClock(ctx, testutil.FixedTime.Add(time.Minute)))
	drawn, err := d.Draw(trustedCtx, &model.DrawSessionRequest{SessionID: ensured.Session.ID})
	require.NoError(t, err)
	require.Len(t, drawn.Session.WinningNumbers, drawing.TotalNumbers)

	settled, err := d.Settle(trustedCtx, &model.SettleSessionRequest{SessionID: ensured.Session.ID})
	require.NoError(t, err)
	require.True(t, settled.Summary.Completed)

	got, err := d.Get(ctx, &model.GetSessionRequest{ID: ensured.Session.ID})
	require.NoError(t, err)
	require.Equal(t, "completed", got.Session.Status)
}

func Test_sessionDomain_GetLatestResult(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	p := newTestPipeline(t, ctx)
	redisClient := testutil.NewMockRedisClient()
	d := newTestSessionDomain(p, redisClient)

	_, err := d.GetLatestResult(ctx, &model.GetLatestResultRequest{GameType: "lottery_1m"})
	require.True(t, errorx.IsCode(err, errorx.NotFound))

	_, err = d.GetLatestResult(ctx, &model.GetLatestResultRequest{GameType: "unknown"})
	require.True(t, errorx.IsCode(err, errorx.BadRequest))

	// Falls back to the database when the cache is empty.
	session := createDrawnSession(t, ctx, p, drawing.Result{SpecialPrize: "12345"})
	_, err = p.settlement.Settle(ctx, session.ID)
	require.NoError(t, err)

	resp, err := d.GetLatestResult(ctx, &model.GetLatestResultRequest{GameType: "lottery_1m"})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Equal(t, session.ID, resp.Session.ID)

	cached := model.Session{ID: "cached", GameType: "lottery_1m", Status: "completed"}
	require.NoError(t, redisClient.SetObj(ctx, common.RedisKeyLatestResult("lottery_1m"), cached, time.Hour))

	resp, err = d.GetLatestResult(ctx, &model.GetLatestResultRequest{GameType: "lottery_1m"})
	require.NoError(t, err)
	require.True(t, resp.Cached)
	require.Equal(t, "cached", resp.Session.ID)
}

func Test_sessionDomain_GetRecentResults(t *testing.T) {
	ctx := testutil.WithFixedClock(testutil.MockContext(), testutil.FixedTime)
	p := newTestPipeline(t, ctx)
	redisClient := testutil.NewMockRedisClient()
	d := newTestSessionDomain(p, redisClient)

	resp, err := d.GetRecentResults(ctx, &model.GetRecentResultsRequest{GameType: "lottery_1m"})
	require.NoError(t, err)
	require.Empty(t, resp.Sessions)

	for _, number := range []int64{202501021001, 202501021002} {
		b, err := json.Marshal(model.Session{GameType: "lottery_1m", SessionNumber: number})
		require.NoError(t, err)

		err = redisClient.ZAdd(ctx, common.RedisKeyRecentResults("lottery_1m"), redis.Z{
			Score:  float64(number),
			Member: string(b),
		})
		require.NoError(t, err)
	}

	resp, err = d.GetRecentResults(ctx, &model.GetRecentResultsRequest{GameType: "lottery_1m", Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	require.Equal(t, int64(202501021002), resp.Sessions[0].SessionNumber)
}
