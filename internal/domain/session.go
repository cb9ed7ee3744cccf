package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/questx-lab/lottery/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

type SessionDomain interface {
	Get(context.Context, *model.GetSessionRequest) (*model.GetSessionResponse, error)
	GetActive(context.Context, *model.GetActiveSessionRequest) (*model.GetActiveSessionResponse, error)
	GetList(context.Context, *model.GetSessionsRequest) (*model.GetSessionsResponse, error)
	GetLatestResult(context.Context, *model.GetLatestResultRequest) (*model.GetLatestResultResponse, error)
	GetRecentResults(context.Context, *model.GetRecentResultsRequest) (*model.GetRecentResultsResponse, error)

	// Operator entry points of the pipeline stages.
	Ensure(context.Context, *model.EnsureSessionRequest) (*model.EnsureSessionResponse, error)
	Draw(context.Context, *model.DrawSessionRequest) (*model.DrawSessionResponse, error)
	Settle(context.Context, *model.SettleSessionRequest) (*model.SettleSessionResponse, error)
}

type sessionDomain struct {
	sessionRepo        repository.SessionRepository
	scheduler          SessionScheduler
	drawEngine         DrawEngine
	settlementEngine   SettlementEngine
	globalRoleVerifier *common.GlobalRoleVerifier
	redisClient        xredis.Client
}

func NewSessionDomain(
	sessionRepo repository.SessionRepository,
	scheduler SessionScheduler,
	drawEngine DrawEngine,
	settlementEngine SettlementEngine,
	globalRoleVerifier *common.GlobalRoleVerifier,
	redisClient xredis.Client,
) *sessionDomain {
	return &sessionDomain{
		sessionRepo:        sessionRepo,
		scheduler:          scheduler,
		drawEngine:         drawEngine,
		settlementEngine:   settlementEngine,
		globalRoleVerifier: globalRoleVerifier,
		redisClient:        redisClient,
	}
}

func (d *sessionDomain) Get(ctx context.Context, req *model.GetSessionRequest) (*model.GetSessionResponse, error) {
	if req.ID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty id")
	}

	session, err := d.sessionRepo.GetByID(ctx, req.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "Not found session")
		}

		xcontext.Logger(ctx).Errorf("Cannot get session: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetSessionResponse{Session: convertSession(session)}, nil
}

func (d *sessionDomain) GetActive(
	ctx context.Context, req *model.GetActiveSessionRequest,
) (*model.GetActiveSessionResponse, error) {
	if _, ok := xcontext.Configs(ctx).Catalog().GameType(req.GameType); !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid game type %s", req.GameType)
	}

	session, err := d.sessionRepo.GetActiveByGameType(ctx, req.GameType)
	if err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "No active session of %s", req.GameType)
		}

		xcontext.Logger(ctx).Errorf("Cannot get active session: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetActiveSessionResponse{Session: convertSession(session)}, nil
}

func (d *sessionDomain) GetList(
	ctx context.Context, req *model.GetSessionsRequest,
) (*model.GetSessionsResponse, error) {
	sessions, err := d.sessionRepo.GetList(ctx, repository.SessionFilter{
		GameType: req.GameType,
		Offset:   req.Offset,
		Limit:    defaultLimit(req.Limit, 20, 100),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get sessions: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetSessionsResponse{Sessions: []model.Session{}}
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, convertSession(&sessions[i]))
	}

	return resp, nil
}

func (d *sessionDomain) GetLatestResult(
	ctx context.Context, req *model.GetLatestResultRequest,
) (*model.GetLatestResultResponse, error) {
	if _, ok := xcontext.Configs(ctx).Catalog().GameType(req.GameType); !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid game type %s", req.GameType)
	}

	if d.redisClient != nil {
		var cached model.Session
		err := d.redisClient.GetObj(ctx, common.RedisKeyLatestResult(req.GameType), &cached)
		if err == nil {
			return &model.GetLatestResultResponse{Session: cached, Cached: true}, nil
		}

		if !errors.Is(err, redis.Nil) {
			xcontext.Logger(ctx).Warnf("Cannot get latest result from redis: %v", err)
		}
	}

	session, err := d.sessionRepo.GetLastCompletedByGameType(ctx, req.GameType)
	if err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "No completed session of %s", req.GameType)
		}

		xcontext.Logger(ctx).Errorf("Cannot get last completed session: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetLatestResultResponse{Session: convertSession(session)}, nil
}

func (d *sessionDomain) GetRecentResults(
	ctx context.Context, req *model.GetRecentResultsRequest,
) (*model.GetRecentResultsResponse, error) {
	if _, ok := xcontext.Configs(ctx).Catalog().GameType(req.GameType); !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid game type %s", req.GameType)
	}

	limit := defaultLimit(req.Limit, 10, common.RecentResultsLimit)
	resp := &model.GetRecentResultsResponse{Sessions: []model.Session{}}

	if d.redisClient != nil {
		members, err := d.redisClient.ZRevRangeWithScores(ctx, common.RedisKeyRecentResults(req.GameType), 0, limit)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot get recent results from redis: %v", err)
		}

		for _, z := range members {
			member, ok := z.Member.(string)
			if !ok {
				continue
			}

			var session model.Session
			if err := json.Unmarshal([]byte(member), &session); err != nil {
				xcontext.Logger(ctx).Warnf("Invalid cached result of %s: %v", req.GameType, err)
				continue
			}

			resp.Sessions = append(resp.Sessions, session)
		}

		if len(resp.Sessions) > 0 {
			return resp, nil
		}
	}

	sessions, err := d.sessionRepo.GetList(ctx, repository.SessionFilter{
		GameType: req.GameType,
		Status:   entity.SessionCompleted,
		Limit:    limit,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get completed sessions: %v", err)
		return nil, errorx.Unknown
	}

	for i := range sessions {
		resp.Sessions = append(resp.Sessions, convertSession(&sessions[i]))
	}

	return resp, nil
}

func (d *sessionDomain) Ensure(
	ctx context.Context, req *model.EnsureSessionRequest,
) (*model.EnsureSessionResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	return d.scheduler.EnsureActiveSession(ctx, req.GameType)
}

func (d *sessionDomain) Draw(ctx context.Context, req *model.DrawSessionRequest) (*model.DrawSessionResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	resp, err := d.drawEngine.Draw(ctx, req.SessionID)
	if err != nil {
		return nil, toUserError(ctx, err)
	}

	return resp, nil
}

func (d *sessionDomain) Settle(
	ctx context.Context, req *model.SettleSessionRequest,
) (*model.SettleSessionResponse, error) {
	if err := verifyOperator(ctx, d.globalRoleVerifier); err != nil {
		return nil, err
	}

	summary, err := d.settlementEngine.Settle(ctx, req.SessionID)
	if err != nil {
		return nil, toUserError(ctx, err)
	}

	xcontext.Logger(ctx).Infof("User %s settled session %s manually", xcontext.RequestUserID(ctx), req.SessionID)
	return &model.SettleSessionResponse{Summary: *summary}, nil
}
