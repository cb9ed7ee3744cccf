package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/domain/betrule"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type BetDomain interface {
	Place(context.Context, *model.PlaceBetRequest) (*model.PlaceBetResponse, error)
	GetSessionBets(context.Context, *model.GetSessionBetsRequest) (*model.GetSessionBetsResponse, error)
	GetMyBets(context.Context, *model.GetMyBetsRequest) (*model.GetMyBetsResponse, error)
}

type betDomain struct {
	betRepo            repository.BetRepository
	sessionRepo        repository.SessionRepository
	ledger             Ledger
	evaluator          *betrule.Evaluator
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewBetDomain(
	betRepo repository.BetRepository,
	sessionRepo repository.SessionRepository,
	ledger Ledger,
	evaluator *betrule.Evaluator,
	globalRoleVerifier *common.GlobalRoleVerifier,
) *betDomain {
	return &betDomain{
		betRepo:            betRepo,
		sessionRepo:        sessionRepo,
		ledger:             ledger,
		evaluator:          evaluator,
		globalRoleVerifier: globalRoleVerifier,
	}
}

func (d *betDomain) Place(ctx context.Context, req *model.PlaceBetRequest) (*model.PlaceBetResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid request: %v", err)
	}

	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Need to login")
	}

	if err := betrule.ValidateNumbers(req.Numbers); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid numbers: %v", err)
	}

	cost, err := d.evaluator.Cost(req.BetType, req.Stake, len(req.Numbers))
	if err != nil {
		if errors.Is(err, betrule.ErrUnknownBetType) {
			return nil, errorx.New(errorx.InvalidBetType, "Invalid bet type %s", req.BetType)
		}

		return nil, errorx.New(errorx.BadRequest, "Invalid stake: %v", err)
	}

	session, err := d.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "Not found session")
		}

		xcontext.Logger(ctx).Errorf("Cannot get session: %v", err)
		return nil, errorx.Unknown
	}

	now := xcontext.Now(ctx)
	if session.Status != entity.SessionOpen || !now.Before(session.EndTime) {
		return nil, errorx.New(errorx.BadRequest, "Session %d is not accepting bets", session.SessionNumber)
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The draw closes the session with a conditional update on the same row,
	// so a bet either commits before the draw starts or is refused here.
	if err := d.sessionRepo.IncreaseBetCount(ctx, session.ID, now); err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.BadRequest, "Session %d is not accepting bets", session.SessionNumber)
		}

		xcontext.Logger(ctx).Errorf("Cannot increase bet count: %v", err)
		return nil, errorx.Unknown
	}

	bet := &entity.Bet{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    userID,
		SessionID: session.ID,
		BetType:   req.BetType,
		Numbers:   req.Numbers,
		Stake:     req.Stake,
		Amount:    cost,
		Status:    entity.BetPending,
	}

	if err := d.betRepo.Create(ctx, bet); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create bet: %v", err)
		return nil, errorx.Unknown
	}

	tx, err := d.ledger.Debit(ctx, userID, cost, LedgerEntry{
		Type:        entity.TransactionPurchase,
		ReferenceID: bet.ID,
		CreatedBy:   userID,
		Note:        fmt.Sprintf("Bet %s on session %d", req.BetType, session.SessionNumber),
	})
	if err != nil {
		return nil, err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit bet: %v", err)
		return nil, errorx.Unknown
	}

	return &model.PlaceBetResponse{
		Bet:         convertBet(bet),
		Transaction: convertTransaction(tx),
	}, nil
}

// GetSessionBets returns every bet of the session to admins and only the own
// bets to other users.
func (d *betDomain) GetSessionBets(
	ctx context.Context, req *model.GetSessionBetsRequest,
) (*model.GetSessionBetsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Need to login")
	}

	var bets []entity.Bet
	var err error
	if d.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...) == nil {
		bets, err = d.betRepo.GetBySessionID(ctx, req.SessionID)
	} else {
		bets, err = d.betRepo.GetByUserIDAndSessionID(ctx, userID, req.SessionID)
	}

	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get bets of session: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetSessionBetsResponse{Bets: []model.Bet{}}
	for i := range bets {
		resp.Bets = append(resp.Bets, convertBet(&bets[i]))
	}

	return resp, nil
}

func (d *betDomain) GetMyBets(ctx context.Context, req *model.GetMyBetsRequest) (*model.GetMyBetsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Need to login")
	}

	bets, err := d.betRepo.GetByUserID(ctx, userID, req.Offset, defaultLimit(req.Limit, 20, 100))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get bets of user: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetMyBetsResponse{Bets: []model.Bet{}}
	for i := range bets {
		resp.Bets = append(resp.Bets, convertBet(&bets[i]))
	}

	return resp, nil
}
