package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/questx-lab/lottery/internal/common"
	"github.com/questx-lab/lottery/internal/domain/betrule"
	"github.com/questx-lab/lottery/internal/domain/drawing"
	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
	"github.com/questx-lab/lottery/internal/repository"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

const settlementCreator = "settlement"

type SettlementEngine interface {
	// Settle resolves every pending bet of a drawn session, then completes the
	// session. Only pending bets are touched, so calling Settle again never
	// pays a bet twice.
	Settle(ctx context.Context, sessionID string) (*model.SettlementSummary, error)
}

type settlementEngine struct {
	sessionRepo repository.SessionRepository
	betRepo     repository.BetRepository
	ledger      Ledger
	eventQueue  EventQueue
	evaluator   *betrule.Evaluator
	notifier    SessionNotifier
}

func NewSettlementEngine(
	sessionRepo repository.SessionRepository,
	betRepo repository.BetRepository,
	ledger Ledger,
	eventQueue EventQueue,
	evaluator *betrule.Evaluator,
	notifier SessionNotifier,
) *settlementEngine {
	return &settlementEngine{
		sessionRepo: sessionRepo,
		betRepo:     betRepo,
		ledger:      ledger,
		eventQueue:  eventQueue,
		evaluator:   evaluator,
		notifier:    notifier,
	}
}

type betOutcome struct {
	status    entity.BetStatus
	winCount  int
	winAmount int64
	anomaly   bool
	skipped   bool
}

func (e *settlementEngine) Settle(ctx context.Context, sessionID string) (*model.SettlementSummary, error) {
	session, err := e.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, errorx.New(errorx.NotFound, "Not found session")
		}

		xcontext.Logger(ctx).Errorf("Cannot get session %s: %v", sessionID, err)
		return nil, err
	}

	if session.Status != entity.SessionProcessingRewards && session.Status != entity.SessionCompleted {
		return nil, errorx.New(errorx.SessionNotDrawn, "Session %d is %s and cannot be settled",
			session.SessionNumber, session.Status)
	}

	if len(session.WinningNumbers) == 0 {
		xcontext.Logger(ctx).Errorf("Session %s has no winning numbers", session.ID)
		return nil, errorx.New(errorx.InvariantViolation, "Session %d has no winning numbers", session.SessionNumber)
	}

	result, err := drawing.FromMap(session.ResultsData)
	if err != nil {
		// De bets of this session will be reported as anomalies.
		xcontext.Logger(ctx).Warnf("Data integrity anomaly: cannot decode results of session %s: %v", session.ID, err)
	}

	summary := &model.SettlementSummary{SessionID: session.ID}
	batchSize := xcontext.Configs(ctx).Lottery.SettlementBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	var firstErr error
	afterID := ""
	for {
		bets, err := e.betRepo.GetPendingBySessionID(ctx, session.ID, afterID, batchSize)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get pending bets of session %s: %v", session.ID, err)
			return summary, err
		}

		for i := range bets {
			afterID = bets[i].ID

			outcome, err := e.settleBet(ctx, session, &bets[i], result)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot settle bet %s: %v", bets[i].ID, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			if outcome.skipped {
				continue
			}

			summary.ProcessedBets++
			if outcome.anomaly {
				summary.Anomalies++
			}

			if outcome.status == entity.BetWon {
				summary.Winners++
				summary.TotalPayout += outcome.winAmount
			}
		}

		if len(bets) < batchSize {
			break
		}
	}

	if firstErr != nil {
		return summary, fmt.Errorf("settlement of session %s is incomplete: %w", session.ID, firstErr)
	}

	if session.Status == entity.SessionCompleted {
		summary.Completed = true
		return summary, nil
	}

	if err := e.complete(ctx, session, summary); err != nil {
		return summary, err
	}

	xcontext.Logger(ctx).Infof("Settled session %d of %s: %d bets, %d winners, payout %d",
		session.SessionNumber, session.GameType, summary.ProcessedBets, summary.Winners, summary.TotalPayout)

	return summary, nil
}

func (e *settlementEngine) settleBet(
	ctx context.Context, session *entity.Session, bet *entity.Bet, result drawing.Result,
) (betOutcome, error) {
	outcome := betOutcome{status: entity.BetLost}

	winCount, err := e.evaluator.WinCount(bet.BetType, bet.Numbers, result.SpecialPrize, session.WinningNumbers)
	if err != nil {
		e.reportAnomaly(ctx, bet, err)
		outcome.anomaly = true
		winCount = 0
	}

	if winCount > 0 {
		amount, err := e.evaluator.Payout(bet.BetType, bet.Stake, winCount)
		if err != nil {
			e.reportAnomaly(ctx, bet, err)
			outcome.anomaly = true
		} else if amount > 0 {
			outcome.status = entity.BetWon
			outcome.winCount = winCount
			outcome.winAmount = amount
		}
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	now := xcontext.Now(ctx)
	err = e.betRepo.Resolve(ctx, bet.ID, outcome.status, outcome.winCount, outcome.winAmount, now)
	if err != nil {
		if isNotFound(err) {
			// Resolved by a concurrent run.
			return betOutcome{skipped: true}, nil
		}

		return outcome, err
	}

	if outcome.winAmount > 0 {
		_, err := e.ledger.Credit(ctx, bet.UserID, outcome.winAmount, LedgerEntry{
			Type:        entity.TransactionBetWon,
			ReferenceID: bet.ID,
			CreatedBy:   settlementCreator,
			Note:        fmt.Sprintf("Win %d of session %d", outcome.winCount, session.SessionNumber),
		})
		if err != nil {
			return outcome, err
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return outcome, err
	}

	common.PromCounters[common.BetSettledTotal].WithLabelValues(bet.BetType, string(outcome.status)).Inc()
	if outcome.winAmount > 0 {
		common.PromCounters[common.PayoutAmountTotal].WithLabelValues(session.GameType).Add(float64(outcome.winAmount))
	}

	return outcome, nil
}

func (e *settlementEngine) reportAnomaly(ctx context.Context, bet *entity.Bet, err error) {
	reason := "invalid_bet"
	switch {
	case errors.Is(err, betrule.ErrUnknownBetType):
		reason = "unknown_bet_type"
	case errors.Is(err, betrule.ErrMissingSpecialPrize):
		reason = "missing_special_prize"
	case errors.Is(err, betrule.ErrAmountOverflow):
		reason = "amount_overflow"
	}

	common.PromCounters[common.DataIntegrityAnomalyTotal].WithLabelValues(reason).Inc()
	xcontext.Logger(ctx).Warnf("Data integrity anomaly: bet %s of session %s resolves as lost: %v",
		bet.ID, bet.SessionID, err)
}

func (e *settlementEngine) complete(
	ctx context.Context, session *entity.Session, summary *model.SettlementSummary,
) error {
	resultsData := entity.Map{}
	for k, v := range session.ResultsData {
		resultsData[k] = v
	}
	resultsData["status"] = string(entity.SessionCompleted)
	resultsData["settled_at"] = xcontext.Now(ctx).Format(defaultTimeLayout)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err := e.sessionRepo.UpdateIfStatus(ctx, session.ID,
		[]entity.SessionStatus{entity.SessionProcessingRewards},
		repository.SessionUpdate{Status: entity.SessionCompleted, ResultsData: resultsData})
	if err != nil {
		if isNotFound(err) {
			// Completed by a concurrent run.
			summary.Completed = true
			return nil
		}

		xcontext.Logger(ctx).Errorf("Cannot complete session %s: %v", session.ID, err)
		return err
	}

	_, err = e.eventQueue.Enqueue(ctx, entity.EventPayoutCompleted, session, xcontext.Now(ctx), entity.Map{
		"session_number": session.SessionNumber,
		"processed_bets": summary.ProcessedBets,
		"winners":        summary.Winners,
		"total_payout":   summary.TotalPayout,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enqueue payout event of session %s: %v", session.ID, err)
		return err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return err
	}

	summary.Completed = true
	session.Status = entity.SessionCompleted
	session.ResultsData = resultsData
	session.ActiveSlot.Valid = false
	e.notifier.Notify(ctx, model.SessionCompletedNotification, session, summary)

	return nil
}
