package domain

import (
	"strconv"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/internal/model"
)

const defaultTimeLayout string = time.RFC3339Nano

func convertUser(user *entity.User) model.User {
	if user == nil {
		return model.User{}
	}

	return model.User{
		ID:      user.ID,
		Name:    user.Name,
		Role:    user.Role,
		Balance: user.Balance,
	}
}

func convertSession(session *entity.Session) model.Session {
	if session == nil {
		return model.Session{}
	}

	return model.Session{
		ID:             session.ID,
		GameType:       session.GameType,
		SessionNumber:  session.SessionNumber,
		StartTime:      session.StartTime.UTC().Format(defaultTimeLayout),
		EndTime:        session.EndTime.UTC().Format(defaultTimeLayout),
		Status:         string(session.Status),
		WinningNumbers: session.WinningNumbers,
		ResultsData:    session.ResultsData,
	}
}

func convertBet(bet *entity.Bet) model.Bet {
	if bet == nil {
		return model.Bet{}
	}

	settledAt := ""
	if bet.SettledAt.Valid {
		settledAt = bet.SettledAt.Time.UTC().Format(defaultTimeLayout)
	}

	return model.Bet{
		ID:        bet.ID,
		UserID:    bet.UserID,
		SessionID: bet.SessionID,
		BetType:   bet.BetType,
		Numbers:   bet.Numbers,
		Stake:     bet.Stake,
		Amount:    bet.Amount,
		Status:    string(bet.Status),
		WinCount:  bet.WinCount,
		WinAmount: bet.WinAmount,
		CreatedAt: bet.CreatedAt.UTC().Format(defaultTimeLayout),
		SettledAt: settledAt,
	}
}

func convertTransaction(tx *entity.Transaction) model.Transaction {
	if tx == nil {
		return model.Transaction{}
	}

	return model.Transaction{
		ID:            strconv.FormatInt(tx.ID, 10),
		UserID:        tx.UserID,
		Sequence:      tx.Sequence,
		Type:          string(tx.Type),
		ReferenceID:   tx.ReferenceID,
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		CreatedBy:     tx.CreatedBy,
		Note:          tx.Note,
		CreatedAt:     tx.CreatedAt.UTC().Format(defaultTimeLayout),
	}
}

func convertScheduledEvent(event *entity.ScheduledEvent) model.ScheduledEvent {
	if event == nil {
		return model.ScheduledEvent{}
	}

	processedAt := ""
	if event.ProcessedAt.Valid {
		processedAt = event.ProcessedAt.Time.UTC().Format(defaultTimeLayout)
	}

	return model.ScheduledEvent{
		ID:           event.ID,
		EventType:    string(event.EventType),
		SessionID:    event.SessionID,
		GameType:     event.GameType,
		ScheduledAt:  event.ScheduledAt.UTC().Format(defaultTimeLayout),
		Status:       string(event.Status),
		Payload:      event.Payload,
		Attempts:     event.Attempts,
		LeaseOwner:   event.LeaseOwner,
		ProcessedAt:  processedAt,
		ErrorCode:    event.ErrorCode,
		ErrorMessage: event.ErrorMessage,
	}
}
