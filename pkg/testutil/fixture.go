package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/questx-lab/lottery/internal/entity"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

var (
	// Users
	User1 = &entity.User{
		Base:    entity.Base{ID: "user1"},
		Name:    "user1",
		Role:    entity.UserRole,
		Balance: 1000000,
	}

	User2 = &entity.User{
		Base:    entity.Base{ID: "user2"},
		Name:    "user2",
		Role:    entity.UserRole,
		Balance: 0,
	}

	Admin = &entity.User{
		Base: entity.Base{ID: "admin"},
		Name: "admin",
		Role: entity.SuperAdminRole,
	}

	Users = []*entity.User{User1, User2, Admin}
)

var FixedTime = time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

// CreateFixtureDb inserts the fixture users. User1 starts with a deposit
// transaction so its ledger chain matches its balance.
func CreateFixtureDb(ctx context.Context) {
	for _, u := range Users {
		user := *u
		if err := xcontext.DB(ctx).Create(&user).Error; err != nil {
			panic(err)
		}

		if user.Balance == 0 {
			continue
		}

		tx := &entity.Transaction{
			SnowFlakeBase: entity.SnowFlakeBase{ID: int64(len(user.ID))<<32 + 1},
			UserID:        user.ID,
			Sequence:      1,
			Type:          entity.TransactionDeposit,
			ReferenceID:   "fixture-" + user.ID,
			Amount:        user.Balance,
			BalanceBefore: 0,
			BalanceAfter:  user.Balance,
			CreatedBy:     "fixture",
		}
		if err := xcontext.DB(ctx).Create(tx).Error; err != nil {
			panic(err)
		}
	}
}

// CreateOpenSession inserts an open session of gameType ending at endTime.
func CreateOpenSession(ctx context.Context, id, gameType string, number int64, endTime time.Time) *entity.Session {
	session := &entity.Session{
		Base:          entity.Base{ID: id},
		GameType:      gameType,
		SessionNumber: number,
		StartTime:     endTime.Add(-time.Minute),
		EndTime:       endTime,
		Status:        entity.SessionOpen,
		ActiveSlot:    sql.NullString{String: gameType, Valid: true},
	}

	if err := xcontext.DB(ctx).Create(session).Error; err != nil {
		panic(err)
	}

	return session
}
