package entity

import (
	"github.com/questx-lab/lottery/pkg/enum"
)

type TransactionType string

var (
	TransactionDeposit    = enum.New(TransactionType("deposit"))
	TransactionWithdrawal = enum.New(TransactionType("withdrawal"))
	TransactionPurchase   = enum.New(TransactionType("purchase"))
	TransactionBetWon     = enum.New(TransactionType("bet_won"))
)

// Transaction is an append-only ledger entry. For a given user, entries form
// a chain ordered by Sequence where each BalanceBefore equals the previous
// BalanceAfter.
type Transaction struct {
	SnowFlakeBase

	UserID   string `gorm:"uniqueIndex:idx_transactions_user_sequence;not null"`
	User     User   `gorm:"foreignKey:UserID"`
	Sequence int64  `gorm:"uniqueIndex:idx_transactions_user_sequence;not null"`

	Type          TransactionType `gorm:"uniqueIndex:idx_transactions_type_reference;not null"`
	ReferenceID   string          `gorm:"uniqueIndex:idx_transactions_type_reference;not null"`
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	CreatedBy     string
	Note          string
}
