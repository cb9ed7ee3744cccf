package entity

import (
	"database/sql"

	"github.com/questx-lab/lottery/pkg/enum"
)

type BetStatus string

var (
	BetPending = enum.New(BetStatus("pending"))
	BetWon     = enum.New(BetStatus("won"))
	BetLost    = enum.New(BetStatus("lost"))
)

type Bet struct {
	Base

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	SessionID string  `gorm:"index:idx_bets_session_status"`
	Session   Session `gorm:"foreignKey:SessionID"`

	BetType string
	Numbers Array[string]

	// Stake is the amount per number, in points or currency depending on the
	// stake style of BetType. Amount is the currency debited at placement.
	Stake  int64
	Amount int64

	Status    BetStatus `gorm:"index:idx_bets_session_status"`
	WinCount  int
	WinAmount int64
	SettledAt sql.NullTime
}
