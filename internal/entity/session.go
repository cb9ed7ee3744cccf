package entity

import (
	"database/sql"
	"time"

	"github.com/questx-lab/lottery/pkg/enum"
	"golang.org/x/exp/slices"
)

type SessionStatus string

var (
	SessionOpen              = enum.New(SessionStatus("open"))
	SessionDrawing           = enum.New(SessionStatus("drawing"))
	SessionProcessingRewards = enum.New(SessionStatus("processing_rewards"))
	SessionCompleted         = enum.New(SessionStatus("completed"))
	SessionCancelled         = enum.New(SessionStatus("cancelled"))
	SessionFailed            = enum.New(SessionStatus("failed"))
)

// NonTerminalSessionStatuses are statuses of a session which is still the
// active session of its game type.
var NonTerminalSessionStatuses = []SessionStatus{
	SessionOpen,
	SessionDrawing,
	SessionProcessingRewards,
}

func (s SessionStatus) IsTerminal() bool {
	return !slices.Contains(NonTerminalSessionStatuses, s)
}

type Session struct {
	Base

	GameType      string `gorm:"uniqueIndex:idx_sessions_game_type_number;not null"`
	SessionNumber int64  `gorm:"uniqueIndex:idx_sessions_game_type_number;not null"`
	StartTime     time.Time
	EndTime       time.Time     `gorm:"index"`
	Status        SessionStatus `gorm:"index"`

	// ActiveSlot equals GameType while the session is non-terminal and NULL
	// afterwards. Its unique index allows at most one active session per game
	// type.
	ActiveSlot sql.NullString `gorm:"uniqueIndex"`

	// BetCount is bumped by every accepted bet while the session is open, which
	// serializes bet placement with the transition to drawing.
	BetCount int

	WinningNumbers Array[string]
	ResultsData    Map
}
