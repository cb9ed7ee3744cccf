package entity

import (
	"database/sql"
	"time"

	"github.com/questx-lab/lottery/pkg/enum"
)

type EventType string

var (
	EventSessionExpired  = enum.New(EventType("session_expired"))
	EventDrawCompleted   = enum.New(EventType("draw_completed"))
	EventPayoutCompleted = enum.New(EventType("payout_completed"))
)

type EventStatus string

var (
	EventPending    = enum.New(EventStatus("pending"))
	EventProcessing = enum.New(EventStatus("processing"))
	EventCompleted  = enum.New(EventStatus("completed"))
	EventFailed     = enum.New(EventStatus("failed"))
)

type ScheduledEvent struct {
	Base

	EventType EventType `gorm:"index"`
	SessionID string    `gorm:"index"`
	GameType  string    `gorm:"index"`

	Status      EventStatus `gorm:"index:idx_events_status_scheduled,priority:1"`
	ScheduledAt time.Time   `gorm:"index:idx_events_status_scheduled,priority:2"`
	Payload     Map

	Attempts       int
	LeaseOwner     string
	LeaseExpiresAt sql.NullTime
	ProcessedAt    sql.NullTime
	ErrorCode      int
	ErrorMessage   string
}
