package model

var (
	// SessionTopic carries a SessionNotification each time a session is
	// created, drawn or completed.
	SessionTopic = "LOTTERY_SESSION"
)

type SessionNotificationKind string

const (
	SessionCreatedNotification   SessionNotificationKind = "session_created"
	SessionDrawnNotification     SessionNotificationKind = "session_drawn"
	SessionCompletedNotification SessionNotificationKind = "session_completed"
)

type SessionNotification struct {
	Kind      SessionNotificationKind `json:"kind"`
	Session   Session                 `json:"session"`
	Summary   *SettlementSummary      `json:"summary,omitempty"`
	Timestamp string                  `json:"timestamp"`
}
