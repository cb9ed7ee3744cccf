package model

type EventResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

type ProcessEventsRequest struct{}

type ProcessEventsResponse struct {
	Results []EventResult `json:"results"`
}

type GetEventsRequest struct {
	Status string `json:"status"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

type GetEventsResponse struct {
	Events []ScheduledEvent `json:"events"`
}

type RetryEventRequest struct {
	EventID string `json:"event_id"`
}

type RetryEventResponse struct{}

type RecoverRequest struct{}

type RecoveredSession struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
}

type RecoverResponse struct {
	ReleasedEvents int64                   `json:"released_events"`
	Sessions       []RecoveredSession      `json:"sessions"`
	Ensured        []EnsureSessionResponse `json:"ensured"`
}
