package model

type GetSessionRequest struct {
	ID string `json:"id"`
}

type GetSessionResponse struct {
	Session Session `json:"session"`
}

type GetActiveSessionRequest struct {
	GameType string `json:"game_type"`
}

type GetActiveSessionResponse struct {
	Session Session `json:"session"`
}

type GetSessionsRequest struct {
	GameType string `json:"game_type"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

type GetSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

type GetLatestResultRequest struct {
	GameType string `json:"game_type"`
}

type GetLatestResultResponse struct {
	Session Session `json:"session"`
	Cached  bool    `json:"cached"`
}

type GetRecentResultsRequest struct {
	GameType string `json:"game_type"`
	Limit    int    `json:"limit"`
}

type GetRecentResultsResponse struct {
	Sessions []Session `json:"sessions"`
}

type EnsureSessionRequest struct {
	GameType string `json:"game_type"`
}

type EnsureSessionResponse struct {
	Session Session `json:"session"`
	Created bool    `json:"created"`
	Note    string  `json:"note,omitempty"`
}

type DrawSessionRequest struct {
	SessionID string `json:"session_id"`
}

type DrawSessionResponse struct {
	Session          Session `json:"session"`
	AlreadyProcessed bool    `json:"already_processed"`
}

type SettleSessionRequest struct {
	SessionID string `json:"session_id"`
}

type SettleSessionResponse struct {
	Summary SettlementSummary `json:"summary"`
}

type SettlementSummary struct {
	SessionID     string `json:"session_id"`
	ProcessedBets int    `json:"processed_bets"`
	Winners       int    `json:"winners"`
	TotalPayout   int64  `json:"total_payout"`
	Anomalies     int    `json:"anomalies"`
	Completed     bool   `json:"completed"`
}
