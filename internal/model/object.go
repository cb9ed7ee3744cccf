package model

type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Balance int64  `json:"balance"`
}

type Session struct {
	ID             string         `json:"id"`
	GameType       string         `json:"game_type"`
	SessionNumber  int64          `json:"session_number"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Status         string         `json:"status"`
	WinningNumbers []string       `json:"winning_numbers,omitempty"`
	ResultsData    map[string]any `json:"results_data,omitempty"`
}

type Bet struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	BetType   string   `json:"bet_type"`
	Numbers   []string `json:"numbers"`
	Stake     int64    `json:"stake"`
	Amount    int64    `json:"amount"`
	Status    string   `json:"status"`
	WinCount  int      `json:"win_count"`
	WinAmount int64    `json:"win_amount"`
	CreatedAt string   `json:"created_at"`
	SettledAt string   `json:"settled_at,omitempty"`
}

type Transaction struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Sequence      int64  `json:"sequence"`
	Type          string `json:"type"`
	ReferenceID   string `json:"reference_id"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balance_before"`
	BalanceAfter  int64  `json:"balance_after"`
	CreatedBy     string `json:"created_by"`
	Note          string `json:"note,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type ScheduledEvent struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	SessionID    string         `json:"session_id"`
	GameType     string         `json:"game_type"`
	ScheduledAt  string         `json:"scheduled_at"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	Attempts     int            `json:"attempts"`
	LeaseOwner   string         `json:"lease_owner,omitempty"`
	ProcessedAt  string         `json:"processed_at,omitempty"`
	ErrorCode    int            `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
