package model

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type PlaceBetRequest struct {
	SessionID string   `json:"session_id"`
	BetType   string   `json:"bet_type"`
	Numbers   []string `json:"numbers"`
	Stake     int64    `json:"stake"`
}

func (req *PlaceBetRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.SessionID, validation.Required),
		validation.Field(&req.BetType, validation.Required),
		validation.Field(&req.Numbers, validation.Required),
		validation.Field(&req.Stake, validation.Required, validation.Min(int64(1))),
	)
}

type PlaceBetResponse struct {
	Bet         Bet         `json:"bet"`
	Transaction Transaction `json:"transaction"`
}

type GetSessionBetsRequest struct {
	SessionID string `json:"session_id"`
}

type GetSessionBetsResponse struct {
	Bets []Bet `json:"bets"`
}

type GetMyBetsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyBetsResponse struct {
	Bets []Bet `json:"bets"`
}
