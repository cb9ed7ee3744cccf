package model

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type DepositRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (req *DepositRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Note, validation.Length(0, 256)),
	)
}

type DepositResponse struct {
	Transaction Transaction `json:"transaction"`
}

type WithdrawRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (req *WithdrawRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Note, validation.Length(0, 256)),
	)
}

type WithdrawResponse struct {
	Transaction Transaction `json:"transaction"`
}

type GetBalanceRequest struct{}

type GetBalanceResponse struct {
	User User `json:"user"`
}

type GetTransactionsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type VerifyBalanceRequest struct {
	UserID string `json:"user_id"`
}

type VerifyBalanceResponse struct {
	Balance    int64 `json:"balance"`
	LedgerSum  int64 `json:"ledger_sum"`
	ChainTail  int64 `json:"chain_tail"`
	Consistent bool  `json:"consistent"`
}
