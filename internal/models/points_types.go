package models

import (
	"time"
)

// Points transaction types. REDEEM entries are negative amounts
// written when a redemption request is processed; RESET is the
// compensating entry from the dashboard reset action.
const (
	PointsTxEarn   = "EARN"
	PointsTxRedeem = "REDEEM"
	PointsTxAdjust = "ADJUST"
	PointsTxReset  = "RESET"
)

// PointsTransaction is the model for the 'points_transactions' table.
// An account's balance is the sum of its transaction amounts.
type PointsTransaction struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TxType    string    `json:"tx_type" db:"tx_type"`
	Amount    int       `json:"amount" db:"amount"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
