package models

import "time"

// LendingPosition represents a confirmed lending deposit. Positions are
// immutable once recorded; withdrawal is handled as an external request and
// never mutates the record.
type LendingPosition struct {
	ID                  string    `json:"id" db:"id"`
	Lender              string    `json:"lender" db:"lender"`
	Token               string    `json:"token" db:"token"`
	Amount              float64   `json:"amount" db:"amount"`
	SubmittedAt         time.Time `json:"submittedAt" db:"submitted_at"`
	SettlementSignature string    `json:"settlementSignature" db:"settlement_signature"`
}

// TokenPosition aggregates a lender's positions for one token. The estimated
// interest is a fixed display heuristic, not a computed yield.
type TokenPosition struct {
	Token             string   `json:"token"`
	TotalAmount       float64  `json:"totalAmount"`
	Positions         int      `json:"positions"`
	EstimatedInterest float64  `json:"estimatedInterest"`
	PriceUSD          *float64 `json:"priceUsd,omitempty"`
}
