// Package models provides data models for the lending engine.
package models

import "time"

// User represents a user identified primarily by wallet address.
// Created on first wallet connection, never deleted.
type User struct {
	ID            string  `json:"id" db:"id"`
	WalletAddress string  `json:"walletAddress" db:"wallet_address"`
	DisplayName   *string `json:"displayName,omitempty" db:"display_name"`
	Email         *string `json:"email,omitempty" db:"email"`
	// CreditScore is the persisted on-chain credit score. Nil until the
	// scoring pipeline has run at least once for this wallet.
	CreditScore *float64  `json:"creditScore,omitempty" db:"on_chain_credit_score"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}
