package models

import (
	"time"

	"github.com/lending-engine/internal/types"
)

// Loan represents a loan record. Loans are append-only history: they are
// created in active status and mutated only by a status transition.
type Loan struct {
	ID                  string                   `json:"id" db:"id"`
	Borrower            string                   `json:"borrower" db:"borrower"`
	Token               string                   `json:"token" db:"token"`
	Principal           float64                  `json:"principal" db:"principal"`
	InterestRate        float64                  `json:"interestRate" db:"interest_rate"`
	DurationDays        int                      `json:"durationDays" db:"duration_days"`
	SubmittedAt         time.Time                `json:"submittedAt" db:"submitted_at"`
	DueBy               time.Time                `json:"dueBy" db:"due_by"`
	Total               float64                  `json:"total" db:"total"`
	Collateral          types.CollateralSnapshot `json:"collateral" db:"collateral"`
	Status              types.LoanStatus         `json:"status" db:"status"`
	SettlementSignature *string                  `json:"settlementSignature,omitempty" db:"settlement_signature"`
}

// Interest returns the interest component of the repayable total.
func (l *Loan) Interest() float64 {
	return l.Principal * l.InterestRate / 100
}

// Overdue reports whether an active loan is past its due date.
func (l *Loan) Overdue(now time.Time) bool {
	return l.Status == types.StatusActive && now.After(l.DueBy)
}
