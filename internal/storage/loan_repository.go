package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lending-engine/internal/models"
	"github.com/lending-engine/internal/types"
)

// LoanRepository handles loan persistence. Loans are append-only history:
// rows are inserted once and mutated only by status transitions.
type LoanRepository struct {
	db *PostgresDB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *PostgresDB) *LoanRepository {
	return &LoanRepository{db: db}
}

const loanColumns = `id, borrower, token, principal, interest_rate, duration_days,
	submitted_at, due_by, total, collateral, status, settlement_signature`

// Create persists a new loan. The collateral snapshot is serialized as
// embedded JSON; it is a point-in-time copy with no independent lifecycle.
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if err := ValidateWalletAddress(loan.Borrower); err != nil {
		return err
	}
	if loan.ID == "" {
		loan.ID = NewLoanID()
	}
	if loan.Status == "" {
		loan.Status = types.StatusActive
	}
	if loan.Collateral.Version == 0 {
		loan.Collateral.Version = types.CollateralSnapshotVersion
	}

	collateralJSON, err := json.Marshal(loan.Collateral)
	if err != nil {
		return fmt.Errorf("failed to marshal collateral snapshot: %w", err)
	}

	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		loan.ID,
		loan.Borrower,
		loan.Token,
		loan.Principal,
		loan.InterestRate,
		loan.DurationDays,
		loan.SubmittedAt,
		loan.DueBy,
		loan.Total,
		collateralJSON,
		loan.Status,
		loan.SettlementSignature,
	)

	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var loan models.Loan
	var collateralJSON []byte
	err := row.Scan(
		&loan.ID,
		&loan.Borrower,
		&loan.Token,
		&loan.Principal,
		&loan.InterestRate,
		&loan.DurationDays,
		&loan.SubmittedAt,
		&loan.DueBy,
		&loan.Total,
		&collateralJSON,
		&loan.Status,
		&loan.SettlementSignature,
	)
	if err != nil {
		return nil, err
	}

	if len(collateralJSON) > 0 {
		if err := json.Unmarshal(collateralJSON, &loan.Collateral); err != nil {
			return nil, fmt.Errorf("failed to unmarshal collateral snapshot: %w", err)
		}
	}
	return &loan, nil
}

// GetByID retrieves a loan. Returns nil without error when not found.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	loan, err := scanLoan(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// ListByBorrower retrieves all loans for a borrower, most recent first.
func (r *LoanRepository) ListByBorrower(ctx context.Context, borrower string) ([]*models.Loan, error) {
	if err := ValidateWalletAddress(borrower); err != nil {
		return nil, err
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower = $1 ORDER BY submitted_at DESC`

	rows, err := r.db.Pool().Query(ctx, query, borrower)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// MarkRepaid transitions a loan from active to repaid, recording the
// settlement signature. The update is conditional on the current status, so a
// retried transition for an already-repaid loan affects zero rows; applied
// reports whether this call performed the transition.
func (r *LoanRepository) MarkRepaid(ctx context.Context, id, settlementSignature string) (applied bool, err error) {
	query := `
		UPDATE loans
		SET status = $2, settlement_signature = $3
		WHERE id = $1 AND status = $4
	`
	result, err := r.db.Pool().Exec(ctx, query, id, types.StatusRepaid, settlementSignature, types.StatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to mark loan repaid: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkDefaulted transitions an overdue active loan to defaulted. Conditional
// on status for the same idempotency guarantee as MarkRepaid.
func (r *LoanRepository) MarkDefaulted(ctx context.Context, id string) (applied bool, err error) {
	query := `
		UPDATE loans
		SET status = $2
		WHERE id = $1 AND status = $3
	`
	result, err := r.db.Pool().Exec(ctx, query, id, types.StatusDefaulted, types.StatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to mark loan defaulted: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListOverdueActive retrieves active loans whose due date has passed, oldest
// due date first, bounded by limit.
func (r *LoanRepository) ListOverdueActive(ctx context.Context, before time.Time, limit int) ([]*models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = $1 AND due_by < $2
		ORDER BY due_by ASC
		LIMIT $3
	`

	rows, err := r.db.Pool().Query(ctx, query, types.StatusActive, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// LoanOutcomes aggregates a borrower's settled loan counts, used by the
// borrower-history score.
type LoanOutcomes struct {
	Repaid    int
	Defaulted int
}

// CountOutcomes returns the number of repaid and defaulted loans for a borrower.
func (r *LoanRepository) CountOutcomes(ctx context.Context, borrower string) (*LoanOutcomes, error) {
	if err := ValidateWalletAddress(borrower); err != nil {
		return nil, err
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM loans
		WHERE borrower = $1
	`

	var outcomes LoanOutcomes
	err := r.db.Pool().QueryRow(ctx, query, borrower, types.StatusRepaid, types.StatusDefaulted).
		Scan(&outcomes.Repaid, &outcomes.Defaulted)
	if err != nil {
		return nil, fmt.Errorf("failed to count loan outcomes: %w", err)
	}
	return &outcomes, nil
}
