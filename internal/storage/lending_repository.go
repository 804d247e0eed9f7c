package storage

import (
	"context"
	"fmt"

	"github.com/lending-engine/internal/models"
)

// LendingRepository handles lending position persistence. Positions are
// immutable once recorded; there is no update path.
type LendingRepository struct {
	db *PostgresDB
}

// NewLendingRepository creates a new lending repository
func NewLendingRepository(db *PostgresDB) *LendingRepository {
	return &LendingRepository{db: db}
}

// Create persists a confirmed lending deposit.
func (r *LendingRepository) Create(ctx context.Context, position *models.LendingPosition) error {
	if err := ValidateWalletAddress(position.Lender); err != nil {
		return err
	}
	if position.ID == "" {
		position.ID = NewLendingID()
	}

	query := `
		INSERT INTO lending_positions (id, lender, token, amount, submitted_at, settlement_signature)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		position.ID,
		position.Lender,
		position.Token,
		position.Amount,
		position.SubmittedAt,
		position.SettlementSignature,
	)

	if err != nil {
		return fmt.Errorf("failed to create lending position: %w", err)
	}
	return nil
}

// ListByLender retrieves all positions for a lender, most recent first.
func (r *LendingRepository) ListByLender(ctx context.Context, lender string) ([]*models.LendingPosition, error) {
	if err := ValidateWalletAddress(lender); err != nil {
		return nil, err
	}

	query := `
		SELECT id, lender, token, amount, submitted_at, settlement_signature
		FROM lending_positions
		WHERE lender = $1
		ORDER BY submitted_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, lender)
	if err != nil {
		return nil, fmt.Errorf("failed to list lending positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.LendingPosition
	for rows.Next() {
		var pos models.LendingPosition
		err := rows.Scan(
			&pos.ID,
			&pos.Lender,
			&pos.Token,
			&pos.Amount,
			&pos.SubmittedAt,
			&pos.SettlementSignature,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lending position: %w", err)
		}
		positions = append(positions, &pos)
	}
	return positions, rows.Err()
}
