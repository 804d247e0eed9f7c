package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lending-engine/internal/models"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. Users are created on first wallet connection and
// never deleted.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := ValidateWalletAddress(user.WalletAddress); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, wallet_address, display_name, email, on_chain_credit_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		user.ID,
		user.WalletAddress,
		user.DisplayName,
		user.Email,
		user.CreditScore,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByWallet retrieves a user by wallet address. Returns nil without error
// when no user exists for the wallet.
func (r *UserRepository) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if err := ValidateWalletAddress(wallet); err != nil {
		return nil, err
	}

	query := `
		SELECT id, wallet_address, display_name, email, on_chain_credit_score, created_at, updated_at
		FROM users
		WHERE wallet_address = $1
	`

	var user models.User
	err := r.db.Pool().QueryRow(ctx, query, wallet).Scan(
		&user.ID,
		&user.WalletAddress,
		&user.DisplayName,
		&user.Email,
		&user.CreditScore,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetOrCreate returns the user for a wallet, creating one on first connection.
func (r *UserRepository) GetOrCreate(ctx context.Context, wallet string) (*models.User, error) {
	user, err := r.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.User{WalletAddress: wallet}
	if err := r.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetCreditScore overwrites the persisted credit score for a wallet. The
// score has no history; each scoring run replaces the prior value.
func (r *UserRepository) SetCreditScore(ctx context.Context, wallet string, score float64) error {
	if err := ValidateWalletAddress(wallet); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET on_chain_credit_score = $2, updated_at = $3
		WHERE wallet_address = $1
	`
	result, err := r.db.Pool().Exec(ctx, query, wallet, score, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set credit score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", wallet)
	}
	return nil
}

// UpdateProfile updates the optional display name and email for a wallet.
func (r *UserRepository) UpdateProfile(ctx context.Context, wallet string, displayName, email *string) error {
	if err := ValidateWalletAddress(wallet); err != nil {
		return err
	}

	query := `
		UPDATE users
		SET display_name = $2, email = $3, updated_at = $4
		WHERE wallet_address = $1
	`
	result, err := r.db.Pool().Exec(ctx, query, wallet, displayName, email, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", wallet)
	}
	return nil
}
