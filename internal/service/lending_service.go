package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lending-engine/internal/ledger"
	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/models"
	"github.com/lending-engine/internal/scoring"
	"github.com/lending-engine/internal/storage"
	"github.com/lending-engine/internal/types"
)

// lendingInterestEstimate is the fixed accrued-interest figure shown against
// lending positions. It is a display heuristic, not a computed yield, and
// must not be read as a financial guarantee.
const lendingInterestEstimate = 0.10

// LendingStore defines lending position persistence consumed by the service.
type LendingStore interface {
	Create(ctx context.Context, position *models.LendingPosition) error
	ListByLender(ctx context.Context, lender string) ([]*models.LendingPosition, error)
}

// PriceSource provides token prices for display enrichment.
type PriceSource interface {
	GetPrice(ctx context.Context, token string) (float64, error)
}

// LendingService records lending deposits and aggregates positions.
type LendingService struct {
	positions LendingStore
	users     UserStore
	ledger    ledger.Client
	confirmer TransactionConfirmer
	pricing   PriceSource // optional
	custodial string
}

// LendingServiceConfig configures a LendingService.
type LendingServiceConfig struct {
	Positions        LendingStore
	Users            UserStore
	Ledger           ledger.Client
	Confirmer        TransactionConfirmer
	Pricing          PriceSource
	CustodialAddress string
}

// NewLendingService creates a lending service.
func NewLendingService(cfg *LendingServiceConfig) *LendingService {
	return &LendingService{
		positions: cfg.Positions,
		users:     cfg.Users,
		ledger:    cfg.Ledger,
		confirmer: cfg.Confirmer,
		pricing:   cfg.Pricing,
		custodial: cfg.CustodialAddress,
	}
}

// DepositInput is a lending deposit request.
type DepositInput struct {
	Wallet string  `json:"wallet"`
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
	// SignedTransaction is the wallet-signed transfer of the deposit to the
	// custodial address.
	SignedTransaction string `json:"signedTransaction"`
}

// SubmitDeposit records a lending position after the deposit transfer
// confirms. No position is written on timeout or transfer error.
func (s *LendingService) SubmitDeposit(ctx context.Context, input *DepositInput) (*models.LendingPosition, error) {
	if err := storage.ValidateWalletAddress(input.Wallet); err != nil {
		return nil, err
	}
	if input.Token == "" {
		return nil, &types.ServiceError{
			Code:    "MISSING_TOKEN",
			Message: "token symbol is required",
		}
	}
	if input.Amount <= 0 {
		return nil, &types.ServiceError{
			Code:    "INVALID_AMOUNT",
			Message: fmt.Sprintf("amount must be positive, got %v", input.Amount),
			Details: map[string]interface{}{"amount": input.Amount},
		}
	}
	if input.SignedTransaction == "" {
		return nil, &types.ServiceError{
			Code:    "MISSING_SIGNED_TRANSACTION",
			Message: "signed deposit transaction is required",
		}
	}

	if _, err := s.users.GetOrCreate(ctx, input.Wallet); err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	signature, err := s.ledger.SubmitTransaction(ctx, input.SignedTransaction)
	if err != nil {
		return nil, fmt.Errorf("transaction submit failed: %w", err)
	}

	if err := s.confirmer.Await(ctx, signature); err != nil {
		return nil, fmt.Errorf("deposit not confirmed: %w", err)
	}

	position := &models.LendingPosition{
		ID:                  storage.NewLendingID(),
		Lender:              input.Wallet,
		Token:               input.Token,
		Amount:              input.Amount,
		SubmittedAt:         time.Now().UTC(),
		SettlementSignature: signature,
	}

	if err := s.positions.Create(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to record lending position: %w", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"positionId": position.ID,
		"lender":     position.Lender,
		"token":      position.Token,
		"amount":     position.Amount,
	}).Info("Lending deposit recorded")

	return position, nil
}

// PositionsView is a lender's positions plus the per-token aggregation.
type PositionsView struct {
	Positions []*models.LendingPosition `json:"positions"`
	ByToken   []*models.TokenPosition   `json:"byToken"`
}

// Positions returns all positions for a lender with a per-token aggregation.
// Price enrichment is best-effort: a failed price fetch omits the price for
// that token only.
func (s *LendingService) Positions(ctx context.Context, lender string) (*PositionsView, error) {
	if err := storage.ValidateWalletAddress(lender); err != nil {
		return nil, err
	}

	positions, err := s.positions.ListByLender(ctx, lender)
	if err != nil {
		return nil, err
	}

	byToken := make(map[string]*models.TokenPosition)
	for _, pos := range positions {
		agg, ok := byToken[pos.Token]
		if !ok {
			agg = &models.TokenPosition{Token: pos.Token}
			byToken[pos.Token] = agg
		}
		agg.TotalAmount += pos.Amount
		agg.Positions++
	}

	logger := logging.FromContext(ctx)
	tokens := make([]string, 0, len(byToken))
	for token := range byToken {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	aggregated := make([]*models.TokenPosition, 0, len(tokens))
	for _, token := range tokens {
		agg := byToken[token]
		agg.TotalAmount = scoring.Round2(agg.TotalAmount)
		agg.EstimatedInterest = scoring.Round2(agg.TotalAmount * lendingInterestEstimate)

		if s.pricing != nil {
			// Sequential per token on purpose; the token set per lender
			// is small.
			price, err := s.pricing.GetPrice(ctx, token)
			if err != nil {
				logger.WithError(err).WithField("token", token).Warn("Token price fetch failed")
			} else {
				agg.PriceUSD = &price
			}
		}
		aggregated = append(aggregated, agg)
	}

	return &PositionsView{Positions: positions, ByToken: aggregated}, nil
}
