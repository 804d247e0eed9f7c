package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lending-engine/internal/confirm"
	"github.com/lending-engine/internal/models"
	"github.com/lending-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLendingStore struct {
	positions []*models.LendingPosition
}

func (f *fakeLendingStore) Create(ctx context.Context, position *models.LendingPosition) error {
	copied := *position
	f.positions = append(f.positions, &copied)
	return nil
}

func (f *fakeLendingStore) ListByLender(ctx context.Context, lender string) ([]*models.LendingPosition, error) {
	var out []*models.LendingPosition
	for _, pos := range f.positions {
		if pos.Lender == lender {
			copied := *pos
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakePriceSource struct {
	prices map[string]float64
	err    error
}

func (f *fakePriceSource) GetPrice(ctx context.Context, token string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	price, ok := f.prices[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return price, nil
}

type lendingFixture struct {
	service   *LendingService
	positions *fakeLendingStore
	ledger    *fakeLedger
	confirmer *fakeConfirmer
	pricing   *fakePriceSource
}

func newLendingFixture() *lendingFixture {
	positions := &fakeLendingStore{}
	led := newFakeLedger()
	conf := &fakeConfirmer{}
	pricing := &fakePriceSource{prices: map[string]float64{}}

	svc := NewLendingService(&LendingServiceConfig{
		Positions:        positions,
		Users:            newFakeUserStore(),
		Ledger:           led,
		Confirmer:        conf,
		Pricing:          pricing,
		CustodialAddress: otherWallet,
	})

	return &lendingFixture{service: svc, positions: positions, ledger: led, confirmer: conf, pricing: pricing}
}

func TestSubmitDepositValidation(t *testing.T) {
	fx := newLendingFixture()

	tests := []struct {
		name     string
		input    *DepositInput
		wantCode string
	}{
		{
			name:     "invalid wallet",
			input:    &DepositInput{Wallet: "bad", Token: "SOL", Amount: 5, SignedTransaction: "tx"},
			wantCode: "INVALID_WALLET_FORMAT",
		},
		{
			name:     "missing token",
			input:    &DepositInput{Wallet: testWallet, Amount: 5, SignedTransaction: "tx"},
			wantCode: "MISSING_TOKEN",
		},
		{
			name:     "non-positive amount",
			input:    &DepositInput{Wallet: testWallet, Token: "SOL", Amount: 0, SignedTransaction: "tx"},
			wantCode: "INVALID_AMOUNT",
		},
		{
			name:     "missing signed transaction",
			input:    &DepositInput{Wallet: testWallet, Token: "SOL", Amount: 5},
			wantCode: "MISSING_SIGNED_TRANSACTION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.SubmitDeposit(context.Background(), tt.input)

			var serviceErr *types.ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, tt.wantCode, serviceErr.Code)
		})
	}

	assert.Empty(t, fx.positions.positions)
	assert.Equal(t, 0, fx.confirmer.calls)
}

func TestSubmitDepositRecordsAfterConfirmation(t *testing.T) {
	fx := newLendingFixture()

	position, err := fx.service.SubmitDeposit(context.Background(), &DepositInput{
		Wallet:            testWallet,
		Token:             "SOL",
		Amount:            25,
		SignedTransaction: "signed-tx",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, position.ID)
	assert.Equal(t, testWallet, position.Lender)
	assert.Equal(t, "SOL", position.Token)
	assert.Equal(t, 25.0, position.Amount)
	assert.Equal(t, "sig-abc", position.SettlementSignature)
	assert.WithinDuration(t, time.Now().UTC(), position.SubmittedAt, time.Minute)

	require.Len(t, fx.positions.positions, 1)
	assert.Equal(t, 1, fx.confirmer.calls)
}

func TestSubmitDepositNotRecordedOnConfirmFailure(t *testing.T) {
	fx := newLendingFixture()
	fx.confirmer.err = confirm.ErrTimeout

	_, err := fx.service.SubmitDeposit(context.Background(), &DepositInput{
		Wallet:            testWallet,
		Token:             "SOL",
		Amount:            25,
		SignedTransaction: "signed-tx",
	})

	assert.ErrorIs(t, err, confirm.ErrTimeout)
	assert.Empty(t, fx.positions.positions)
}

func TestSubmitDepositNotRecordedOnSubmitFailure(t *testing.T) {
	fx := newLendingFixture()
	fx.ledger.submitErr = errors.New("rpc unavailable")

	_, err := fx.service.SubmitDeposit(context.Background(), &DepositInput{
		Wallet:            testWallet,
		Token:             "SOL",
		Amount:            25,
		SignedTransaction: "signed-tx",
	})

	require.Error(t, err)
	assert.Empty(t, fx.positions.positions)
	assert.Equal(t, 0, fx.confirmer.calls)
}

func TestPositionsAggregation(t *testing.T) {
	fx := newLendingFixture()
	fx.pricing.prices = map[string]float64{"SOL": 150, "USDC": 1}

	deposits := []struct {
		token  string
		amount float64
	}{
		{"SOL", 10},
		{"SOL", 5.5},
		{"USDC", 100},
	}
	for _, d := range deposits {
		_, err := fx.service.SubmitDeposit(context.Background(), &DepositInput{
			Wallet:            testWallet,
			Token:             d.token,
			Amount:            d.amount,
			SignedTransaction: "tx",
		})
		require.NoError(t, err)
	}

	view, err := fx.service.Positions(context.Background(), testWallet)
	require.NoError(t, err)

	assert.Len(t, view.Positions, 3)
	require.Len(t, view.ByToken, 2)

	// Tokens are sorted for a stable response.
	sol := view.ByToken[0]
	usdc := view.ByToken[1]
	assert.Equal(t, "SOL", sol.Token)
	assert.Equal(t, "USDC", usdc.Token)

	assert.Equal(t, 15.5, sol.TotalAmount)
	assert.Equal(t, 2, sol.Positions)
	// Estimated interest is the fixed 10% display figure.
	assert.Equal(t, 1.55, sol.EstimatedInterest)
	require.NotNil(t, sol.PriceUSD)
	assert.Equal(t, 150.0, *sol.PriceUSD)

	assert.Equal(t, 100.0, usdc.TotalAmount)
	assert.Equal(t, 1, usdc.Positions)
	assert.Equal(t, 10.0, usdc.EstimatedInterest)
}

func TestPositionsPriceFailureIsBestEffort(t *testing.T) {
	fx := newLendingFixture()
	fx.pricing.err = errors.New("price api down")

	_, err := fx.service.SubmitDeposit(context.Background(), &DepositInput{
		Wallet:            testWallet,
		Token:             "SOL",
		Amount:            10,
		SignedTransaction: "tx",
	})
	require.NoError(t, err)

	view, err := fx.service.Positions(context.Background(), testWallet)
	require.NoError(t, err)

	require.Len(t, view.ByToken, 1)
	assert.Nil(t, view.ByToken[0].PriceUSD)
	assert.Equal(t, 1.0, view.ByToken[0].EstimatedInterest)
}

func TestPositionsEmptyLender(t *testing.T) {
	fx := newLendingFixture()

	view, err := fx.service.Positions(context.Background(), testWallet)
	require.NoError(t, err)

	assert.Empty(t, view.Positions)
	assert.Empty(t, view.ByToken)
}

func TestPositionsInvalidWallet(t *testing.T) {
	fx := newLendingFixture()

	_, err := fx.service.Positions(context.Background(), "bad")

	var serviceErr *types.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "INVALID_WALLET_FORMAT", serviceErr.Code)
}
