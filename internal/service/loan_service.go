// Package service implements the lending engine's application services: the
// loan lifecycle manager and the lending ledger.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lending-engine/internal/ledger"
	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/models"
	"github.com/lending-engine/internal/scoring"
	"github.com/lending-engine/internal/storage"
	"github.com/lending-engine/internal/types"
)

// NativeToken is the ledger's native token symbol.
const NativeToken = "SOL"

// Collaborator interfaces for dependency injection and testing

// LoanStore defines loan persistence operations consumed by the service.
type LoanStore interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id string) (*models.Loan, error)
	ListByBorrower(ctx context.Context, borrower string) ([]*models.Loan, error)
	MarkRepaid(ctx context.Context, id, settlementSignature string) (bool, error)
	CountOutcomes(ctx context.Context, borrower string) (*storage.LoanOutcomes, error)
}

// UserStore defines user persistence operations consumed by the service.
type UserStore interface {
	GetOrCreate(ctx context.Context, wallet string) (*models.User, error)
	SetCreditScore(ctx context.Context, wallet string, score float64) error
}

// TransactionConfirmer runs the confirmation protocol for a signature.
type TransactionConfirmer interface {
	Await(ctx context.Context, signature string) error
}

// CreditScoreCache caches computed credit scores. Failures are logged, never
// surfaced; the cache is an optimization only.
type CreditScoreCache interface {
	SetCreditScore(ctx context.Context, wallet string, score float64) error
}

// LoanService owns the loan state machine: quoting, origination and the
// repayment transition.
type LoanService struct {
	loans           LoanStore
	users           UserStore
	ledger          ledger.Client
	confirmer       TransactionConfirmer
	analyzer        *scoring.Analyzer
	borrowerHistory scoring.BorrowerHistorySource
	scoreCache      CreditScoreCache
	custodial       string
}

// LoanServiceConfig configures a LoanService.
type LoanServiceConfig struct {
	Loans            LoanStore
	Users            UserStore
	Ledger           ledger.Client
	Confirmer        TransactionConfirmer
	HistoryWindow    int
	BorrowerHistory  scoring.BorrowerHistorySource // optional; defaults to loan-outcome history
	ScoreCache       CreditScoreCache              // optional
	CustodialAddress string
}

// NewLoanService creates a loan service.
func NewLoanService(cfg *LoanServiceConfig) *LoanService {
	s := &LoanService{
		loans:           cfg.Loans,
		users:           cfg.Users,
		ledger:          cfg.Ledger,
		confirmer:       cfg.Confirmer,
		analyzer:        scoring.NewAnalyzer(cfg.Ledger, cfg.HistoryWindow),
		borrowerHistory: cfg.BorrowerHistory,
		scoreCache:      cfg.ScoreCache,
		custodial:       cfg.CustodialAddress,
	}
	if s.borrowerHistory == nil {
		s.borrowerHistory = BorrowerHistoryFromLoans(cfg.Loans, scoring.DefaultBorrowerHistory)
	}
	return s
}

// BorrowerHistoryFromLoans derives the borrower history score from past loan
// outcomes: the repaid share of settled loans mapped onto [0, 100]. Wallets
// with no settled loans score the fallback default.
func BorrowerHistoryFromLoans(loans LoanStore, fallback float64) scoring.BorrowerHistorySource {
	return func(ctx context.Context, wallet string) (float64, error) {
		outcomes, err := loans.CountOutcomes(ctx, wallet)
		if err != nil {
			return 0, err
		}
		settled := outcomes.Repaid + outcomes.Defaulted
		if settled == 0 {
			return fallback, nil
		}
		return float64(outcomes.Repaid) / float64(settled) * 100, nil
	}
}

// QuoteInput is a borrow request to be priced.
type QuoteInput struct {
	Wallet       string  `json:"wallet"`
	Token        string  `json:"token"`
	Amount       float64 `json:"amount"`
	DurationDays int     `json:"durationDays"`
}

// Quote is the priced terms for a borrow request. Nothing about the loan is
// persisted at quote time; only the recomputed credit score is written back
// to the user.
type Quote struct {
	Wallet          string    `json:"wallet"`
	Token           string    `json:"token"`
	Amount          float64   `json:"amount"`
	DurationDays    int       `json:"durationDays"`
	ActivityScore   float64   `json:"activityScore"`
	ActivityDefined bool      `json:"activityDefined"`
	CreditScore     float64   `json:"creditScore"`
	InterestRate    float64   `json:"interestRate"`
	Interest        float64   `json:"interest"`
	Total           float64   `json:"total"`
	DueBy           time.Time `json:"dueBy"`
}

func validateQuoteInput(input *QuoteInput) error {
	if err := storage.ValidateWalletAddress(input.Wallet); err != nil {
		return err
	}
	if input.Token == "" {
		return &types.ServiceError{
			Code:    "MISSING_TOKEN",
			Message: "token symbol is required",
		}
	}
	if input.Amount <= 0 {
		return &types.ServiceError{
			Code:    "INVALID_AMOUNT",
			Message: fmt.Sprintf("amount must be positive, got %v", input.Amount),
			Details: map[string]interface{}{"amount": input.Amount},
		}
	}
	if !types.ValidDuration(input.DurationDays) {
		return &types.ServiceError{
			Code:    "INVALID_DURATION",
			Message: fmt.Sprintf("duration must be one of %v days, got %d", types.LoanDurations, input.DurationDays),
			Details: map[string]interface{}{"durationDays": input.DurationDays},
		}
	}
	return nil
}

// QuoteBorrow runs the scoring pipeline for a borrow request: activity score,
// credit score (persisted on the user) and interest rate. The quote itself is
// not persisted.
func (s *LoanService) QuoteBorrow(ctx context.Context, input *QuoteInput) (*Quote, error) {
	if err := validateQuoteInput(input); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).WithField("wallet", input.Wallet)

	if _, err := s.users.GetOrCreate(ctx, input.Wallet); err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	activity, err := s.analyzer.Analyze(ctx, input.Wallet)
	if err != nil {
		return nil, fmt.Errorf("activity analysis failed: %w", err)
	}

	borrowerHistory, err := s.borrowerHistory(ctx, input.Wallet)
	if err != nil {
		return nil, fmt.Errorf("borrower history lookup failed: %w", err)
	}

	creditScore := scoring.CreditScore(borrowerHistory, activity)
	if err := s.users.SetCreditScore(ctx, input.Wallet, creditScore); err != nil {
		return nil, fmt.Errorf("failed to persist credit score: %w", err)
	}
	if s.scoreCache != nil {
		if err := s.scoreCache.SetCreditScore(ctx, input.Wallet, creditScore); err != nil {
			logger.WithError(err).Warn("Credit score cache write failed")
		}
	}

	rate := scoring.InterestRate(creditScore, input.Amount, input.DurationDays)
	total := scoring.RepayableTotal(input.Amount, rate)
	now := time.Now().UTC()

	return &Quote{
		Wallet:          input.Wallet,
		Token:           input.Token,
		Amount:          input.Amount,
		DurationDays:    input.DurationDays,
		ActivityScore:   activity.Score,
		ActivityDefined: activity.Defined,
		CreditScore:     creditScore,
		InterestRate:    rate,
		Interest:        scoring.Round2(total - input.Amount),
		Total:           total,
		DueBy:           dueBy(now, input.DurationDays),
	}, nil
}

// dueBy computes the due date as the submission instant plus the duration in
// whole days, in UTC so the result does not depend on where it is computed.
func dueBy(submittedAt time.Time, durationDays int) time.Time {
	return submittedAt.UTC().AddDate(0, 0, durationDays)
}

// BorrowInput is a user-confirmed borrow request.
type BorrowInput struct {
	Wallet       string                  `json:"wallet"`
	Token        string                  `json:"token"`
	Amount       float64                 `json:"amount"`
	DurationDays int                     `json:"durationDays"`
	Collateral   []types.CollateralAsset `json:"collateral"`
}

// SubmitBorrow originates a loan from a confirmed borrow request. Terms are
// recomputed server-side so a stale quote cannot fix the rate. The collateral
// list is snapshotted into the loan record as of this moment.
func (s *LoanService) SubmitBorrow(ctx context.Context, input *BorrowInput) (*models.Loan, error) {
	quote, err := s.QuoteBorrow(ctx, &QuoteInput{
		Wallet:       input.Wallet,
		Token:        input.Token,
		Amount:       input.Amount,
		DurationDays: input.DurationDays,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan := &models.Loan{
		ID:           storage.NewLoanID(),
		Borrower:     input.Wallet,
		Token:        input.Token,
		Principal:    input.Amount,
		InterestRate: quote.InterestRate,
		DurationDays: input.DurationDays,
		SubmittedAt:  now,
		DueBy:        dueBy(now, input.DurationDays),
		Total:        quote.Total,
		Collateral: types.CollateralSnapshot{
			Version: types.CollateralSnapshotVersion,
			Assets:  input.Collateral,
		},
		Status: types.StatusActive,
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to persist loan: %w", err)
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"loanId":   loan.ID,
		"borrower": loan.Borrower,
		"token":    loan.Token,
		"total":    loan.Total,
		"dueBy":    loan.DueBy,
	}).Info("Loan originated")

	return loan, nil
}

// RepaymentInput is a repayment request for an active loan.
type RepaymentInput struct {
	LoanID string `json:"loanId"`
	Wallet string `json:"wallet"`
	// SignedTransaction is the wallet-signed transfer of the loan total to
	// the custodial address, constructed by the wallet adapter.
	SignedTransaction string `json:"signedTransaction"`
}

// RepaymentResult is the outcome of a repayment request.
type RepaymentResult struct {
	Loan *models.Loan `json:"loan"`
	// AlreadySettled is true when the loan was not active: the request is a
	// no-op reporting the current status rather than an error.
	AlreadySettled bool   `json:"alreadySettled"`
	Signature      string `json:"signature,omitempty"`
}

// SubmitRepayment runs the repayment transition. Order of gates: input
// validation, loan status (non-active is a no-op), balance precheck, then the
// transfer submit and confirmation protocol. Only a confirmed transfer moves
// the loan to repaid; any earlier failure leaves it active and retryable.
func (s *LoanService) SubmitRepayment(ctx context.Context, input *RepaymentInput) (*RepaymentResult, error) {
	if input.LoanID == "" {
		return nil, &types.ServiceError{
			Code:    "MISSING_LOAN_ID",
			Message: "loan id is required",
		}
	}
	if err := storage.ValidateWalletAddress(input.Wallet); err != nil {
		return nil, err
	}
	if input.SignedTransaction == "" {
		return nil, &types.ServiceError{
			Code:    "MISSING_SIGNED_TRANSACTION",
			Message: "signed repayment transaction is required",
		}
	}

	loan, err := s.loans.GetByID(ctx, input.LoanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if loan == nil {
		return nil, &types.ServiceError{
			Code:    "LOAN_NOT_FOUND",
			Message: fmt.Sprintf("loan not found: %s", input.LoanID),
			Details: map[string]interface{}{"loanId": input.LoanID},
		}
	}
	if loan.Borrower != input.Wallet {
		return nil, &types.ServiceError{
			Code:    "FORBIDDEN",
			Message: "loan does not belong to this wallet",
		}
	}

	// Idempotency gate: a repayment for a settled loan observes the
	// terminal status and exits without touching the ledger or the record.
	if loan.Status != types.StatusActive {
		return &RepaymentResult{Loan: loan, AlreadySettled: true}, nil
	}

	balance, err := s.tokenBalance(ctx, input.Wallet, loan.Token)
	if err != nil {
		return nil, fmt.Errorf("balance check failed: %w", err)
	}
	if balance < loan.Total {
		return nil, &types.ServiceError{
			Code:    "INSUFFICIENT_BALANCE",
			Message: fmt.Sprintf("balance %.2f is below repayable total %.2f", balance, loan.Total),
			Details: map[string]interface{}{
				"balance": balance,
				"total":   loan.Total,
				"token":   loan.Token,
			},
		}
	}

	signature, err := s.ledger.SubmitTransaction(ctx, input.SignedTransaction)
	if err != nil {
		return nil, fmt.Errorf("transaction submit failed: %w", err)
	}

	if err := s.confirmer.Await(ctx, signature); err != nil {
		// The loan stays active; a timeout is explicitly retryable.
		return nil, fmt.Errorf("repayment not confirmed: %w", err)
	}

	applied, err := s.loans.MarkRepaid(ctx, loan.ID, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to record repayment: %w", err)
	}
	if !applied {
		// A concurrent or retried transition already settled the loan.
		settled, err := s.loans.GetByID(ctx, loan.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload loan: %w", err)
		}
		return &RepaymentResult{Loan: settled, AlreadySettled: true, Signature: signature}, nil
	}

	loan.Status = types.StatusRepaid
	loan.SettlementSignature = &signature

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"loanId":    loan.ID,
		"signature": signature,
	}).Info("Loan repaid")

	return &RepaymentResult{Loan: loan, Signature: signature}, nil
}

// tokenBalance fetches the wallet balance for a token, using the native
// balance endpoint for the native token.
func (s *LoanService) tokenBalance(ctx context.Context, wallet, token string) (float64, error) {
	if token == NativeToken {
		return s.ledger.GetBalance(ctx, wallet)
	}
	return s.ledger.GetTokenBalance(ctx, wallet, token)
}

// ListLoans returns all loans for a borrower, most recent first.
func (s *LoanService) ListLoans(ctx context.Context, borrower string) ([]*models.Loan, error) {
	if err := storage.ValidateWalletAddress(borrower); err != nil {
		return nil, err
	}
	return s.loans.ListByBorrower(ctx, borrower)
}
