// Package ledger provides access to the blockchain ledger consumed by the
// lending engine: transaction history, balances, transaction submission and
// status lookup.
package ledger

import (
	"context"
	"fmt"

	"github.com/lending-engine/internal/types"
)

// Transaction is a ledger transaction reduced to what the engine needs:
// enough to classify it as sent or received relative to a wallet.
type Transaction struct {
	Signature   string
	Source      string
	Destination string
	BlockTime   int64
	Failed      bool
}

// Direction classifies the transaction relative to the given wallet.
// A transaction is sent when the wallet is the originating party.
func (t *Transaction) Direction(wallet string) types.TransactionDirection {
	if t.Source == wallet {
		return types.DirectionSent
	}
	return types.DirectionReceived
}

// Client defines the ledger operations consumed by the engine. All calls are
// blocking from the caller's perspective and are not retried internally;
// retries are the caller's responsibility.
type Client interface {
	// FetchTransactionHistory retrieves up to maxCount most recent
	// transactions involving the address.
	FetchTransactionHistory(ctx context.Context, address string, maxCount int) ([]*Transaction, error)

	// GetBalance retrieves the native token balance for an address.
	GetBalance(ctx context.Context, address string) (float64, error)

	// GetTokenBalance retrieves the balance of a specific token for an address.
	GetTokenBalance(ctx context.Context, address, token string) (float64, error)

	// SubmitTransaction submits a wallet-signed transaction and returns its
	// signature. Submission is fire-and-forget; confirmation is separate.
	SubmitTransaction(ctx context.Context, signedTx string) (string, error)

	// GetTransactionStatus reports the confirmation state of a signature.
	GetTransactionStatus(ctx context.Context, signature string) (types.ConfirmationState, error)
}

// Common error values for ledger access

var (
	// ErrProviderUnavailable indicates the ledger RPC endpoint is unreachable
	ErrProviderUnavailable = fmt.Errorf("ledger provider unavailable")

	// ErrTransactionNotFound indicates the requested transaction was not found
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// ErrInvalidAddress indicates the address format is invalid
	ErrInvalidAddress = fmt.Errorf("invalid address format")
)

// LedgerError wraps ledger failures with the operation that produced them.
type LedgerError struct {
	Op  string // Operation that failed (e.g., "FetchTransactionHistory")
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger error [%s]: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
