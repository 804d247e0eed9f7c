// Package confirm implements the transaction confirmation protocol: a bounded
// polling loop that converts an asynchronous ledger transaction into a
// synchronous confirmed, timed-out or failed outcome.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/types"
)

var (
	// ErrTimeout is returned when no confirmation arrives within the
	// budget. The transaction may still land; retrying is safe because no
	// dependent state transition has happened.
	ErrTimeout = errors.New("transaction not confirmed within budget")

	// ErrTransactionFailed is returned when the ledger reports the
	// transaction finalized with an error.
	ErrTransactionFailed = errors.New("transaction confirmed with error")

	// ErrMissingSignature is returned when polling is requested without a
	// signature, e.g. after a wallet disconnected mid-flight.
	ErrMissingSignature = errors.New("missing transaction signature")
)

// StatusFetcher is the slice of the ledger client the confirmer consumes.
type StatusFetcher interface {
	GetTransactionStatus(ctx context.Context, signature string) (types.ConfirmationState, error)
}

// Confirmer polls the ledger for a transaction's finalized status.
type Confirmer struct {
	status   StatusFetcher
	interval time.Duration
	budget   time.Duration
}

// New creates a confirmer polling at the given interval under the given
// overall budget.
func New(status StatusFetcher, interval, budget time.Duration) *Confirmer {
	if interval <= 0 {
		interval = time.Second
	}
	if budget <= 0 {
		budget = 8 * time.Second
	}
	return &Confirmer{status: status, interval: interval, budget: budget}
}

// Await polls until the transaction confirms, errors, or the budget elapses.
// Cancelling ctx aborts the poll immediately, so a caller tearing down cannot
// leave an orphaned poll behind. A status fetch failure on one tick is not
// terminal; the next tick polls again until the budget runs out.
func (c *Confirmer) Await(ctx context.Context, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	logger := logging.FromContext(ctx).WithField("signature", signature)

	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		state, err := c.status.GetTransactionStatus(ctx, signature)
		if err != nil {
			logger.WithError(err).Warn("Transaction status fetch failed, will poll again")
		} else {
			switch state {
			case types.ConfirmationOK:
				logger.Debug("Transaction confirmed")
				return nil
			case types.ConfirmationErrored:
				return fmt.Errorf("%w: %s", ErrTransactionFailed, signature)
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrTimeout, signature)
			}
			return ctx.Err()
		}
	}
}

// Retryable reports whether a confirmation failure is safe to retry from the
// caller's perspective.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}
