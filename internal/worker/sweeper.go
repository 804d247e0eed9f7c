// Package worker provides the due-date sweeper: a periodic scan that marks
// overdue active loans as defaulted.
package worker

import (
	"context"
	"time"

	"github.com/lending-engine/internal/logging"
	"github.com/lending-engine/internal/models"
)

// OverdueLoanStore is the slice of loan persistence the sweeper consumes.
type OverdueLoanStore interface {
	ListOverdueActive(ctx context.Context, before time.Time, limit int) ([]*models.Loan, error)
	MarkDefaulted(ctx context.Context, id string) (bool, error)
}

// Sweeper periodically marks overdue active loans as defaulted. The
// transition is conditional on status, so concurrent repayment of a loan in
// the batch simply wins and the sweep skips it.
type Sweeper struct {
	loans     OverdueLoanStore
	interval  time.Duration
	batchSize int
}

// NewSweeper creates a due-date sweeper.
func NewSweeper(loans OverdueLoanStore, interval time.Duration, batchSize int) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{loans: loans, interval: interval, batchSize: batchSize}
}

// Run sweeps on the configured interval until ctx is cancelled. The first
// sweep runs immediately.
func (s *Sweeper) Run(ctx context.Context) {
	logger := logging.FromContext(ctx)
	logger.WithFields(map[string]interface{}{
		"interval":  s.interval.String(),
		"batchSize": s.batchSize,
	}).Info("Due-date sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil {
			logger.WithError(err).Error("Sweep failed")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info("Due-date sweeper stopped")
			return
		}
	}
}

// SweepOnce marks one batch of overdue active loans as defaulted and returns
// how many transitions were applied.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	logger := logging.FromContext(ctx)

	overdue, err := s.loans.ListOverdueActive(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		return 0, err
	}

	defaulted := 0
	for _, loan := range overdue {
		applied, err := s.loans.MarkDefaulted(ctx, loan.ID)
		if err != nil {
			// One bad row should not block the batch.
			logger.WithError(err).WithField("loanId", loan.ID).Error("Failed to mark loan defaulted")
			continue
		}
		if applied {
			defaulted++
			logger.WithFields(map[string]interface{}{
				"loanId": loan.ID,
				"dueBy":  loan.DueBy,
			}).Info("Loan marked defaulted")
		}
	}

	return defaulted, nil
}
