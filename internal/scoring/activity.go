// Package scoring implements the risk-scoring pipeline: wallet activity
// analysis, the credit score model and the interest rate model.
package scoring

import (
	"context"

	"github.com/lending-engine/internal/ledger"
	"github.com/lending-engine/internal/types"
)

// HistoryFetcher is the slice of the ledger client the analyzer consumes.
type HistoryFetcher interface {
	FetchTransactionHistory(ctx context.Context, address string, maxCount int) ([]*ledger.Transaction, error)
}

// ActivityResult is the outcome of analyzing a wallet's recent transactions.
type ActivityResult struct {
	Sent     int `json:"sent"`
	Received int `json:"received"`
	// Score is the normalized directional activity score in [-1, 1].
	// When the sample window is empty the ratio is undefined and Score is
	// substituted with 0; Defined reports which case occurred.
	Score   float64 `json:"score"`
	Defined bool    `json:"defined"`
}

// Percent returns the activity score in the [-100, 100] domain, which is what
// the credit score model consumes.
func (r *ActivityResult) Percent() float64 {
	return r.Score * 100
}

// Analyzer reduces a wallet's recent transaction history to an activity score.
type Analyzer struct {
	history HistoryFetcher
	window  int
}

// NewAnalyzer creates an activity analyzer sampling up to window transactions.
func NewAnalyzer(history HistoryFetcher, window int) *Analyzer {
	if window <= 0 {
		window = 20
	}
	return &Analyzer{history: history, window: window}
}

// Analyze fetches the wallet's recent transactions and computes the activity
// score. The operation is read-only; failures surface to the caller and are
// always safe to retry.
func (a *Analyzer) Analyze(ctx context.Context, wallet string) (*ActivityResult, error) {
	txs, err := a.history.FetchTransactionHistory(ctx, wallet, a.window)
	if err != nil {
		return nil, err
	}
	return ScoreTransactions(wallet, txs), nil
}

// ScoreTransactions classifies each transaction as sent or received relative
// to the wallet and reduces the counts to a directional score.
func ScoreTransactions(wallet string, txs []*ledger.Transaction) *ActivityResult {
	result := &ActivityResult{}
	for _, tx := range txs {
		if tx.Direction(wallet) == types.DirectionSent {
			result.Sent++
		} else {
			result.Received++
		}
	}

	total := result.Sent + result.Received
	if total == 0 {
		// Undefined ratio: substitute the documented fallback of 0 so no
		// NaN ever reaches the credit model or persistence.
		result.Score = 0
		result.Defined = false
		return result
	}

	sentPct := float64(result.Sent) / float64(total) * 100
	recvPct := float64(result.Received) / float64(total) * 100
	result.Score = (sentPct - recvPct) / 100
	result.Defined = true
	return result
}
