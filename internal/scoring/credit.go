package scoring

import (
	"context"
	"math"
)

// Credit score model weights. The activity term consumes the score in its
// percent domain ([-100, 100]), offset before weighting.
const (
	weightBorrowerHistory = 0.55
	weightActivity        = 0.33
	activityOffset        = 20
	creditBase            = 30

	// DefaultBorrowerHistory is the borrower history score applied to
	// wallets with no completed loan history.
	DefaultBorrowerHistory = 80.0
)

// BorrowerHistorySource yields a borrower history score in [0, 100] for a
// wallet, typically derived from past loan outcomes.
type BorrowerHistorySource func(ctx context.Context, wallet string) (float64, error)

// StaticBorrowerHistory returns a source that always yields the given score.
func StaticBorrowerHistory(score float64) BorrowerHistorySource {
	return func(context.Context, string) (float64, error) {
		return score, nil
	}
}

// CreditScore combines a borrower history score with an activity result into
// the persisted credit score, rounded to 2 decimal places. With the default
// borrower history and an empty activity window this yields 80.6.
func CreditScore(borrowerHistory float64, activity *ActivityResult) float64 {
	score := weightBorrowerHistory*borrowerHistory +
		weightActivity*(activity.Percent()+activityOffset) +
		creditBase
	return Round2(score)
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
