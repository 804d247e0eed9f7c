package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoanStatusTransitions(t *testing.T) {
	// Active may move to every terminal state.
	for _, to := range []LoanStatus{StatusRepaid, StatusDefaulted, StatusCancelled, StatusExpired, StatusClosed} {
		assert.True(t, CanTransition(StatusActive, to), "active -> %s", to)
	}

	// Terminal states never transition again.
	terminals := []LoanStatus{StatusRepaid, StatusDefaulted, StatusCancelled, StatusExpired, StatusClosed}
	for _, from := range terminals {
		assert.True(t, from.IsTerminal())
		for _, to := range append(terminals, StatusActive) {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, CanTransition(StatusActive, StatusActive))
}

func TestValidDuration(t *testing.T) {
	for _, d := range LoanDurations {
		assert.True(t, ValidDuration(d))
	}
	for _, d := range []int{0, -5, 1, 7, 12, 31, 60} {
		assert.False(t, ValidDuration(d))
	}
}
