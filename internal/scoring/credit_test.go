package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditScore(t *testing.T) {
	tests := []struct {
		name            string
		borrowerHistory float64
		activity        *ActivityResult
		want            float64
	}{
		{
			// 0.55*80 + 0.33*(0+20) + 30 = 44 + 6.6 + 30
			name:            "default history with empty activity window",
			borrowerHistory: DefaultBorrowerHistory,
			activity:        &ActivityResult{Score: 0, Defined: false},
			want:            80.6,
		},
		{
			// 0.55*80 + 0.33*(100+20) + 30 = 44 + 39.6 + 30
			name:            "all sent activity",
			borrowerHistory: 80,
			activity:        &ActivityResult{Score: 1, Defined: true},
			want:            113.6,
		},
		{
			// 0.55*80 + 0.33*(-100+20) + 30 = 44 - 26.4 + 30
			name:            "all received activity",
			borrowerHistory: 80,
			activity:        &ActivityResult{Score: -1, Defined: true},
			want:            47.6,
		},
		{
			// 0.55*100 + 0.33*(50+20) + 30 = 55 + 23.1 + 30
			name:            "perfect history with positive activity",
			borrowerHistory: 100,
			activity:        &ActivityResult{Score: 0.5, Defined: true},
			want:            108.1,
		},
		{
			// 0.55*0 + 0.33*(0+20) + 30 = 6.6 + 30
			name:            "zero history with balanced activity",
			borrowerHistory: 0,
			activity:        &ActivityResult{Score: 0, Defined: true},
			want:            36.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreditScore(tt.borrowerHistory, tt.activity)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticBorrowerHistory(t *testing.T) {
	source := StaticBorrowerHistory(72.5)

	score, err := source(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 72.5, score)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{1.236, 1.24},
		{1.2, 1.2},
		{-1.005, -1},
		{0, 0},
		{80.6000000001, 80.6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}
