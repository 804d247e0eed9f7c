package scoring

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/lending-engine/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestInterestRate(t *testing.T) {
	tests := []struct {
		name         string
		creditScore  float64
		principal    float64
		durationDays int
		want         float64
	}{
		{
			// Tiny principal drives the rate below the floor.
			name:         "small principal clamps to floor",
			creditScore:  80.6,
			principal:    1,
			durationDays: 5,
			want:         RateFloor,
		},
		{
			// Large principal drives the rate above the ceiling.
			name:         "large principal clamps to ceiling",
			creditScore:  80.6,
			principal:    1000,
			durationDays: 30,
			want:         RateCeiling,
		},
		{
			// riskTerm = clamp(125/(155-80.6), 0, 1) = 1
			// rate = 10 * (0.05 + 2 + (5/30.4)*0.5) = 21.32...
			name:         "mid principal inside the band",
			creditScore:  80.6,
			principal:    10,
			durationDays: 5,
			want:         21.32,
		},
		{
			// riskTerm = 125/(155-25) = 0.9615...
			// rate = 10 * (0.05 + 1.923... + (10/30.4)*0.5) = 21.38...
			name:         "low credit score below the pivot",
			creditScore:  25,
			principal:    10,
			durationDays: 10,
			want:         21.38,
		},
		{
			// Score above the pivot makes the quotient negative; the risk
			// term clamps to 0. rate = 10 * (0.05 + (30/30.4)*0.5) = 5.43...
			// then the floor applies.
			name:         "score above pivot clamps risk term",
			creditScore:  160,
			principal:    10,
			durationDays: 30,
			want:         RateFloor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterestRate(tt.creditScore, tt.principal, tt.durationDays)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterestRateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("rate stays inside the policy band", prop.ForAll(
		func(creditScore, principal float64, durationIdx int) bool {
			duration := types.LoanDurations[durationIdx]
			rate := InterestRate(creditScore, principal, duration)
			return rate >= RateFloor && rate <= RateCeiling
		},
		gen.Float64Range(0, 200),
		gen.Float64Range(0.01, 1e6),
		gen.IntRange(0, len(types.LoanDurations)-1),
	))

	properties.Property("longer duration never lowers the rate", prop.ForAll(
		func(creditScore, principal float64) bool {
			prev := 0.0
			for _, duration := range types.LoanDurations {
				rate := InterestRate(creditScore, principal, duration)
				if rate < prev {
					return false
				}
				prev = rate
			}
			return true
		},
		gen.Float64Range(0, 200),
		gen.Float64Range(0.01, 1e6),
	))

	properties.Property("total is at least the principal", prop.ForAll(
		func(creditScore, principal float64, durationIdx int) bool {
			duration := types.LoanDurations[durationIdx]
			rate := InterestRate(creditScore, principal, duration)
			return RepayableTotal(principal, rate) >= principal
		},
		gen.Float64Range(0, 200),
		gen.Float64Range(1, 1e6),
		gen.IntRange(0, len(types.LoanDurations)-1),
	))

	properties.TestingRun(t)
}

func TestRepayableTotal(t *testing.T) {
	tests := []struct {
		principal float64
		rate      float64
		want      float64
	}{
		{100, 10.22, 110.22},
		{100, 54.21, 154.21},
		{10, 21.32, 12.13},
		{1, 10.22, 1.1},
	}

	for _, tt := range tests {
		got := RepayableTotal(tt.principal, tt.rate)
		assert.Equal(t, tt.want, got, "RepayableTotal(%v, %v)", tt.principal, tt.rate)
	}
}
