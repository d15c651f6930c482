package pricing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNights(t *testing.T) {
	tests := []struct {
		name     string
		checkin  time.Time
		checkout time.Time
		expected int
	}{
		{"three nights", date("2024-02-15"), date("2024-02-18"), 3},
		{"one night", date("2024-02-15"), date("2024-02-16"), 1},
		{"partial day rounds up", date("2024-02-15"), date("2024-02-16").Add(2 * time.Hour), 2},
		{"across month end", date("2024-01-30"), date("2024-02-02"), 3},
		{"same day", date("2024-02-15"), date("2024-02-15"), 0},
		{"reversed", date("2024-02-18"), date("2024-02-15"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Nights(tt.checkin, tt.checkout))
		})
	}
}

func TestPrice_ParisStay(t *testing.T) {
	q := Price(150, 3, 1, DefaultRules())

	assert.Equal(t, 450.00, q.Subtotal)
	assert.Equal(t, 54.00, q.Taxes)
	assert.Equal(t, 25.00, q.Fees)
	assert.Equal(t, 529.00, q.Total)
}

func TestPrice_Formula(t *testing.T) {
	rules := Rules{TaxRate: 0.12, FlatFee: 25}
	rates := []float64{0, 1, 99.99, 149.5, 233.33, 1000}

	for _, rate := range rates {
		for nights := 1; nights <= 14; nights++ {
			for rooms := 1; rooms <= 3; rooms++ {
				q := Price(rate, nights, rooms, rules)
				assert.True(t, Equal(q.Total, q.Subtotal*1.12+25), "rate=%v nights=%d rooms=%d", rate, nights, rooms)
				assert.True(t, Equal(q.Total, q.Subtotal+q.Taxes+q.Fees))
			}
		}
	}
}

// Total stays within a cent of the unrounded formula for any tax rate in [0,1]
// and any non-negative fee in whole cents.
func TestPrice_FormulaAcrossRules(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20000; i++ {
		rate := float64(rng.Intn(200000)) / 100
		nights := 1 + rng.Intn(30)
		rooms := 1 + rng.Intn(5)
		rules := Rules{
			TaxRate: rng.Float64(),
			FlatFee: float64(rng.Intn(10000)) / 100,
		}
		if i%100 == 0 {
			rules.TaxRate = float64(i%200) / 100 // 0 and 1 exactly
		}

		q := Price(rate, nights, rooms, rules)
		want := Round(rate*float64(nights)*float64(rooms)*(1+rules.TaxRate) + rules.FlatFee)
		if !Equal(q.Total, want) {
			t.Fatalf("rate=%v nights=%d rooms=%d tax=%v fee=%v: total %v, want %v",
				rate, nights, rooms, rules.TaxRate, rules.FlatFee, q.Total, want)
		}
	}
}

func TestPrice_Deterministic(t *testing.T) {
	first := PriceIn(187.35, 4, 2, DefaultRules(), "EUR")
	second := PriceIn(187.35, 4, 2, DefaultRules(), "EUR")

	assert.Equal(t, first, second)
	assert.Equal(t, "EUR", first.Currency)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 10.13, Round(10.125))
	assert.Equal(t, -10.13, Round(-10.125))
	assert.Equal(t, 0.0, Round(0.004))
}

func TestRateTotalConsistent(t *testing.T) {
	assert.True(t, RateTotalConsistent(150, 54, 25, 529, 3))
	assert.True(t, RateTotalConsistent(150, 54, 25, 529.005, 3))
	assert.False(t, RateTotalConsistent(150, 54, 25, 540, 3))
}
