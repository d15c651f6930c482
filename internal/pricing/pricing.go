package pricing

import (
	"math"
	"time"
)

// Tolerance is the largest difference between two amounts that still counts as equal.
const Tolerance = 0.01

// Rules holds the configurable price components applied on top of the nightly rate.
type Rules struct {
	TaxRate float64 `json:"tax_rate"`
	FlatFee float64 `json:"flat_fee"`
}

// DefaultRules returns the standard 12% tax and $25 service fee.
func DefaultRules() Rules {
	return Rules{TaxRate: 0.12, FlatFee: 25.00}
}

// Quote is the price breakdown shown before and stored after a booking.
type Quote struct {
	NightlyRate float64 `json:"nightly_rate"`
	Nights      int     `json:"nights"`
	Rooms       int     `json:"rooms"`
	Subtotal    float64 `json:"subtotal"`
	Taxes       float64 `json:"taxes"`
	Fees        float64 `json:"fees"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

// Nights returns the number of nights between two dates, rounding partial days up.
// A checkout on or before checkin yields zero.
func Nights(checkin, checkout time.Time) int {
	diff := checkout.Sub(checkin)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// Price computes subtotal, taxes, fees and total. Every component is rounded to cents.
func Price(nightlyRate float64, nights, rooms int, rules Rules) Quote {
	subtotal := Round(nightlyRate * float64(nights) * float64(rooms))
	taxes := Round(subtotal * rules.TaxRate)
	fees := Round(rules.FlatFee)

	return Quote{
		NightlyRate: nightlyRate,
		Nights:      nights,
		Rooms:       rooms,
		Subtotal:    subtotal,
		Taxes:       taxes,
		Fees:        fees,
		Total:       Round(subtotal + taxes + fees),
	}
}

// PriceIn is Price with the currency attached.
func PriceIn(nightlyRate float64, nights, rooms int, rules Rules, currency string) Quote {
	q := Price(nightlyRate, nights, rooms, rules)
	q.Currency = currency
	return q
}

// Round rounds half away from zero to two decimal places.
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Equal reports whether two amounts agree within Tolerance.
func Equal(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance+1e-9
}

// RateTotalConsistent checks totalPrice == nights * nightlyRate + taxes + fees.
func RateTotalConsistent(nightlyRate, taxes, fees, totalPrice float64, nights int) bool {
	return Equal(totalPrice, nightlyRate*float64(nights)+taxes+fees)
}
