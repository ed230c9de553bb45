// Package money holds the monetary value types shared by the lending domain
// and its presentation layer.
package money

import (
	"github.com/shopspring/decimal"
)

// UnknownText is how an Unknown amount renders. A zero would read as a real
// amount due, so undetermined figures never fall back to "0.00".
const UnknownText = "TBD"

// Amount is a currency amount that may not be determined yet.
type Amount struct {
	value decimal.Decimal
	known bool
}

func Known(d decimal.Decimal) Amount {
	return Amount{value: d, known: true}
}

func Unknown() Amount {
	return Amount{}
}

func Zero() Amount {
	return Known(decimal.Zero)
}

func (a Amount) IsKnown() bool {
	return a.known
}

// Value returns the amount and whether it is known.
func (a Amount) Value() (decimal.Decimal, bool) {
	return a.value, a.known
}

func (a Amount) Equal(other Amount) bool {
	if a.known != other.known {
		return false
	}
	return !a.known || a.value.Equal(other.value)
}

// String renders cents precision or UnknownText.
func (a Amount) String() string {
	if !a.known {
		return UnknownText
	}
	return RoundCents(a.value).StringFixed(2)
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
