package money

import "github.com/shopspring/decimal"

// Money is a monetary amount held as an integer count of minor units
// (cents/paise). Keeping amounts in minor units means arithmetic never
// touches binary floating point; only conversion at the API boundary
// goes through decimal values.
type Money int64

// MinorPerUnit is the number of minor units in one major currency unit.
const MinorPerUnit = 100

// Zero is the zero amount.
const Zero Money = 0

// FromDecimal quantizes d to two decimal places, ties rounding away from
// zero, and returns the amount in minor units. This is the one rounding
// rule used everywhere an amount crosses a boundary.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// FromMinor wraps a raw minor-unit count.
func FromMinor(v int64) Money { return Money(v) }

// FromMajor converts a whole number of major units.
func FromMajor(v int64) Money { return Money(v * MinorPerUnit) }

// Decimal returns the canonical two-decimal-place representation.
func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

// Minor returns the raw minor-unit count.
func (m Money) Minor() int64 { return int64(m) }

// Add returns m + o.
func (m Money) Add(o Money) Money { return m + o }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return m - o }

// MulInt scales the amount by a whole quantity. Exact, no rounding.
func (m Money) MulInt(n int64) Money { return m * Money(n) }

// MulPercent applies a percentage expressed in basis points (5.00% == 500)
// and quantizes the result, ties away from zero. This is the tax formula:
// amount * rate / 100.
func (m Money) MulPercent(bps int64) Money {
	return roundDiv(int64(m)*bps, 10000)
}

// roundDiv divides num by den rounding half away from zero. den must be
// positive.
func roundDiv(num, den int64) Money {
	if num >= 0 {
		return Money((num + den/2) / den)
	}
	return Money((num - den/2) / den)
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m < 0 }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m == 0 }

// String renders the amount with exactly two decimal places, e.g. "46.80".
func (m Money) String() string { return m.Decimal().StringFixed(2) }

// MarshalJSON renders the amount as a quoted decimal string so callers
// never see a binary float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}

// BasisPoints quantizes a percentage with two decimal places (e.g. 5.25)
// into integer basis points (525).
func BasisPoints(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// BasisPointsDecimal is the inverse of BasisPoints, for display.
func BasisPointsDecimal(bps int64) decimal.Decimal {
	return decimal.New(bps, -2)
}
