// Package money holds all money-valued arithmetic. Amounts are
// shopspring decimals end to end so balances never pick up binary
// floating-point error; the zero Decimal stands in for an absent operand.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned by From and Parse for input that is not a
// decimal number.
var ErrInvalidNumber = errors.New("invalid decimal number")

var hundredth = decimal.New(1, -2)

// Add returns a + b.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b)
}

// Subtract returns a - b.
func Subtract(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b)
}

// Multiply returns a * b.
func Multiply(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b)
}

// Sum folds values with Add.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// RoundToCents rounds x to two fractional digits, half away from zero
// (2.345 -> 2.35, -2.345 -> -2.35).
func RoundToCents(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// FormatCents renders x rounded to cents with exactly two fractional digits.
func FormatCents(x decimal.Decimal) string {
	return x.StringFixed(2)
}

// IsCents reports whether x carries at most two fractional digits.
func IsCents(x decimal.Decimal) bool {
	return x.Mod(hundredth).IsZero()
}

// Parse reads a decimal string. Surrounding whitespace is ignored and an
// empty string is zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// From converts numeric or decimal-string input to a Decimal. nil is zero.
// Floats go through their shortest decimal representation, so 0.1 is
// exactly 0.1 rather than its binary approximation.
func From(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return n, nil
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, nil
		}
		return *n, nil
	case string:
		return Parse(n)
	case json.Number:
		return Parse(n.String())
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumber, n)
		}
		return decimal.NewFromFloat32(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidNumber, n)
		}
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidNumber, v)
	}
}
