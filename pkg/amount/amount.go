// Package amount converts fixed-point token amounts (base units) to and from
// display strings without going through floating point.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the scale used by ETH and WINES.
const Decimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// Unit returns 10^decimals as a fresh big.Int.
func Unit(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// Format renders amount/10^decimals rounded half-up to exactly
// displayDecimals fractional digits.
func Format(amount *big.Int, decimals, displayDecimals int) (string, error) {
	if err := checkFormatArgs(amount, decimals, displayDecimals); err != nil {
		return "", err
	}
	d := decimal.NewFromBigInt(amount, -int32(decimals))
	// StringFixed rounds half away from zero, which is half-up for
	// non-negative values.
	return d.StringFixed(int32(displayDecimals)), nil
}

// FormatLessThan behaves like Format but renders non-zero amounts smaller
// than the last displayed digit as "<0.0001" (for displayDecimals 4), so a
// dust balance never shows as zero.
func FormatLessThan(amount *big.Int, decimals, displayDecimals int) (string, error) {
	if err := checkFormatArgs(amount, decimals, displayDecimals); err != nil {
		return "", err
	}
	if amount.Sign() == 0 {
		return "0", nil
	}
	minimum := Unit(decimals - displayDecimals)
	if amount.Cmp(minimum) < 0 {
		s, err := Format(minimum, decimals, displayDecimals)
		if err != nil {
			return "", err
		}
		return "<" + s, nil
	}
	return Format(amount, decimals, displayDecimals)
}

func checkFormatArgs(amount *big.Int, decimals, displayDecimals int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if decimals < 0 || displayDecimals < 0 || displayDecimals > decimals {
		return fmt.Errorf("%w: cannot show %d of %d decimals", ErrInvalidAmount, displayDecimals, decimals)
	}
	return nil
}

// Parse converts a non-negative decimal string into base units, truncating
// any precision beyond decimals.
func Parse(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || decimals < 0 {
		return nil, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// ParseWholeTokens parses a whole-token count such as "10" and scales it to
// base units. Signs, fractions and exponents are rejected.
func ParseWholeTokens(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return n.Mul(n, Unit(decimals)), nil
}
