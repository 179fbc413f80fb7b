package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every stored amount.
const Scale = 4

// Normalize rounds half-up to Scale digits. Amounts on the ledger are always
// positive magnitudes, so decimal's half-away-from-zero rounding is half-up.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Parse reads a decimal amount from configuration or user input.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Positive reports whether d is strictly greater than zero after
// normalization. Amounts below the smallest representable unit are rejected.
func Positive(d decimal.Decimal) bool {
	return Normalize(d).IsPositive()
}

// Convert applies an exchange rate and normalizes the result.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return Normalize(amount.Mul(rate))
}

// Format renders an amount with exactly Scale digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}

// NormalizeCurrency upper-cases and trims an ISO-4217-like code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
