package bookstore

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a human decimal amount ("0.001", "2", "1.5") into an integer
// in the smallest denomination. Empty input parses as zero. Fractional digits beyond
// decimals, signs, exponents and any non-digit characters are rejected.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	cleaned := strings.TrimSpace(amount)
	if cleaned == "" {
		return new(big.Int), nil
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals: %d", decimals)
	}

	whole, frac, hasDot := strings.Cut(cleaned, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}

	frac = strings.TrimRight(frac, "0")
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", amount)
	}
	return value, nil
}

// FormatUnits renders a smallest-denomination integer in human units without
// trailing zeros. Nil formats as "0".
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	if decimals <= 0 {
		return value.String()
	}

	neg := value.Sign() < 0
	digits := new(big.Int).Abs(value).String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-decimals]
	frac := strings.TrimRight(digits[len(digits)-decimals:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
