package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatPrice renders cents the way the booking page shows them: "$45" or "$45.50".
func FormatPrice(cents int64) string {
	amount := decimal.New(cents, -2)
	if cents%100 == 0 {
		return "$" + amount.StringFixed(0)
	}
	return "$" + amount.StringFixed(2)
}

// ParsePrice accepts "45", "45.5", "45,50" or "$45" and returns cents, rounding half away from zero.
func ParsePrice(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, errors.New("price is required")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if amount.IsNegative() {
		return 0, errors.New("price must not be negative")
	}
	return amount.Mul(hundred).Round(0).IntPart(), nil
}
