package decimalx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Parse accepts plain decimal notation with optional surrounding whitespace.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty decimal")
	}
	res, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return res, nil
}
