package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tourneyhub/settlement/internal/domain/errors"
)

var (
	hundred       = decimal.NewFromInt(100)
	maxPercentage = hundred
)

// ValidatePercentage checks that pct lies in [0,100] with at most two decimal places.
func ValidatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(maxPercentage) {
		return errors.NewValidationError("commission_percentage", "must be between 0 and 100")
	}
	if !pct.Equal(pct.Round(2)) {
		return errors.NewValidationError("commission_percentage", "at most two decimal places")
	}
	return nil
}

// ComputeCommission returns round(amountCents * pct / 100) in cents, rounding half away from zero.
func ComputeCommission(amountCents int64, pct decimal.Decimal) (int64, error) {
	if amountCents < 0 {
		return 0, errors.NewValidationError("amount", "cannot be negative")
	}
	if err := ValidatePercentage(pct); err != nil {
		return 0, err
	}
	c := decimal.NewFromInt(amountCents).Mul(pct).Div(hundred).Round(0)
	return c.IntPart(), nil
}

// FormatCents renders cents as a plain two-decimal string, e.g. 12345 -> "123.45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
