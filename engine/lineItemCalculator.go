package engine

import (
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
)

type LineAmounts struct {
	DiscountAmount decimal.Decimal
	Amount         decimal.Decimal
}

// ComputeLine values one line. Negative inputs count as zero, so it never fails;
// rejecting them is ValidateLine's job. Spelled-out discount types are accepted.
func ComputeLine(quantity, rate, discountValue decimal.Decimal, discountType models.DiscountType) LineAmounts {
	gross := utils.MaxZero(quantity).Mul(utils.MaxZero(rate))
	discountAmount := utils.CalculateDiscountAmount(gross, discountValue, string(normalizeDiscountType(discountType)))
	return LineAmounts{
		DiscountAmount: discountAmount,
		Amount:         utils.MaxZero(gross.Sub(discountAmount)),
	}
}

// ValidateLine checks the inputs of a line. field prefixes the reported field names.
func ValidateLine(field string, line models.LineItem) error {
	var errs models.ValidationErrors
	if line.Quantity.IsNegative() {
		errs = append(errs, models.NewValidationError(field+"quantity", "must not be negative"))
	}
	if line.Rate.IsNegative() {
		errs = append(errs, models.NewValidationError(field+"rate", "must not be negative"))
	}
	if line.DiscountValue.IsNegative() {
		errs = append(errs, models.NewValidationError(field+"discount_value", "must not be negative"))
	}
	if _, ok := models.ParseDiscountType(string(line.DiscountType)); !ok {
		errs = append(errs, models.NewValidationError(field+"discount_type", "unknown discount type %q", line.DiscountType))
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errs
}

// normalizeDiscountType maps spelled-out discount types onto the stored codes.
func normalizeDiscountType(t models.DiscountType) models.DiscountType {
	if parsed, ok := models.ParseDiscountType(string(t)); ok {
		return parsed
	}
	return t
}
