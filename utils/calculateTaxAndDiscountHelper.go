package utils

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the scale every division is rounded to; it matches the decimal(20,4) columns.
const MoneyPlaces int32 = 4

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateDiscountAmount returns the discount for subTotal.
// discountType "P" treats discount as a percentage, anything else as an absolute amount.
// Negative discounts count as no discount.
func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {
	if !discount.IsPositive() {
		return decimal.Zero
	}
	if discountType == "P" {
		return subTotal.Mul(discount).DivRound(decimalOneHundred, MoneyPlaces)
	}
	return discount
}

// CalculateTaxAmount applies taxRate (a percentage) to totalAmount.
//
// Tax-exclusive: totalAmount * taxRate / 100
// Tax-inclusive: totalAmount * taxRate / (100 + taxRate), the tax already contained in totalAmount.
func CalculateTaxAmount(totalAmount decimal.Decimal, taxRate decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	if !taxRate.IsPositive() || !totalAmount.IsPositive() {
		return decimal.Zero
	}
	if isTaxInclusive {
		return totalAmount.Mul(taxRate).DivRound(taxRate.Add(decimalOneHundred), MoneyPlaces)
	}
	return totalAmount.Mul(taxRate).DivRound(decimalOneHundred, MoneyPlaces)
}

// MaxZero clamps d to zero from below.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
