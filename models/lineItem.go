package models

import (
	"github.com/shopspring/decimal"
)

// LineItem is one row of a transactional document.
// Quantity, Rate, DiscountValue, DiscountType and TaxCode are inputs; the rest is derived.
type LineItem struct {
	ItemId        int             `json:"item_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	DiscountType  DiscountType    `json:"discount_type"`
	TaxCode       string          `json:"tax_code"`

	TaxRate        decimal.Decimal `json:"tax_rate"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Amount         decimal.Decimal `json:"amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
}

// GrossAmount is quantity*rate before any discount.
func (l LineItem) GrossAmount() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

// Inputs returns l with every derived field cleared.
func (l LineItem) Inputs() LineItem {
	l.TaxRate = decimal.Zero
	l.DiscountAmount = decimal.Zero
	l.Amount = decimal.Zero
	l.TaxAmount = decimal.Zero
	return l
}
