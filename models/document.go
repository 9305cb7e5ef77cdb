package models

import (
	"github.com/shopspring/decimal"
)

// Warning is a non-blocking problem found while valuing a document.
type Warning struct {
	LineIndex int    `json:"line_index"`
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	Message   string `json:"message"`
}

// Document is the valuation view shared by quotes, sales orders, invoices, bills and credit notes.
type Document struct {
	DocumentType          DocumentType    `json:"document_type"`
	LineItems             []LineItem      `json:"line_items"`
	ShippingCharges       decimal.Decimal `json:"shipping_charges"`
	Adjustment            decimal.Decimal `json:"adjustment"`
	AdjustmentDescription string          `json:"adjustment_description"`
	PartyState            string          `json:"party_state"`
	SupplyState           string          `json:"supply_state"`
	IsTaxInclusive        bool            `json:"is_tax_inclusive"`

	SubTotal      decimal.Decimal `json:"sub_total"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Cgst          decimal.Decimal `json:"cgst"`
	Sgst          decimal.Decimal `json:"sgst"`
	Igst          decimal.Decimal `json:"igst"`
	TaxRegime     TaxRegime       `json:"tax_regime"`
	Total         decimal.Decimal `json:"total"`
	Warnings      []Warning       `json:"warnings"`
}

// Clone returns a copy that shares no slices with d.
func (d Document) Clone() Document {
	out := d
	out.LineItems = append([]LineItem(nil), d.LineItems...)
	out.Warnings = append([]Warning(nil), d.Warnings...)
	return out
}

// Totals is the derived part of a Document, used to compare a submitted document
// against its recomputation.
type Totals struct {
	SubTotal decimal.Decimal `json:"sub_total"`
	TaxTotal decimal.Decimal `json:"tax_total"`
	Cgst     decimal.Decimal `json:"cgst"`
	Sgst     decimal.Decimal `json:"sgst"`
	Igst     decimal.Decimal `json:"igst"`
	Total    decimal.Decimal `json:"total"`
}

func (d Document) Totals() Totals {
	return Totals{
		SubTotal: d.SubTotal,
		TaxTotal: d.TaxTotal,
		Cgst:     d.Cgst,
		Sgst:     d.Sgst,
		Igst:     d.Igst,
		Total:    d.Total,
	}
}
