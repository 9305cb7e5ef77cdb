package engine

import (
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/shopspring/decimal"
)

// AggregateTotals folds already computed lines into the document totals and the GST split.
// Line fields are read, never changed.
func AggregateTotals(doc models.Document) models.Document {
	subTotal := decimal.Zero
	discountTotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, line := range doc.LineItems {
		subTotal = subTotal.Add(line.Amount)
		discountTotal = discountTotal.Add(line.DiscountAmount)
		taxTotal = taxTotal.Add(line.TaxAmount)
	}

	split := SplitDocumentTax(taxTotal, doc.PartyState, doc.SupplyState)
	doc.SubTotal = subTotal
	doc.DiscountTotal = discountTotal
	doc.TaxTotal = taxTotal
	doc.Cgst = split.Cgst
	doc.Sgst = split.Sgst
	doc.Igst = split.Igst
	doc.TaxRegime = split.Regime

	// inclusive line amounts already carry their tax
	total := subTotal.Add(doc.ShippingCharges).Add(doc.Adjustment)
	if !doc.IsTaxInclusive {
		total = total.Add(taxTotal)
	}
	doc.Total = total
	return doc
}

// TotalsDiff lists the totals that differ between two documents, keyed by json name.
func TotalsDiff(stored models.Totals, computed models.Totals) map[string][2]decimal.Decimal {
	diff := make(map[string][2]decimal.Decimal)
	check := func(name string, a, b decimal.Decimal) {
		if !a.Equal(b) {
			diff[name] = [2]decimal.Decimal{a, b}
		}
	}
	check("sub_total", stored.SubTotal, computed.SubTotal)
	check("tax_total", stored.TaxTotal, computed.TaxTotal)
	check("cgst", stored.Cgst, computed.Cgst)
	check("sgst", stored.Sgst, computed.Sgst)
	check("igst", stored.Igst, computed.Igst)
	check("total", stored.Total, computed.Total)
	return diff
}
