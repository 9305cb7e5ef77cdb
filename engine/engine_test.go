package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/shopspring/decimal"
)

type fakeTaxes map[string]decimal.Decimal

func (f fakeTaxes) ResolveTaxRate(_ context.Context, code string) (decimal.Decimal, error) {
	rate, ok := f[models.NormalizeTaxCode(code)]
	if !ok {
		return decimal.Zero, &models.LookupError{Kind: models.LookupKindTaxCode, Key: code}
	}
	return rate, nil
}

type fakeItems map[int]ItemInfo

func (f fakeItems) ResolveItem(_ context.Context, itemId int) (ItemInfo, error) {
	info, ok := f[itemId]
	if !ok {
		return ItemInfo{}, errors.New("record not found")
	}
	return info, nil
}

type fakeParties map[int]string

func (f fakeParties) ResolvePartyState(_ context.Context, partyId int) (string, error) {
	state, ok := f[partyId]
	if !ok {
		return "", errors.New("record not found")
	}
	return state, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestEngine(opts ...Option) *Engine {
	taxes := fakeTaxes{"GST18": dec("18"), "GST5": dec("5"), "EXEMPT": decimal.Zero}
	return New(taxes, opts...)
}

func sampleDocument() models.Document {
	return models.Document{
		DocumentType: models.DocumentTypeInvoice,
		PartyState:   "Maharashtra",
		SupplyState:  "Maharashtra",
		LineItems: []models.LineItem{
			{Quantity: dec("2"), Rate: dec("500"), DiscountValue: dec("10"), DiscountType: models.DiscountTypePercent, TaxCode: "GST18"},
			{Quantity: dec("1"), Rate: dec("100"), TaxCode: "gst5"},
		},
		ShippingCharges: dec("50"),
		Adjustment:      dec("-0.5"),
	}
}

func TestComputeLine(t *testing.T) {
	cases := []struct {
		name         string
		qty, rate    string
		discount     string
		discountType models.DiscountType
		wantDiscount string
		wantAmount   string
	}{
		{"percent discount", "2", "500", "10", models.DiscountTypePercent, "100", "900"},
		{"spelled-out percentage", "2", "500", "10", "percentage", "100", "900"},
		{"spelled-out amount", "2", "500", "10", " Amount ", "10", "990"},
		{"absolute discount", "3", "20", "15", models.DiscountTypeAmount, "15", "45"},
		{"no discount", "1.5", "10", "0", models.DiscountTypeAmount, "0", "15"},
		{"discount above gross clamps amount", "1", "50", "80", models.DiscountTypeAmount, "80", "0"},
		{"negative quantity counts as zero", "-2", "50", "0", models.DiscountTypeAmount, "0", "0"},
		{"negative discount counts as zero", "1", "50", "-5", models.DiscountTypeAmount, "0", "50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeLine(dec(tc.qty), dec(tc.rate), dec(tc.discount), tc.discountType)
			if !got.DiscountAmount.Equal(dec(tc.wantDiscount)) || !got.Amount.Equal(dec(tc.wantAmount)) {
				t.Fatalf("got discount=%s amount=%s, want %s %s", got.DiscountAmount, got.Amount, tc.wantDiscount, tc.wantAmount)
			}
			if got.Amount.IsNegative() {
				t.Fatalf("amount is negative: %s", got.Amount)
			}
		})
	}
}

func TestSplitDocumentTax(t *testing.T) {
	cases := []struct {
		name       string
		party      string
		supply     string
		taxTotal   string
		cgst, sgst string
		igst       string
		wantRegime models.TaxRegime
	}{
		{"same state", "Maharashtra", "Maharashtra", "180", "90", "90", "0", models.TaxRegimeIntraState},
		{"different state", "Gujarat", "Maharashtra", "180", "0", "0", "180", models.TaxRegimeInterState},
		{"case and spaces ignored", " maharashtra ", "MAHARASHTRA", "180", "90", "90", "0", models.TaxRegimeIntraState},
		{"missing party state", "", "Maharashtra", "180", "0", "0", "180", models.TaxRegimeInterState},
		{"odd paisa split stays exact", "Goa", "Goa", "0.0003", "0.0002", "0.0001", "0", models.TaxRegimeIntraState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitDocumentTax(dec(tc.taxTotal), tc.party, tc.supply)
			if !got.Cgst.Equal(dec(tc.cgst)) || !got.Sgst.Equal(dec(tc.sgst)) || !got.Igst.Equal(dec(tc.igst)) {
				t.Fatalf("got cgst=%s sgst=%s igst=%s", got.Cgst, got.Sgst, got.Igst)
			}
			if got.Regime != tc.wantRegime {
				t.Fatalf("regime = %s, want %s", got.Regime, tc.wantRegime)
			}
			if !got.Cgst.Add(got.Sgst).Add(got.Igst).Equal(dec(tc.taxTotal)) {
				t.Fatalf("components do not add up to %s", tc.taxTotal)
			}
		})
	}
}

func TestRecomputeDocument(t *testing.T) {
	e := newTestEngine()
	doc, err := e.RecomputeDocument(context.Background(), sampleDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// line 1: 900 @ 18% = 162, line 2: 100 @ 5% = 5
	if !doc.SubTotal.Equal(dec("1000")) {
		t.Fatalf("subTotal = %s", doc.SubTotal)
	}
	if !doc.DiscountTotal.Equal(dec("100")) {
		t.Fatalf("discountTotal = %s", doc.DiscountTotal)
	}
	if !doc.TaxTotal.Equal(dec("167")) {
		t.Fatalf("taxTotal = %s", doc.TaxTotal)
	}
	if !doc.Cgst.Equal(dec("83.5")) || !doc.Sgst.Equal(dec("83.5")) || !doc.Igst.IsZero() {
		t.Fatalf("split = %s/%s/%s", doc.Cgst, doc.Sgst, doc.Igst)
	}
	if !doc.Total.Equal(dec("1216.5")) {
		t.Fatalf("total = %s", doc.Total)
	}
	if len(doc.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", doc.Warnings)
	}
}

func TestRecomputeDocument_Idempotent(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	in := sampleDocument()
	in.LineItems = append(in.LineItems, models.LineItem{Quantity: dec("1"), Rate: dec("10"), TaxCode: "NOPE"})

	once, err := e.RecomputeDocument(ctx, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := e.RecomputeDocument(ctx, once)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := TotalsDiff(once.Totals(), twice.Totals()); len(diff) > 0 {
		t.Fatalf("totals changed on second recompute: %v", diff)
	}
	if len(once.Warnings) != 1 || len(twice.Warnings) != 1 {
		t.Fatalf("warnings not stable: %d then %d", len(once.Warnings), len(twice.Warnings))
	}
	if len(once.LineItems) != len(twice.LineItems) {
		t.Fatalf("line count changed: %d then %d", len(once.LineItems), len(twice.LineItems))
	}
	for i := range once.LineItems {
		a, b := once.LineItems[i], twice.LineItems[i]
		if a.DiscountType != b.DiscountType || a.TaxCode != b.TaxCode {
			t.Fatalf("line %d inputs changed: %+v then %+v", i, a, b)
		}
		if !a.TaxRate.Equal(b.TaxRate) || !a.DiscountAmount.Equal(b.DiscountAmount) ||
			!a.Amount.Equal(b.Amount) || !a.TaxAmount.Equal(b.TaxAmount) {
			t.Fatalf("line %d changed on second recompute: %+v then %+v", i, a, b)
		}
	}
}

func TestRecomputeDocument_UnknownTaxCodeIsWarning(t *testing.T) {
	e := newTestEngine()
	doc := models.Document{
		LineItems: []models.LineItem{
			{Quantity: dec("1"), Rate: dec("100"), TaxCode: "VAT99"},
			{Quantity: dec("1"), Rate: dec("100")},
		},
	}
	out, err := e.RecomputeDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.LineItems[0].TaxRate.IsZero() || !out.LineItems[0].TaxAmount.IsZero() {
		t.Fatalf("unknown tax code should value as zero, got rate %s", out.LineItems[0].TaxRate)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("want exactly one warning, got %+v", out.Warnings)
	}
	w := out.Warnings[0]
	if w.LineIndex != 0 || w.Kind != models.LookupKindTaxCode || w.Key != "VAT99" {
		t.Fatalf("unexpected warning %+v", w)
	}
}

func TestRecomputeDocument_RejectsNegativeInputs(t *testing.T) {
	e := newTestEngine()
	doc := sampleDocument()
	doc.LineItems[1].Quantity = dec("-1")

	out, err := e.RecomputeDocument(context.Background(), doc)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Field != "line_items[1].quantity" {
		t.Fatalf("field = %q", verr.Field)
	}
	if !out.LineItems[1].Quantity.Equal(dec("-1")) {
		t.Fatalf("document should be returned unchanged")
	}
}

func TestRecomputeDocument_TaxInclusive(t *testing.T) {
	e := newTestEngine()
	doc := models.Document{
		IsTaxInclusive:  true,
		PartyState:      "Karnataka",
		SupplyState:     "Kerala",
		LineItems:       []models.LineItem{{Quantity: dec("1"), Rate: dec("1180"), TaxCode: "GST18"}},
		ShippingCharges: dec("20"),
	}
	out, err := e.RecomputeDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.TaxTotal.Equal(dec("180")) || !out.Igst.Equal(dec("180")) {
		t.Fatalf("tax = %s igst = %s", out.TaxTotal, out.Igst)
	}
	if !out.Total.Equal(dec("1200")) {
		t.Fatalf("total = %s, want 1200", out.Total)
	}
}

func TestRecomputeDocument_GrossTaxBase(t *testing.T) {
	e := newTestEngine(WithSettings(config.ValuationSettings{TaxBase: config.TaxBaseGross}))
	doc := models.Document{
		LineItems: []models.LineItem{
			{Quantity: dec("2"), Rate: dec("500"), DiscountValue: dec("10"), DiscountType: models.DiscountTypePercent, TaxCode: "GST18"},
		},
	}
	out, err := e.RecomputeDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.LineItems[0].Amount.Equal(dec("900")) || !out.TaxTotal.Equal(dec("180")) {
		t.Fatalf("amount %s tax %s", out.LineItems[0].Amount, out.TaxTotal)
	}
}

func TestRecomputeDocument_NotifiesSubscribers(t *testing.T) {
	e := newTestEngine()
	var seen []models.Document
	e.Subscribe(func(_ context.Context, doc models.Document) { seen = append(seen, doc) })

	ctx := context.Background()
	if _, err := e.RecomputeDocument(ctx, sampleDocument()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := sampleDocument()
	bad.ShippingCharges = dec("-1")
	if _, err := e.RecomputeDocument(ctx, bad); err == nil {
		t.Fatalf("expected an error")
	}
	if len(seen) != 1 {
		t.Fatalf("subscriber called %d times, want 1", len(seen))
	}
}

func TestApplyEdit_NotifiesOnceWithEditWarnings(t *testing.T) {
	e := newTestEngine(WithItemCatalog(fakeItems{}))
	var seen []models.Document
	e.Subscribe(func(_ context.Context, doc models.Document) { seen = append(seen, doc) })

	out, err := e.ApplyEdit(context.Background(), sampleDocument(), SelectItem{Line: 0, ItemId: 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("subscriber called %d times, want 1", len(seen))
	}
	if len(seen[0].Warnings) != 1 || seen[0].Warnings[0].Kind != models.LookupKindItem {
		t.Fatalf("subscriber saw warnings %+v", seen[0].Warnings)
	}
	if len(out.Warnings) != len(seen[0].Warnings) {
		t.Fatalf("returned %d warnings, subscriber saw %d", len(out.Warnings), len(seen[0].Warnings))
	}
}

func TestRecomputeLine(t *testing.T) {
	e := newTestEngine()
	line, warnings, err := e.RecomputeLine(context.Background(), models.LineItem{
		Quantity: dec("2"), Rate: dec("500"), DiscountValue: dec("10"), DiscountType: "percent", TaxCode: "GST18",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %+v", warnings)
	}
	if line.DiscountType != models.DiscountTypePercent {
		t.Fatalf("discount type not normalized: %q", line.DiscountType)
	}
	if !line.DiscountAmount.Equal(dec("100")) || !line.Amount.Equal(dec("900")) || !line.TaxAmount.Equal(dec("162")) {
		t.Fatalf("got discount %s amount %s tax %s", line.DiscountAmount, line.Amount, line.TaxAmount)
	}

	_, _, err = e.RecomputeLine(context.Background(), models.LineItem{Quantity: dec("1"), DiscountType: "bogus"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "discount_type" {
		t.Fatalf("want discount_type ValidationError, got %v", err)
	}
}
