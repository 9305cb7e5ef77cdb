package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/books_valuation/models"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func invoice(id int, month time.Month, balance string) models.OutstandingInvoice {
	return models.OutstandingInvoice{
		InvoiceId:     id,
		InvoiceNumber: "INV-" + time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC).Format("0102"),
		IssueDate:     time.Date(2024, month, 10, 0, 0, 0, 0, time.UTC),
		BalanceDue:    dec(balance),
	}
}

func TestAllocatePayment_OldestFirst(t *testing.T) {
	invoices := []models.OutstandingInvoice{invoice(2, time.February, "200"), invoice(1, time.January, "100")}

	got, err := AllocatePaymentAt(testNow, dec("150"), invoices, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Allocations) != 2 {
		t.Fatalf("want 2 rows, got %+v", got.Allocations)
	}
	if got.Allocations[0].InvoiceId != 1 || !got.Allocations[0].AmountApplied.Equal(dec("100")) {
		t.Fatalf("first row %+v", got.Allocations[0])
	}
	if got.Allocations[1].InvoiceId != 2 || !got.Allocations[1].AmountApplied.Equal(dec("50")) {
		t.Fatalf("second row %+v", got.Allocations[1])
	}
	if !got.ExcessAmount.IsZero() {
		t.Fatalf("excess = %s", got.ExcessAmount)
	}
	wantDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, row := range got.Allocations {
		if !row.AppliedDate.Equal(wantDate) || row.Mode != models.AllocationModeAuto {
			t.Fatalf("row %+v", row)
		}
	}
}

func TestAllocatePayment_Excess(t *testing.T) {
	invoices := []models.OutstandingInvoice{invoice(1, time.January, "60"), invoice(2, time.February, "40")}

	got, err := AllocatePaymentAt(testNow, dec("500"), invoices, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TotalApplied().Equal(dec("100")) || !got.ExcessAmount.Equal(dec("400")) {
		t.Fatalf("applied %s excess %s", got.TotalApplied(), got.ExcessAmount)
	}
}

func TestAllocatePayment_OverrideAboveBalance(t *testing.T) {
	invoices := []models.OutstandingInvoice{invoice(1, time.January, "200")}

	got, err := AllocatePaymentAt(testNow, dec("500"), invoices, []models.InvoiceOverride{{InvoiceId: 1, Amount: dec("300")}})
	var allocErr *models.AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("want AllocationError, got %v", err)
	}
	if allocErr.InvoiceId != 1 || !allocErr.Overage.Equal(dec("100")) {
		t.Fatalf("error %+v", allocErr)
	}
	if len(got.Allocations) != 0 {
		t.Fatalf("nothing should be allocated, got %+v", got.Allocations)
	}
}

func TestAllocatePayment_OverridesExceedTotal(t *testing.T) {
	invoices := []models.OutstandingInvoice{invoice(1, time.January, "200"), invoice(2, time.February, "200")}
	overrides := []models.InvoiceOverride{{InvoiceId: 1, Amount: dec("150")}, {InvoiceId: 2, Amount: dec("120")}}

	_, err := AllocatePaymentAt(testNow, dec("250"), invoices, overrides)
	var allocErr *models.AllocationError
	if !errors.As(err, &allocErr) {
		t.Fatalf("want AllocationError, got %v", err)
	}
	if !allocErr.Overage.Equal(dec("20")) {
		t.Fatalf("overage = %s, want 20", allocErr.Overage)
	}
}

func TestAllocatePayment_ManualThenAuto(t *testing.T) {
	invoices := []models.OutstandingInvoice{
		invoice(1, time.January, "100"),
		invoice(2, time.February, "200"),
		invoice(3, time.March, "300"),
	}
	// skip January, pin March, let February take the rest
	overrides := []models.InvoiceOverride{{InvoiceId: 1, Amount: decimal.Zero}, {InvoiceId: 3, Amount: dec("50")}}

	got, err := AllocatePaymentAt(testNow, dec("400"), invoices, overrides)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.AppliedTo(1).IsZero() {
		t.Fatalf("deselected invoice got %s", got.AppliedTo(1))
	}
	if !got.AppliedTo(2).Equal(dec("200")) || !got.AppliedTo(3).Equal(dec("50")) {
		t.Fatalf("allocations %+v", got.Allocations)
	}
	if !got.ExcessAmount.Equal(dec("150")) {
		t.Fatalf("excess = %s", got.ExcessAmount)
	}
	for _, row := range got.Allocations {
		wantMode := models.AllocationModeAuto
		if row.InvoiceId == 3 {
			wantMode = models.AllocationModeManual
		}
		if row.Mode != wantMode {
			t.Fatalf("invoice %d mode %s", row.InvoiceId, row.Mode)
		}
	}
}

func TestAllocatePayment_TiesAndFiltering(t *testing.T) {
	same := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	invoices := []models.OutstandingInvoice{
		{InvoiceId: 9, IssueDate: same, BalanceDue: dec("10")},
		{InvoiceId: 4, IssueDate: same, BalanceDue: dec("10")},
		{InvoiceId: 5, IssueDate: same, BalanceDue: decimal.Zero},
	}
	got, err := AllocatePaymentAt(testNow, dec("15"), invoices, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Allocations) != 2 || got.Allocations[0].InvoiceId != 4 || got.Allocations[1].InvoiceId != 9 {
		t.Fatalf("allocations %+v", got.Allocations)
	}
	if !got.AppliedTo(9).Equal(dec("5")) {
		t.Fatalf("invoice 9 got %s", got.AppliedTo(9))
	}
}

func TestAllocatePayment_Conservation(t *testing.T) {
	invoices := []models.OutstandingInvoice{
		invoice(1, time.January, "33.3333"),
		invoice(2, time.February, "0.0001"),
		invoice(3, time.March, "1000"),
	}
	for _, total := range []string{"0", "0.00005", "33.3334", "500", "1033.3334", "5000"} {
		got, err := AllocatePaymentAt(testNow, dec(total), invoices, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", total, err)
		}
		if !got.IsBalanced() {
			t.Fatalf("%s: applied %s + excess %s != total", total, got.TotalApplied(), got.ExcessAmount)
		}
		if got.ExcessAmount.IsNegative() {
			t.Fatalf("%s: negative excess", total)
		}
		for _, row := range got.Allocations {
			for _, inv := range invoices {
				if inv.InvoiceId == row.InvoiceId && row.AmountApplied.GreaterThan(inv.BalanceDue) {
					t.Fatalf("%s: invoice %d over-applied", total, row.InvoiceId)
				}
			}
		}
	}
}

func TestAllocatePayment_RejectsNegatives(t *testing.T) {
	invoices := []models.OutstandingInvoice{invoice(1, time.January, "100")}
	var verr *models.ValidationError

	if _, err := AllocatePaymentAt(testNow, dec("-1"), invoices, nil); !errors.As(err, &verr) {
		t.Fatalf("negative total: got %v", err)
	}
	if _, err := AllocatePaymentAt(testNow, dec("10"), invoices, []models.InvoiceOverride{{InvoiceId: 1, Amount: dec("-1")}}); !errors.As(err, &verr) {
		t.Fatalf("negative override: got %v", err)
	}
}

func TestAllocatePayment_RejectsDuplicateInvoices(t *testing.T) {
	invoices := []models.OutstandingInvoice{
		invoice(1, time.January, "100"),
		invoice(1, time.January, "100"),
	}
	overrides := []models.InvoiceOverride{{InvoiceId: 1, Amount: dec("50")}}

	_, err := AllocatePaymentAt(testNow, dec("50"), invoices, overrides)
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "invoices" {
		t.Fatalf("want ValidationError on invoices, got %v", err)
	}

	// settled duplicates are rejected too
	invoices = []models.OutstandingInvoice{invoice(2, time.February, "0"), invoice(2, time.February, "0")}
	if _, err := AllocatePaymentAt(testNow, dec("10"), invoices, nil); !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

type fakeBalances map[int]decimal.Decimal

func (f fakeBalances) CurrentBalances(_ context.Context, ids []int) (map[int]decimal.Decimal, error) {
	out := make(map[int]decimal.Decimal, len(ids))
	for _, id := range ids {
		if b, ok := f[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func TestVerifyBalances(t *testing.T) {
	observed := []models.OutstandingInvoice{invoice(1, time.January, "100"), invoice(2, time.February, "200")}
	ctx := context.Background()

	if err := VerifyBalances(ctx, fakeBalances{1: dec("100.00"), 2: dec("200")}, observed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := VerifyBalances(ctx, fakeBalances{1: dec("100"), 2: dec("120")}, observed)
	var consErr *models.ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("want ConsistencyError, got %v", err)
	}
	if len(consErr.Stale) != 1 || consErr.Stale[0].InvoiceId != 2 || !consErr.Stale[0].Current.Equal(dec("120")) {
		t.Fatalf("stale %+v", consErr.Stale)
	}
}
