package engine

import (
	"sort"
	"time"

	"github.com/mmdatafocus/books_valuation/models"
	"github.com/shopspring/decimal"
)

// PaymentSession is one payment being recorded. Every change reallocates;
// once confirmed the allocation is frozen.
type PaymentSession struct {
	invoices      []models.OutstandingInvoice
	totalReceived decimal.Decimal
	overrides     map[int]decimal.Decimal
	clock         func() time.Time

	allocation models.PaymentAllocation
	err        error
	confirmed  bool
}

type SessionOption func(*PaymentSession)

func WithClock(clock func() time.Time) SessionOption {
	return func(s *PaymentSession) { s.clock = clock }
}

func NewPaymentSession(invoices []models.OutstandingInvoice, opts ...SessionOption) *PaymentSession {
	s := &PaymentSession{
		invoices:  OrderForAllocation(invoices),
		overrides: make(map[int]decimal.Decimal),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reallocate()
	return s
}

// SetTotalReceived reruns the automatic allocation. Manual amounts are kept.
func (s *PaymentSession) SetTotalReceived(total decimal.Decimal) error {
	if s.confirmed {
		return models.ErrAllocationConfirmed
	}
	if total.IsNegative() {
		return models.NewValidationError("total_received", "must not be negative")
	}
	s.totalReceived = total
	s.reallocate()
	return nil
}

// OverrideInvoice pins the amount applied to one invoice, clamped to [0, balance due].
// It returns the amount actually pinned.
func (s *PaymentSession) OverrideInvoice(invoiceId int, amount decimal.Decimal) (decimal.Decimal, error) {
	if s.confirmed {
		return decimal.Zero, models.ErrAllocationConfirmed
	}
	inv, ok := s.invoice(invoiceId)
	if !ok {
		return decimal.Zero, models.NewValidationError("invoice_id", "invoice %d is not outstanding", invoiceId)
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(inv.BalanceDue) {
		amount = inv.BalanceDue
	}
	s.overrides[invoiceId] = amount
	s.reallocate()
	return amount, nil
}

// Deselect excludes an invoice from this payment.
func (s *PaymentSession) Deselect(invoiceId int) error {
	_, err := s.OverrideInvoice(invoiceId, decimal.Zero)
	return err
}

// ClearOverride hands an invoice back to the automatic allocation.
func (s *PaymentSession) ClearOverride(invoiceId int) error {
	if s.confirmed {
		return models.ErrAllocationConfirmed
	}
	delete(s.overrides, invoiceId)
	s.reallocate()
	return nil
}

// Allocation is the current allocation, or the error blocking it.
func (s *PaymentSession) Allocation() (models.PaymentAllocation, error) {
	return s.allocation, s.err
}

// Confirm freezes the allocation. It fails while the allocation is invalid.
func (s *PaymentSession) Confirm() (models.PaymentAllocation, error) {
	if s.confirmed {
		return s.allocation, models.ErrAllocationConfirmed
	}
	if s.err != nil {
		return models.PaymentAllocation{}, s.err
	}
	s.confirmed = true
	return s.allocation, nil
}

func (s *PaymentSession) IsConfirmed() bool {
	return s.confirmed
}

func (s *PaymentSession) Invoices() []models.OutstandingInvoice {
	return append([]models.OutstandingInvoice(nil), s.invoices...)
}

// Overrides lists the manual amounts by invoice id.
func (s *PaymentSession) Overrides() []models.InvoiceOverride {
	ids := make([]int, 0, len(s.overrides))
	for id := range s.overrides {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]models.InvoiceOverride, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.InvoiceOverride{InvoiceId: id, Amount: s.overrides[id]})
	}
	return out
}

func (s *PaymentSession) invoice(invoiceId int) (models.OutstandingInvoice, bool) {
	for _, inv := range s.invoices {
		if inv.InvoiceId == invoiceId {
			return inv, true
		}
	}
	return models.OutstandingInvoice{}, false
}

func (s *PaymentSession) reallocate() {
	allocation, err := AllocatePaymentAt(s.clock(), s.totalReceived, s.invoices, s.Overrides())
	if err != nil {
		s.allocation = models.PaymentAllocation{TotalReceived: s.totalReceived}
		s.err = err
		return
	}
	s.allocation = allocation
	s.err = nil
}
