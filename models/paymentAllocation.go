package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutstandingInvoice is the part of an invoice the allocator needs.
// BalanceDue is owned by persistence and only read here.
type OutstandingInvoice struct {
	InvoiceId     int             `json:"invoice_id" validate:"gt=0"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	BalanceDue    decimal.Decimal `json:"balance_due" validate:"gte=0"`
}

// InvoiceOverride pins an invoice's applied amount. Amount zero deselects the invoice.
type InvoiceOverride struct {
	InvoiceId int             `json:"invoice_id" validate:"gt=0"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceAllocation is one applied row of a payment.
type InvoiceAllocation struct {
	InvoiceId     int             `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	AppliedDate   time.Time       `json:"applied_date"`
	Mode          AllocationMode  `json:"mode"`
}

// PaymentAllocation distributes TotalReceived across invoices.
// Sum of AmountApplied plus ExcessAmount always equals TotalReceived.
type PaymentAllocation struct {
	TotalReceived decimal.Decimal     `json:"total_received"`
	Allocations   []InvoiceAllocation `json:"allocations"`
	ExcessAmount  decimal.Decimal     `json:"excess_amount"`
}

func (a PaymentAllocation) TotalApplied() decimal.Decimal {
	total := decimal.Zero
	for _, row := range a.Allocations {
		total = total.Add(row.AmountApplied)
	}
	return total
}

// IsBalanced checks the conservation invariant.
func (a PaymentAllocation) IsBalanced() bool {
	return a.TotalApplied().Add(a.ExcessAmount).Equal(a.TotalReceived)
}

// AppliedTo returns the amount applied to invoiceId, zero if it is not allocated.
func (a PaymentAllocation) AppliedTo(invoiceId int) decimal.Decimal {
	for _, row := range a.Allocations {
		if row.InvoiceId == invoiceId {
			return row.AmountApplied
		}
	}
	return decimal.Zero
}
