package engine

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
)

// AllocatePayment distributes totalReceived over invoices as of today.
func AllocatePayment(totalReceived decimal.Decimal, invoices []models.OutstandingInvoice, overrides []models.InvoiceOverride) (models.PaymentAllocation, error) {
	return AllocatePaymentAt(time.Now(), totalReceived, invoices, overrides)
}

// AllocatePaymentAt distributes totalReceived over invoices, oldest first.
//
// Overridden invoices take exactly their override; the rest of the money fills the
// remaining invoices in issue date order, ties broken by invoice id. Whatever is left
// is excess. An override above an invoice's balance, or overrides adding up to more
// than totalReceived, is an AllocationError and nothing is allocated. An invoice listed
// twice is a ValidationError.
func AllocatePaymentAt(now time.Time, totalReceived decimal.Decimal, invoices []models.OutstandingInvoice, overrides []models.InvoiceOverride) (models.PaymentAllocation, error) {
	if totalReceived.IsNegative() {
		return models.PaymentAllocation{}, models.NewValidationError("total_received", "must not be negative")
	}

	seen := make(map[int]struct{}, len(invoices))
	for _, inv := range invoices {
		if _, dup := seen[inv.InvoiceId]; dup {
			return models.PaymentAllocation{}, models.NewValidationError("invoices", "invoice %d listed twice", inv.InvoiceId)
		}
		seen[inv.InvoiceId] = struct{}{}
	}

	eligible := OrderForAllocation(invoices)
	byId := make(map[int]models.OutstandingInvoice, len(eligible))
	for _, inv := range eligible {
		byId[inv.InvoiceId] = inv
	}

	manual := make(map[int]decimal.Decimal, len(overrides))
	overrideSum := decimal.Zero
	for _, o := range overrides {
		if _, dup := manual[o.InvoiceId]; dup {
			return models.PaymentAllocation{}, models.NewValidationError("overrides", "invoice %d overridden twice", o.InvoiceId)
		}
		if o.Amount.IsNegative() {
			return models.PaymentAllocation{}, models.NewValidationError("overrides", "amount for invoice %d must not be negative", o.InvoiceId)
		}
		inv, ok := byId[o.InvoiceId]
		if !ok {
			if o.Amount.IsPositive() {
				return models.PaymentAllocation{}, &models.AllocationError{
					InvoiceId: o.InvoiceId,
					Overage:   o.Amount,
					Message:   "invoice has no outstanding balance",
				}
			}
			continue
		}
		if o.Amount.GreaterThan(inv.BalanceDue) {
			return models.PaymentAllocation{}, &models.AllocationError{
				InvoiceId: o.InvoiceId,
				Overage:   o.Amount.Sub(inv.BalanceDue),
				Message:   "amount is more than the balance due",
			}
		}
		manual[o.InvoiceId] = o.Amount
		overrideSum = overrideSum.Add(o.Amount)
	}
	if overrideSum.GreaterThan(totalReceived) {
		return models.PaymentAllocation{}, &models.AllocationError{
			Overage: overrideSum.Sub(totalReceived),
			Message: "manual amounts exceed the amount received",
		}
	}

	appliedDate := utils.DateOnly(now)
	remaining := totalReceived.Sub(overrideSum)
	result := models.PaymentAllocation{
		TotalReceived: totalReceived,
		Allocations:   make([]models.InvoiceAllocation, 0, len(eligible)),
	}
	for _, inv := range eligible {
		row := models.InvoiceAllocation{
			InvoiceId:     inv.InvoiceId,
			InvoiceNumber: inv.InvoiceNumber,
			AppliedDate:   appliedDate,
		}
		if amount, ok := manual[inv.InvoiceId]; ok {
			row.AmountApplied = amount
			row.Mode = models.AllocationModeManual
		} else {
			if !remaining.IsPositive() {
				continue
			}
			row.AmountApplied = decimal.Min(remaining, inv.BalanceDue)
			row.Mode = models.AllocationModeAuto
			remaining = remaining.Sub(row.AmountApplied)
		}
		// deselected
		if !row.AmountApplied.IsPositive() {
			continue
		}
		result.Allocations = append(result.Allocations, row)
	}
	result.ExcessAmount = remaining
	return result, nil
}

// OrderForAllocation keeps invoices with a positive balance, oldest issue date first.
func OrderForAllocation(invoices []models.OutstandingInvoice) []models.OutstandingInvoice {
	eligible := make([]models.OutstandingInvoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.BalanceDue.IsPositive() {
			eligible = append(eligible, inv)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].IssueDate.Equal(eligible[j].IssueDate) {
			return eligible[i].IssueDate.Before(eligible[j].IssueDate)
		}
		return eligible[i].InvoiceId < eligible[j].InvoiceId
	})
	return eligible
}

// VerifyBalances compares the balances an allocation was built on with what persistence holds now.
// Any difference, or an invoice that no longer exists, is a ConsistencyError.
func VerifyBalances(ctx context.Context, source BalanceSource, observed []models.OutstandingInvoice) error {
	ids := make([]int, 0, len(observed))
	for _, inv := range observed {
		ids = append(ids, inv.InvoiceId)
	}
	current, err := source.CurrentBalances(ctx, ids)
	if err != nil {
		return err
	}
	var stale []models.StaleBalance
	for _, inv := range observed {
		balance, ok := current[inv.InvoiceId]
		if !ok || !balance.Equal(inv.BalanceDue) {
			stale = append(stale, models.StaleBalance{
				InvoiceId: inv.InvoiceId,
				Observed:  inv.BalanceDue,
				Current:   balance,
			})
		}
	}
	if len(stale) > 0 {
		return &models.ConsistencyError{Stale: stale, Message: "invoice balances changed since the payment was allocated"}
	}
	return nil
}
