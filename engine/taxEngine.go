package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
)

// TaxRateResolver maps a tax code to a percentage rate.
type TaxRateResolver interface {
	ResolveTaxRate(ctx context.Context, code string) (decimal.Decimal, error)
}

// ItemInfo is what selecting an item fills into a line.
type ItemInfo struct {
	Name        string
	Description string
	Rate        decimal.Decimal
	TaxCode     string
}

type ItemCatalog interface {
	ResolveItem(ctx context.Context, itemId int) (ItemInfo, error)
}

// PartyStateResolver returns the registered state of a customer or supplier.
type PartyStateResolver interface {
	ResolvePartyState(ctx context.Context, partyId int) (string, error)
}

// BalanceSource reads the balance persistence currently holds for each invoice.
type BalanceSource interface {
	CurrentBalances(ctx context.Context, invoiceIds []int) (map[int]decimal.Decimal, error)
}

type TaxEngine struct {
	resolver TaxRateResolver
}

func NewTaxEngine(resolver TaxRateResolver) *TaxEngine {
	return &TaxEngine{resolver: resolver}
}

// ResolveRate returns the rate for code. An empty code is rate zero.
// Unknown codes and failed lookups also give zero, along with the LookupError to report.
func (t *TaxEngine) ResolveRate(ctx context.Context, code string) (decimal.Decimal, *models.LookupError) {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero, nil
	}
	if t == nil || t.resolver == nil {
		return decimal.Zero, &models.LookupError{Kind: models.LookupKindTaxCode, Key: code}
	}
	rate, err := t.resolver.ResolveTaxRate(ctx, code)
	if err != nil {
		var lookupErr *models.LookupError
		if errors.As(err, &lookupErr) {
			return decimal.Zero, lookupErr
		}
		return decimal.Zero, &models.LookupError{Kind: models.LookupKindTaxCode, Key: code, Err: err}
	}
	if rate.IsNegative() {
		return decimal.Zero, &models.LookupError{Kind: models.LookupKindTaxCode, Key: code, Err: errors.New("negative rate")}
	}
	return rate, nil
}

// LineTax is the tax on one line amount.
func LineTax(amount decimal.Decimal, rate decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	return utils.CalculateTaxAmount(amount, rate, isTaxInclusive)
}

// TaxSplit is a document's tax total broken into GST components.
type TaxSplit struct {
	Cgst   decimal.Decimal
	Sgst   decimal.Decimal
	Igst   decimal.Decimal
	Regime models.TaxRegime
}

// SplitDocumentTax decides between CGST+SGST and IGST.
// The same state on both sides is an intra-state supply; a missing state is treated as inter-state.
func SplitDocumentTax(taxTotal decimal.Decimal, partyState string, supplyState string) TaxSplit {
	if strings.TrimSpace(partyState) != "" && strings.TrimSpace(supplyState) != "" &&
		models.SameState(partyState, supplyState) {
		cgst := taxTotal.DivRound(decimal.NewFromInt(2), utils.MoneyPlaces)
		return TaxSplit{
			Cgst:   cgst,
			Sgst:   taxTotal.Sub(cgst),
			Igst:   decimal.Zero,
			Regime: models.TaxRegimeIntraState,
		}
	}
	return TaxSplit{
		Cgst:   decimal.Zero,
		Sgst:   decimal.Zero,
		Igst:   taxTotal,
		Regime: models.TaxRegimeInterState,
	}
}
