package middlewares

import (
	"context"

	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/shopspring/decimal"
)

// Catalog answers the engine's lookups through the request's loaders.
type Catalog struct{}

func (Catalog) ResolveTaxRate(ctx context.Context, code string) (decimal.Decimal, error) {
	info, err := GetTaxInfo(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return info.Rate, nil
}

func (Catalog) ResolveItem(ctx context.Context, itemId int) (engine.ItemInfo, error) {
	product, err := GetProduct(ctx, itemId)
	if err != nil {
		return engine.ItemInfo{}, err
	}
	return engine.ItemInfo{
		Name:        product.Name,
		Description: product.Description,
		Rate:        product.SalesPrice,
		TaxCode:     product.SalesTaxCode,
	}, nil
}

func (Catalog) ResolvePartyState(ctx context.Context, partyId int) (string, error) {
	customer, err := GetCustomer(ctx, partyId)
	if err != nil {
		return "", err
	}
	return customer.PartyState(), nil
}

// NewEngine builds an engine backed by the request's catalog.
func NewEngine(opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{
		engine.WithItemCatalog(Catalog{}),
		engine.WithPartyStateResolver(Catalog{}),
	}, opts...)
	return engine.New(Catalog{}, opts...)
}
