package engine

import (
	"context"
	"errors"
	"strconv"

	"github.com/mmdatafocus/books_valuation/models"
	"github.com/shopspring/decimal"
)

// Edit is one user change to a document. apply mutates the copy ApplyEdit hands it
// and may return warnings that only the edit itself can know about.
type Edit interface {
	apply(ctx context.Context, e *Engine, doc *models.Document) ([]models.Warning, error)
}

type SetQuantity struct {
	Line     int
	Quantity decimal.Decimal
}

func (ed SetQuantity) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := checkLine(doc, ed.Line); err != nil {
		return nil, err
	}
	if ed.Quantity.IsNegative() {
		return nil, models.NewValidationError("quantity", "must not be negative")
	}
	doc.LineItems[ed.Line].Quantity = ed.Quantity
	return nil, nil
}

type SetRate struct {
	Line int
	Rate decimal.Decimal
}

func (ed SetRate) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := checkLine(doc, ed.Line); err != nil {
		return nil, err
	}
	if ed.Rate.IsNegative() {
		return nil, models.NewValidationError("rate", "must not be negative")
	}
	doc.LineItems[ed.Line].Rate = ed.Rate
	return nil, nil
}

type SetDiscount struct {
	Line  int
	Value decimal.Decimal
	Type  models.DiscountType
}

func (ed SetDiscount) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := checkLine(doc, ed.Line); err != nil {
		return nil, err
	}
	if ed.Value.IsNegative() {
		return nil, models.NewValidationError("discount_value", "must not be negative")
	}
	discountType, ok := models.ParseDiscountType(string(ed.Type))
	if !ok {
		return nil, models.NewValidationError("discount_type", "unknown discount type %q", ed.Type)
	}
	doc.LineItems[ed.Line].DiscountValue = ed.Value
	doc.LineItems[ed.Line].DiscountType = discountType
	return nil, nil
}

type SetTaxCode struct {
	Line    int
	TaxCode string
}

func (ed SetTaxCode) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := checkLine(doc, ed.Line); err != nil {
		return nil, err
	}
	doc.LineItems[ed.Line].TaxCode = ed.TaxCode
	return nil, nil
}

// SelectItem fills a line from the item catalog. An unknown item leaves the line
// with rate zero and a warning.
type SelectItem struct {
	Line   int
	ItemId int
}

func (ed SelectItem) apply(ctx context.Context, e *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := checkLine(doc, ed.Line); err != nil {
		return nil, err
	}
	if ed.ItemId <= 0 {
		return nil, models.NewValidationError("item_id", "must be positive")
	}
	line := &doc.LineItems[ed.Line]
	line.ItemId = ed.ItemId

	info, err := e.resolveItem(ctx, ed.ItemId)
	if err != nil {
		line.Rate = decimal.Zero
		w := toWarning(ed.Line, asLookupError(err, models.LookupKindItem, ed.ItemId))
		e.logWarning("SelectItem", w)
		return []models.Warning{w}, nil
	}
	line.Name = info.Name
	line.Description = info.Description
	line.Rate = info.Rate
	if info.TaxCode != "" {
		line.TaxCode = info.TaxCode
	}
	return nil, nil
}

// AddLine appends a line. Position is display order only.
type AddLine struct {
	Item models.LineItem
}

func (ed AddLine) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := ValidateLine("", ed.Item); err != nil {
		return nil, err
	}
	doc.LineItems = append(doc.LineItems, ed.Item.Inputs())
	return nil, nil
}

type RemoveLine struct {
	Line int
}

func (ed RemoveLine) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if err := checkLine(doc, ed.Line); err != nil {
		return nil, err
	}
	doc.LineItems = append(doc.LineItems[:ed.Line:ed.Line], doc.LineItems[ed.Line+1:]...)
	return nil, nil
}

type SetShippingCharges struct {
	Amount decimal.Decimal
}

func (ed SetShippingCharges) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	if ed.Amount.IsNegative() {
		return nil, models.NewValidationError("shipping_charges", "must not be negative")
	}
	doc.ShippingCharges = ed.Amount
	return nil, nil
}

// SetAdjustment accepts either sign.
type SetAdjustment struct {
	Amount      decimal.Decimal
	Description string
}

func (ed SetAdjustment) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	doc.Adjustment = ed.Amount
	doc.AdjustmentDescription = ed.Description
	return nil, nil
}

type SetPartyState struct {
	State string
}

func (ed SetPartyState) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	doc.PartyState = ed.State
	return nil, nil
}

// SetParty takes the party state from the customer or supplier record.
// When the party cannot be resolved the state is cleared, which means IGST.
type SetParty struct {
	PartyId int
}

func (ed SetParty) apply(ctx context.Context, e *Engine, doc *models.Document) ([]models.Warning, error) {
	if ed.PartyId <= 0 {
		return nil, models.NewValidationError("party_id", "must be positive")
	}
	if e.parties == nil {
		doc.PartyState = ""
		w := toWarning(-1, &models.LookupError{Kind: models.LookupKindParty, Key: strconv.Itoa(ed.PartyId)})
		return []models.Warning{w}, nil
	}
	state, err := e.parties.ResolvePartyState(ctx, ed.PartyId)
	if err != nil {
		doc.PartyState = ""
		w := toWarning(-1, asLookupError(err, models.LookupKindParty, ed.PartyId))
		e.logWarning("SetParty", w)
		return []models.Warning{w}, nil
	}
	doc.PartyState = state
	return nil, nil
}

type SetSupplyState struct {
	State string
}

func (ed SetSupplyState) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	doc.SupplyState = ed.State
	return nil, nil
}

type SetTaxInclusive struct {
	IsTaxInclusive bool
}

func (ed SetTaxInclusive) apply(_ context.Context, _ *Engine, doc *models.Document) ([]models.Warning, error) {
	doc.IsTaxInclusive = ed.IsTaxInclusive
	return nil, nil
}

func checkLine(doc *models.Document, index int) error {
	if index < 0 || index >= len(doc.LineItems) {
		return models.NewValidationError("line", "no line at index %d", index)
	}
	return nil
}

func (e *Engine) resolveItem(ctx context.Context, itemId int) (ItemInfo, error) {
	if e.items == nil {
		return ItemInfo{}, &models.LookupError{Kind: models.LookupKindItem, Key: strconv.Itoa(itemId)}
	}
	return e.items.ResolveItem(ctx, itemId)
}

func asLookupError(err error, kind string, id int) *models.LookupError {
	var lookupErr *models.LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr
	}
	return &models.LookupError{Kind: kind, Key: strconv.Itoa(id), Err: err}
}
