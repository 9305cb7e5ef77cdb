package engine

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Subscriber receives every successfully recomputed document.
type Subscriber func(ctx context.Context, doc models.Document)

// Engine recomputes documents on every edit. It holds no document state;
// each call takes a document and returns a new one.
type Engine struct {
	taxes       *TaxEngine
	items       ItemCatalog
	parties     PartyStateResolver
	settings    config.ValuationSettings
	logger      *logrus.Logger
	subscribers []Subscriber
}

type Option func(*Engine)

func WithItemCatalog(items ItemCatalog) Option {
	return func(e *Engine) { e.items = items }
}

func WithPartyStateResolver(parties PartyStateResolver) Option {
	return func(e *Engine) { e.parties = parties }
}

func WithSettings(settings config.ValuationSettings) Option {
	return func(e *Engine) { e.settings = settings }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func New(taxes TaxRateResolver, opts ...Option) *Engine {
	e := &Engine{
		taxes:    NewTaxEngine(taxes),
		settings: config.ValuationSettings{TaxBase: config.TaxBaseDiscounted},
		logger:   config.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers fn to be called after each successful recompute.
func (e *Engine) Subscribe(fn Subscriber) {
	e.subscribers = append(e.subscribers, fn)
}

// RecomputeLine validates and values a single tax-exclusive line.
func (e *Engine) RecomputeLine(ctx context.Context, line models.LineItem) (models.LineItem, []models.Warning, error) {
	if err := ValidateLine("", line); err != nil {
		return line, nil, err
	}
	computed, warning := e.computeLine(ctx, line, false)
	if warning == nil {
		return computed, nil, nil
	}
	w := toWarning(0, warning)
	e.logWarning("RecomputeLine", w)
	return computed, []models.Warning{w}, nil
}

// RecomputeDocument revalues every line from its inputs, then the totals and the tax split.
// Derived fields and warnings of doc are ignored, so recomputing twice gives the same document.
func (e *Engine) RecomputeDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	out, err := e.recompute(ctx, doc)
	if err != nil {
		return doc, err
	}
	e.publish(ctx, out)
	return out, nil
}

// ApplyEdit applies edit to a copy of doc and recomputes it. Subscribers see the
// result once, with the edit's own warnings included.
// On any error the untouched doc is returned with the error.
func (e *Engine) ApplyEdit(ctx context.Context, doc models.Document, edit Edit) (models.Document, error) {
	next := doc.Clone()
	warnings, err := edit.apply(ctx, e, &next)
	if err != nil {
		return doc, err
	}
	out, err := e.recompute(ctx, next)
	if err != nil {
		return doc, err
	}
	out.Warnings = append(out.Warnings, warnings...)
	e.publish(ctx, out)
	return out, nil
}

func (e *Engine) recompute(ctx context.Context, doc models.Document) (models.Document, error) {
	if err := validateDocument(doc); err != nil {
		return doc, err
	}

	out := doc.Clone()
	out.Warnings = nil
	for i, line := range out.LineItems {
		computed, lookupErr := e.computeLine(ctx, line, out.IsTaxInclusive)
		out.LineItems[i] = computed
		if lookupErr != nil {
			w := toWarning(i, lookupErr)
			e.logWarning("RecomputeDocument", w)
			out.Warnings = append(out.Warnings, w)
		}
	}
	return AggregateTotals(out), nil
}

func (e *Engine) computeLine(ctx context.Context, line models.LineItem, isTaxInclusive bool) (models.LineItem, *models.LookupError) {
	out := line.Inputs()
	out.DiscountType = normalizeDiscountType(line.DiscountType)

	rate, lookupErr := e.taxes.ResolveRate(ctx, line.TaxCode)
	amounts := ComputeLine(out.Quantity, out.Rate, out.DiscountValue, out.DiscountType)

	base := amounts.Amount
	if e.settings.TaxBase == config.TaxBaseGross {
		base = out.GrossAmount()
		if base.IsNegative() {
			base = decimal.Zero
		}
	}

	out.TaxRate = rate
	out.DiscountAmount = amounts.DiscountAmount
	out.Amount = amounts.Amount
	out.TaxAmount = LineTax(base, rate, isTaxInclusive)
	return out, lookupErr
}

func validateDocument(doc models.Document) error {
	var errs models.ValidationErrors
	if doc.DocumentType != "" && !doc.DocumentType.IsValid() {
		errs = append(errs, models.NewValidationError("document_type", "unknown document type %q", doc.DocumentType))
	}
	if doc.ShippingCharges.IsNegative() {
		errs = append(errs, models.NewValidationError("shipping_charges", "must not be negative"))
	}
	for i, line := range doc.LineItems {
		err := ValidateLine(fmt.Sprintf("line_items[%d].", i), line)
		switch v := err.(type) {
		case nil:
		case models.ValidationErrors:
			errs = append(errs, v...)
		case *models.ValidationError:
			errs = append(errs, v)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errs
}

func toWarning(lineIndex int, err *models.LookupError) models.Warning {
	return models.Warning{
		LineIndex: lineIndex,
		Kind:      err.Kind,
		Key:       err.Key,
		Message:   err.Error(),
	}
}

func (e *Engine) logWarning(funcName string, w models.Warning) {
	if e.logger == nil {
		return
	}
	config.LogWarning(e.logger, "engine", funcName, w.Kind+":"+w.Key, w)
}

func (e *Engine) publish(ctx context.Context, doc models.Document) {
	for _, fn := range e.subscribers {
		fn(ctx, doc)
	}
}
