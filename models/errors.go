package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrAllocationConfirmed is returned when a confirmed payment allocation is edited.
var ErrAllocationConfirmed = errors.New("payment allocation is already confirmed")

// ValidationError rejects an input before it is applied. The caller must fix the input and retry.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field string, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors groups every field failure found in one pass.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// As lets errors.As match a *ValidationError against the first failure.
func (es ValidationErrors) As(target any) bool {
	t, ok := target.(**ValidationError)
	if !ok || len(es) == 0 {
		return false
	}
	*t = es[0]
	return true
}

// FromFieldTags converts validator field -> tag output into ValidationErrors, sorted by field.
func FromFieldTags(fields map[string]string) ValidationErrors {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	errs := make(ValidationErrors, 0, len(names))
	for _, name := range names {
		errs = append(errs, &ValidationError{Field: name, Message: "failed on " + fields[name]})
	}
	return errs
}

// LookupError records an item or tax code the catalog could not resolve.
// It never fails a computation; it is carried as a Warning next to a zero default.
type LookupError struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
	Err  error  `json:"-"`
}

const (
	LookupKindTaxCode = "tax_code"
	LookupKindItem    = "item"
	LookupKindParty   = "party"
)

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q lookup failed: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Key)
}

func (e *LookupError) Unwrap() error { return e.Err }

// AllocationError blocks confirmation of a payment. Overage is the exact amount to remove.
type AllocationError struct {
	InvoiceId int             `json:"invoice_id,omitempty"`
	Overage   decimal.Decimal `json:"overage"`
	Message   string          `json:"message"`
}

func (e *AllocationError) Error() string {
	if e.InvoiceId > 0 {
		return fmt.Sprintf("invoice %d: %s (over by %s)", e.InvoiceId, e.Message, e.Overage.String())
	}
	return fmt.Sprintf("%s (over by %s)", e.Message, e.Overage.String())
}

// StaleBalance is one invoice whose balance moved since the allocation was computed.
type StaleBalance struct {
	InvoiceId int             `json:"invoice_id"`
	Observed  decimal.Decimal `json:"observed"`
	Current   decimal.Decimal `json:"current"`
}

// ConsistencyError means the balances an allocation was built on are stale.
// The caller must refetch balances and re-allocate before confirming.
type ConsistencyError struct {
	Stale   []StaleBalance `json:"stale"`
	Message string         `json:"message"`
}

func (e *ConsistencyError) Error() string {
	if len(e.Stale) == 0 {
		return e.Message
	}
	ids := make([]string, 0, len(e.Stale))
	for _, s := range e.Stale {
		ids = append(ids, fmt.Sprint(s.InvoiceId))
	}
	return fmt.Sprintf("%s (invoices %s)", e.Message, strings.Join(ids, ", "))
}
