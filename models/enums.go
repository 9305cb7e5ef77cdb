package models

import (
	"strings"
)

type DiscountType string

const (
	DiscountTypePercent DiscountType = "P"
	DiscountTypeAmount  DiscountType = "A"
)

// ParseDiscountType accepts the stored codes and their spelled-out names.
// The empty string is a valid "no discount type" and maps to DiscountTypeAmount.
func ParseDiscountType(raw string) (DiscountType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "p", "percent", "percentage":
		return DiscountTypePercent, true
	case "a", "amount", "absolute", "":
		return DiscountTypeAmount, true
	default:
		return "", false
	}
}

type TaxType string

const (
	TaxTypeIndividual TaxType = "I"
	TaxTypeGroup      TaxType = "G"
)

// TaxRegime tells which GST components a document carries.
type TaxRegime string

const (
	TaxRegimeIntraState TaxRegime = "IntraState"
	TaxRegimeInterState TaxRegime = "InterState"
)

type DocumentType string

const (
	DocumentTypeQuote      DocumentType = "Quote"
	DocumentTypeSalesOrder DocumentType = "SalesOrder"
	DocumentTypeInvoice    DocumentType = "Invoice"
	DocumentTypeBill       DocumentType = "Bill"
	DocumentTypeCreditNote DocumentType = "CreditNote"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeQuote, DocumentTypeSalesOrder, DocumentTypeInvoice, DocumentTypeBill, DocumentTypeCreditNote:
		return true
	}
	return false
}

// AllocationMode tags how an invoice's applied amount was decided.
type AllocationMode string

const (
	AllocationModeAuto   AllocationMode = "Auto"
	AllocationModeManual AllocationMode = "Manual"
)

type SalesInvoiceStatus string

const (
	SalesInvoiceStatusDraft       SalesInvoiceStatus = "Draft"
	SalesInvoiceStatusConfirmed   SalesInvoiceStatus = "Confirmed"
	SalesInvoiceStatusVoid        SalesInvoiceStatus = "Void"
	SalesInvoiceStatusPartialPaid SalesInvoiceStatus = "Partial Paid"
	SalesInvoiceStatusPaid        SalesInvoiceStatus = "Paid"
)

// IsPayable reports whether payments may be applied to an invoice in this status.
func (s SalesInvoiceStatus) IsPayable() bool {
	return s == SalesInvoiceStatusConfirmed || s == SalesInvoiceStatusPartialPaid
}

type PubSubMessageAction string

const (
	PubSubMessageActionCreate PubSubMessageAction = "C"
	PubSubMessageActionUpdate PubSubMessageAction = "U"
)

type AccountReferenceType string

const (
	AccountReferenceTypeInvoice         AccountReferenceType = "IV"
	AccountReferenceTypeCustomerPayment AccountReferenceType = "CP"
)
