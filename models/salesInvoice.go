package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SalesInvoice struct {
	ID                         int                  `gorm:"primary_key" json:"id"`
	BusinessId                 string               `gorm:"index;not null" json:"business_id"`
	CustomerId                 int                  `gorm:"index;not null" json:"customer_id"`
	InvoiceNumber              string               `gorm:"size:255;not null" json:"invoice_number"`
	ReferenceNumber            string               `gorm:"size:255" json:"reference_number"`
	InvoiceDate                time.Time            `gorm:"not null" json:"invoice_date"`
	PartyState                 string               `gorm:"size:50" json:"party_state"`
	SupplyState                string               `gorm:"size:50" json:"supply_state"`
	ShippingCharges            decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"shipping_charges"`
	AdjustmentAmount           decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"adjustment_amount"`
	AdjustmentDescription      string               `gorm:"size:255" json:"adjustment_description"`
	IsTaxInclusive             *bool                `gorm:"not null;default:false" json:"is_tax_inclusive"`
	CurrentStatus              SalesInvoiceStatus   `gorm:"size:20;not null" json:"current_status"`
	Details                    []SalesInvoiceDetail `gorm:"foreignKey:SalesInvoiceId" json:"details"`
	InvoiceSubtotal            decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_subtotal"`
	InvoiceTotalDiscountAmount decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_total_discount_amount"`
	InvoiceTotalTaxAmount      decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_total_tax_amount"`
	InvoiceCgstAmount          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_cgst_amount"`
	InvoiceSgstAmount          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_sgst_amount"`
	InvoiceIgstAmount          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_igst_amount"`
	InvoiceTotalAmount         decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_total_amount"`
	InvoiceTotalPaidAmount     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"invoice_total_paid_amount"`
	RemainingBalance           decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"remaining_balance"`
	Version                    int                  `gorm:"not null;default:1" json:"version"`
	CreatedAt                  time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                  time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesInvoiceDetail struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	SalesInvoiceId       int             `gorm:"index;not null" json:"sales_invoice_id"`
	ProductId            int             `gorm:"index" json:"product_id"`
	Name                 string          `gorm:"size:100" json:"name"`
	Description          string          `gorm:"size:255" json:"description"`
	DetailQty            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_qty"`
	DetailUnitRate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_unit_rate"`
	DetailTaxCode        string          `gorm:"size:20" json:"detail_tax_code"`
	DetailTaxRate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_tax_rate"`
	DetailDiscount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_discount"`
	DetailDiscountType   DiscountType    `gorm:"size:1;default:'A'" json:"detail_discount_type"`
	DetailDiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_discount_amount"`
	DetailTaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_tax_amount"`
	DetailTotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"detail_total_amount"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d SalesInvoiceDetail) ToLineItem() LineItem {
	return LineItem{
		ItemId:         d.ProductId,
		Name:           d.Name,
		Description:    d.Description,
		Quantity:       d.DetailQty,
		Rate:           d.DetailUnitRate,
		DiscountValue:  d.DetailDiscount,
		DiscountType:   d.DetailDiscountType,
		TaxCode:        d.DetailTaxCode,
		TaxRate:        d.DetailTaxRate,
		DiscountAmount: d.DetailDiscountAmount,
		Amount:         d.DetailTotalAmount,
		TaxAmount:      d.DetailTaxAmount,
	}
}

func NewSalesInvoiceDetail(item LineItem) SalesInvoiceDetail {
	return SalesInvoiceDetail{
		ProductId:            item.ItemId,
		Name:                 item.Name,
		Description:          item.Description,
		DetailQty:            item.Quantity,
		DetailUnitRate:       item.Rate,
		DetailTaxCode:        item.TaxCode,
		DetailTaxRate:        item.TaxRate,
		DetailDiscount:       item.DiscountValue,
		DetailDiscountType:   item.DiscountType,
		DetailDiscountAmount: item.DiscountAmount,
		DetailTaxAmount:      item.TaxAmount,
		DetailTotalAmount:    item.Amount,
	}
}

// ToDocument returns the stored invoice as a valuation document, derived fields included.
func (si SalesInvoice) ToDocument() Document {
	doc := Document{
		DocumentType:          DocumentTypeInvoice,
		ShippingCharges:       si.ShippingCharges,
		Adjustment:            si.AdjustmentAmount,
		AdjustmentDescription: si.AdjustmentDescription,
		PartyState:            si.PartyState,
		SupplyState:           si.SupplyState,
		IsTaxInclusive:        utils.DereferencePtr(si.IsTaxInclusive),
		SubTotal:              si.InvoiceSubtotal,
		DiscountTotal:         si.InvoiceTotalDiscountAmount,
		TaxTotal:              si.InvoiceTotalTaxAmount,
		Cgst:                  si.InvoiceCgstAmount,
		Sgst:                  si.InvoiceSgstAmount,
		Igst:                  si.InvoiceIgstAmount,
		Total:                 si.InvoiceTotalAmount,
		TaxRegime:             TaxRegimeInterState,
	}
	if !si.InvoiceCgstAmount.IsZero() || !si.InvoiceSgstAmount.IsZero() {
		doc.TaxRegime = TaxRegimeIntraState
	}
	doc.LineItems = make([]LineItem, 0, len(si.Details))
	for _, d := range si.Details {
		doc.LineItems = append(doc.LineItems, d.ToLineItem())
	}
	return doc
}

// ApplyDocument copies a recomputed document onto the invoice and replaces its details.
// The remaining balance follows the new total, less what has already been paid.
func (si *SalesInvoice) ApplyDocument(doc Document) {
	isTaxInclusive := doc.IsTaxInclusive
	si.IsTaxInclusive = &isTaxInclusive
	si.PartyState = doc.PartyState
	si.SupplyState = doc.SupplyState
	si.ShippingCharges = doc.ShippingCharges
	si.AdjustmentAmount = doc.Adjustment
	si.AdjustmentDescription = doc.AdjustmentDescription
	si.InvoiceSubtotal = doc.SubTotal
	si.InvoiceTotalDiscountAmount = doc.DiscountTotal
	si.InvoiceTotalTaxAmount = doc.TaxTotal
	si.InvoiceCgstAmount = doc.Cgst
	si.InvoiceSgstAmount = doc.Sgst
	si.InvoiceIgstAmount = doc.Igst
	si.InvoiceTotalAmount = doc.Total
	si.RemainingBalance = doc.Total.Sub(si.InvoiceTotalPaidAmount)
	si.Details = make([]SalesInvoiceDetail, 0, len(doc.LineItems))
	for _, item := range doc.LineItems {
		si.Details = append(si.Details, NewSalesInvoiceDetail(item))
	}
}

func (si SalesInvoice) ToOutstandingInvoice() OutstandingInvoice {
	return OutstandingInvoice{
		InvoiceId:     si.ID,
		InvoiceNumber: si.InvoiceNumber,
		IssueDate:     si.InvoiceDate,
		BalanceDue:    si.RemainingBalance,
	}
}

// PaidStatus is the status an invoice moves to once its balance is reduced.
func (si SalesInvoice) PaidStatus() SalesInvoiceStatus {
	if si.RemainingBalance.IsPositive() {
		return SalesInvoiceStatusPartialPaid
	}
	return SalesInvoiceStatusPaid
}

// GetOutstandingInvoices returns a customer's payable invoices with a positive balance, oldest first.
func GetOutstandingInvoices(ctx context.Context, db *gorm.DB, businessId string, customerId int) ([]SalesInvoice, error) {
	var invoices []SalesInvoice
	err := db.WithContext(ctx).
		Where("business_id = ? AND customer_id = ?", businessId, customerId).
		Where("current_status IN ?", []SalesInvoiceStatus{SalesInvoiceStatusConfirmed, SalesInvoiceStatusPartialPaid}).
		Where("remaining_balance > 0").
		Order("invoice_date, id").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetSalesInvoicesForUpdate loads invoices by id, locking the rows when the dialect supports it.
func GetSalesInvoicesForUpdate(ctx context.Context, tx *gorm.DB, businessId string, ids []int) (map[int]SalesInvoice, error) {
	var invoices []SalesInvoice
	q := tx.WithContext(ctx).Where("business_id = ? AND id IN ?", businessId, ids)
	if tx.Dialector != nil && tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Find(&invoices).Error; err != nil {
		return nil, err
	}
	result := make(map[int]SalesInvoice, len(invoices))
	for _, inv := range invoices {
		result[inv.ID] = inv
	}
	return result, nil
}

// UpdateInvoicePayment applies a paid amount to an invoice at the given version.
// It reports false when the row moved on to another version.
func UpdateInvoicePayment(ctx context.Context, tx *gorm.DB, inv SalesInvoice, paid decimal.Decimal) (bool, error) {
	inv.InvoiceTotalPaidAmount = inv.InvoiceTotalPaidAmount.Add(paid)
	inv.RemainingBalance = inv.RemainingBalance.Sub(paid)
	res := tx.WithContext(ctx).Model(&SalesInvoice{}).
		Where("id = ? AND business_id = ? AND version = ?", inv.ID, inv.BusinessId, inv.Version).
		Updates(map[string]interface{}{
			"invoice_total_paid_amount": inv.InvoiceTotalPaidAmount,
			"remaining_balance":         inv.RemainingBalance,
			"current_status":            inv.PaidStatus(),
			"version":                   inv.Version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func GetSalesInvoice(ctx context.Context, db *gorm.DB, businessId string, id int) (*SalesInvoice, error) {
	var invoice SalesInvoice
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ?", businessId).
		First(&invoice, id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetSalesInvoicesByBusiness returns every non-void invoice of a business with its details.
func GetSalesInvoicesByBusiness(ctx context.Context, db *gorm.DB, businessId string) ([]SalesInvoice, error) {
	var invoices []SalesInvoice
	err := db.WithContext(ctx).Preload("Details").
		Where("business_id = ? AND current_status <> ?", businessId, SalesInvoiceStatusVoid).
		Order("invoice_date, id").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoiceBusinessIds lists every business that has a sales invoice. ctx must skip tenant scope.
func GetInvoiceBusinessIds(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&SalesInvoice{}).
		Distinct("business_id").
		Order("business_id").
		Pluck("business_id", &ids).Error
	return ids, err
}

// UpdateSalesInvoiceDocument writes the header and replaces the details of inv,
// provided the stored row is still at expectedVersion. It reports false on a version mismatch.
func UpdateSalesInvoiceDocument(ctx context.Context, tx *gorm.DB, inv *SalesInvoice, expectedVersion int) (bool, error) {
	isTaxInclusive := utils.DereferencePtr(inv.IsTaxInclusive)
	res := tx.WithContext(ctx).Model(&SalesInvoice{}).
		Where("id = ? AND business_id = ? AND version = ?", inv.ID, inv.BusinessId, expectedVersion).
		Updates(map[string]interface{}{
			"customer_id":                   inv.CustomerId,
			"invoice_number":                inv.InvoiceNumber,
			"reference_number":              inv.ReferenceNumber,
			"invoice_date":                  inv.InvoiceDate,
			"party_state":                   inv.PartyState,
			"supply_state":                  inv.SupplyState,
			"shipping_charges":              inv.ShippingCharges,
			"adjustment_amount":             inv.AdjustmentAmount,
			"adjustment_description":        inv.AdjustmentDescription,
			"is_tax_inclusive":              isTaxInclusive,
			"current_status":                inv.CurrentStatus,
			"invoice_subtotal":              inv.InvoiceSubtotal,
			"invoice_total_discount_amount": inv.InvoiceTotalDiscountAmount,
			"invoice_total_tax_amount":      inv.InvoiceTotalTaxAmount,
			"invoice_cgst_amount":           inv.InvoiceCgstAmount,
			"invoice_sgst_amount":           inv.InvoiceSgstAmount,
			"invoice_igst_amount":           inv.InvoiceIgstAmount,
			"invoice_total_amount":          inv.InvoiceTotalAmount,
			"remaining_balance":             inv.RemainingBalance,
			"version":                       expectedVersion + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}

	if err := tx.WithContext(ctx).Where("sales_invoice_id = ?", inv.ID).Delete(&SalesInvoiceDetail{}).Error; err != nil {
		return false, err
	}
	for i := range inv.Details {
		inv.Details[i].ID = 0
		inv.Details[i].SalesInvoiceId = inv.ID
	}
	if len(inv.Details) > 0 {
		if err := tx.WithContext(ctx).Create(&inv.Details).Error; err != nil {
			return false, err
		}
	}
	inv.Version = expectedVersion + 1
	return true, nil
}
