package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerPayment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;uniqueIndex:idx_payment_number;not null" json:"business_id"`
	CustomerId      int             `gorm:"index;not null" json:"customer_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	UnusedAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unused_amount"`
	PaymentDate     time.Time       `gorm:"not null" json:"payment_date"`
	PaymentNumber   string          `gorm:"size:255;uniqueIndex:idx_payment_number;not null" json:"payment_number"`
	ReferenceNumber string          `gorm:"size:255" json:"reference_number"`
	Notes           string          `gorm:"type:text" json:"notes"`
	PaidInvoices    []PaidInvoice   `json:"paid_invoices"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type PaidInvoice struct {
	ID                int             `gorm:"primary_key" json:"id"`
	CustomerPaymentId int             `gorm:"index" json:"customer_payment_id"`
	InvoiceId         int             `gorm:"index" json:"invoice_id"`
	PaidAmount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	AllocationMode    AllocationMode  `gorm:"size:10" json:"allocation_mode"`
	AppliedDate       time.Time       `json:"applied_date"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewCustomerPayment builds the payment record for a confirmed allocation.
// Rows with nothing applied are not stored.
func NewCustomerPayment(businessId string, customerId int, paymentNumber string, paymentDate time.Time, allocation PaymentAllocation) CustomerPayment {
	payment := CustomerPayment{
		BusinessId:    businessId,
		CustomerId:    customerId,
		Amount:        allocation.TotalReceived,
		UnusedAmount:  allocation.ExcessAmount,
		PaymentDate:   paymentDate,
		PaymentNumber: paymentNumber,
	}
	for _, row := range allocation.Allocations {
		if !row.AmountApplied.IsPositive() {
			continue
		}
		payment.PaidInvoices = append(payment.PaidInvoices, PaidInvoice{
			InvoiceId:      row.InvoiceId,
			PaidAmount:     row.AmountApplied,
			AllocationMode: row.Mode,
			AppliedDate:    row.AppliedDate,
		})
	}
	return payment
}

func GetCustomerPayment(ctx context.Context, db *gorm.DB, businessId string, id int) (*CustomerPayment, error) {
	var payment CustomerPayment
	err := db.WithContext(ctx).Preload("PaidInvoices").
		Where("business_id = ?", businessId).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// IsDuplicateKeyError reports a unique index violation.
func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	// sqlite drivers without error translation
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
