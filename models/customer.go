package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"index;not null" json:"business_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Email       string          `gorm:"size:100" json:"email"`
	Phone       string          `gorm:"size:20" json:"phone"`
	Gstin       string          `gorm:"size:15" json:"gstin"`
	StateId     int             `gorm:"index;default:0" json:"state_id"`
	State       *State          `gorm:"foreignKey:StateId" json:"state,omitempty"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PartyState is the customer's registered state name, empty when unknown. State must be preloaded.
func (c Customer) PartyState() string {
	if c.State == nil {
		return ""
	}
	return c.State.StateNameEn
}

func GetCustomersByIds(ctx context.Context, db *gorm.DB, businessId string, ids []int) ([]*Customer, error) {
	var customers []*Customer
	err := db.WithContext(ctx).Preload("State").
		Where("business_id = ? AND id IN ?", businessId, ids).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// GetTotalOutstandingReceivable sums the balance of every payable invoice of a customer.
func GetTotalOutstandingReceivable(ctx context.Context, db *gorm.DB, businessId string, customerId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.WithContext(ctx).Model(&SalesInvoice{}).
		Where("business_id = ? AND customer_id = ?", businessId, customerId).
		Where("current_status IN ?", []SalesInvoiceStatus{SalesInvoiceStatusConfirmed, SalesInvoiceStatusPartialPaid}).
		Select("COALESCE(SUM(remaining_balance), 0)").Scan(&total).Error
	return total, err
}
