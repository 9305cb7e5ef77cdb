package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Sku             string          `gorm:"size:100" json:"sku"`
	HsnCode         string          `gorm:"size:10" json:"hsn_code"`
	SalesPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sales_price"`
	SalesTaxCode    string          `gorm:"size:20" json:"sales_tax_code"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	PurchaseTaxCode string          `gorm:"size:20" json:"purchase_tax_code"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetProductsByIds(ctx context.Context, db *gorm.DB, businessId string, ids []int) ([]*Product, error) {
	var products []*Product
	err := db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
