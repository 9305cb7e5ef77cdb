package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TaxInfo struct {
	ID       int             `json:"id"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	Type     TaxType         `json:"type"`
	IsActive bool            `json:"isActive"`
}

type Tax struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Code       string          `gorm:"index;size:20;not null" json:"code"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Rate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TaxGroup combines taxes under one code, e.g. "GST18" = CGST9 + SGST9.
// Rate is kept equal to the sum of the member rates.
type TaxGroup struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null" json:"business_id"`
	Code       string          `gorm:"index;size:20;not null" json:"code"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Rate       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	Taxes      []Tax           `gorm:"many2many:group_taxes" json:"-"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CalculateRate sums member tax rates. Taxes must be preloaded.
func (g TaxGroup) CalculateRate() decimal.Decimal {
	rate := decimal.Zero
	for _, t := range g.Taxes {
		rate = rate.Add(t.Rate)
	}
	return rate
}

// NormalizeTaxCode is the lookup form of a tax code.
func NormalizeTaxCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func taxCacheKey(businessId string) string {
	return utils.BusinessCacheKey("AllTax", businessId)
}

// MapAllTax returns every active tax and tax group of a business keyed by normalized code.
// Results are cached in redis until a tax changes or the lifespan ends.
func MapAllTax(ctx context.Context, db *gorm.DB, businessId string) (map[string]*TaxInfo, error) {
	cacheKey := taxCacheKey(businessId)
	result := make(map[string]*TaxInfo)
	exists, err := config.GetRedisObject(ctx, cacheKey, &result)
	if err != nil {
		config.LogError(config.GetLogger(), "MapAllTax", "GetRedisObject", cacheKey, nil, err)
	}
	if exists {
		return result, nil
	}

	var taxes []Tax
	if err := db.WithContext(ctx).Where("business_id = ? AND is_active = ?", businessId, true).Find(&taxes).Error; err != nil {
		return nil, err
	}
	var groups []TaxGroup
	if err := db.WithContext(ctx).Where("business_id = ? AND is_active = ?", businessId, true).Find(&groups).Error; err != nil {
		return nil, err
	}

	result = make(map[string]*TaxInfo, len(taxes)+len(groups))
	for _, t := range taxes {
		result[NormalizeTaxCode(t.Code)] = &TaxInfo{
			ID:       t.ID,
			Code:     t.Code,
			Name:     t.Name,
			Rate:     t.Rate,
			Type:     TaxTypeIndividual,
			IsActive: true,
		}
	}
	// a group shadows an individual tax with the same code
	for _, g := range groups {
		result[NormalizeTaxCode(g.Code)] = &TaxInfo{
			ID:       g.ID,
			Code:     g.Code,
			Name:     g.Name,
			Rate:     g.Rate,
			Type:     TaxTypeGroup,
			IsActive: true,
		}
	}

	if err := config.SetRedisObject(ctx, cacheKey, result, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "MapAllTax", "SetRedisObject", cacheKey, nil, err)
	}
	return result, nil
}

// GetTaxesByCodes resolves the given codes, keyed as requested, skipping the ones the business does not have.
func GetTaxesByCodes(ctx context.Context, db *gorm.DB, businessId string, codes []string) (map[string]*TaxInfo, error) {
	all, err := MapAllTax(ctx, db, businessId)
	if err != nil {
		return nil, err
	}
	found := make(map[string]*TaxInfo, len(codes))
	for _, code := range codes {
		if info, ok := all[NormalizeTaxCode(code)]; ok {
			found[code] = info
		}
	}
	return found, nil
}
