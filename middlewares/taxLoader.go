package middlewares

import (
	"context"
	"errors"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"gorm.io/gorm"
)

type taxCodeReader struct {
	db *gorm.DB
}

func (r *taxCodeReader) getTaxesByCode(ctx context.Context, codes []string) []*dataloader.Result[*models.TaxInfo] {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return handleError[*models.TaxInfo](len(codes), errors.New("business id is required"))
	}
	found, err := models.GetTaxesByCodes(ctx, r.db, businessId, codes)
	if err != nil {
		return handleError[*models.TaxInfo](len(codes), err)
	}
	return generateLoaderResults(found, codes, func(code string) error {
		return &models.LookupError{Kind: models.LookupKindTaxCode, Key: code}
	})
}

func GetTaxInfo(ctx context.Context, code string) (*models.TaxInfo, error) {
	loaders := For(ctx)
	return loaders.taxCodeLoader.Load(ctx, code)()
}
