package middlewares

import (
	"context"
	"errors"
	"strconv"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"gorm.io/gorm"
)

type productReader struct {
	db *gorm.DB
}

func (r *productReader) getProducts(ctx context.Context, ids []int) []*dataloader.Result[*models.Product] {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return handleError[*models.Product](len(ids), errors.New("business id is required"))
	}
	results, err := models.GetProductsByIds(ctx, r.db, businessId, ids)
	if err != nil {
		return handleError[*models.Product](len(ids), err)
	}
	found := make(map[int]*models.Product, len(results))
	for _, p := range results {
		found[p.ID] = p
	}
	return generateLoaderResults(found, ids, func(id int) error {
		return &models.LookupError{Kind: models.LookupKindItem, Key: strconv.Itoa(id)}
	})
}

func GetProduct(ctx context.Context, id int) (*models.Product, error) {
	loaders := For(ctx)
	return loaders.productLoader.Load(ctx, id)()
}

func GetProducts(ctx context.Context, ids []int) ([]*models.Product, []error) {
	loaders := For(ctx)
	return loaders.productLoader.LoadMany(ctx, ids)()
}
