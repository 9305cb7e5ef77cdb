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

type customerReader struct {
	db *gorm.DB
}

func (r *customerReader) getCustomers(ctx context.Context, ids []int) []*dataloader.Result[*models.Customer] {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return handleError[*models.Customer](len(ids), errors.New("business id is required"))
	}
	results, err := models.GetCustomersByIds(ctx, r.db, businessId, ids)
	if err != nil {
		return handleError[*models.Customer](len(ids), err)
	}
	found := make(map[int]*models.Customer, len(results))
	for _, c := range results {
		found[c.ID] = c
	}
	return generateLoaderResults(found, ids, func(id int) error {
		return &models.LookupError{Kind: models.LookupKindParty, Key: strconv.Itoa(id)}
	})
}

func GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	loaders := For(ctx)
	return loaders.customerLoader.Load(ctx, id)()
}
