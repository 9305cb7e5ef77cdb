package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch and memoize catalog lookups for the lifetime of one request.
type Loaders struct {
	taxCodeLoader  *dataloader.Loader[string, *models.TaxInfo]
	productLoader  *dataloader.Loader[int, *models.Product]
	customerLoader *dataloader.Loader[int, *models.Customer]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	taxCodeReader := &taxCodeReader{db: conn}
	productReader := &productReader{db: conn}
	customerReader := &customerReader{db: conn}

	return &Loaders{
		taxCodeLoader:  dataloader.NewBatchedLoader(taxCodeReader.getTaxesByCode, dataloader.WithWait[string, *models.TaxInfo](time.Millisecond)),
		productLoader:  dataloader.NewBatchedLoader(productReader.getProducts, dataloader.WithWait[int, *models.Product](time.Millisecond)),
		customerLoader: dataloader.NewBatchedLoader(customerReader.getCustomers, dataloader.WithWait[int, *models.Customer](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := WithLoaders(c.Request.Context(), loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// WithLoaders attaches loaders to ctx outside of a gin request (tools and tests).
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults orders found values by the requested keys.
// Keys with no value get the error built by notFound.
func generateLoaderResults[K comparable, V any](found map[K]V, keys []K, notFound func(K) error) []*dataloader.Result[V] {
	loaderResults := make([]*dataloader.Result[V], 0, len(keys))
	for _, key := range keys {
		data, ok := found[key]
		if !ok {
			loaderResults = append(loaderResults, &dataloader.Result[V]{Error: notFound(key)})
			continue
		}
		loaderResults = append(loaderResults, &dataloader.Result[V]{Data: data})
	}
	return loaderResults
}
