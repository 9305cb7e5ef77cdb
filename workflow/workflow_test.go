package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/middlewares"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/testutil"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testBusinessId = "biz-1"

type fakePublisher struct {
	mu       sync.Mutex
	messages []config.PubSubMessage
}

func (p *fakePublisher) Publish(_ context.Context, msg config.PubSubMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return "msg-1", nil
}

func (p *fakePublisher) Messages() []config.PubSubMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]config.PubSubMessage(nil), p.messages...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testContext(db *gorm.DB) context.Context {
	ctx := utils.SetBusinessIdInContext(context.Background(), testBusinessId)
	ctx = utils.SetCorrelationIdInContext(ctx, "corr-1")
	return middlewares.WithLoaders(ctx, middlewares.NewLoaders(db))
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&models.Tax{BusinessId: testBusinessId, Code: "GST18", Name: "GST 18%", Rate: dec("18"), IsActive: testutil.Ptr(true)}).Error)
	state := models.State{Country: "IN", Code: "27", StateNameEn: "Maharashtra", IsActive: testutil.Ptr(true)}
	require.NoError(t, db.Create(&state).Error)
	require.NoError(t, db.Create(&models.Customer{ID: 11, BusinessId: testBusinessId, Name: "Acme", StateId: state.ID, IsActive: testutil.Ptr(true)}).Error)
}

// seedInvoice stores a confirmed invoice with nothing paid yet.
func seedInvoice(t *testing.T, db *gorm.DB, id int, month time.Month, balance string) models.SalesInvoice {
	t.Helper()
	inv := models.SalesInvoice{
		ID:                 id,
		BusinessId:         testBusinessId,
		CustomerId:         11,
		InvoiceNumber:      "INV-" + time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC).Format("01"),
		InvoiceDate:        time.Date(2024, month, 10, 0, 0, 0, 0, time.UTC),
		IsTaxInclusive:     testutil.Ptr(false),
		CurrentStatus:      models.SalesInvoiceStatusConfirmed,
		InvoiceTotalAmount: dec(balance),
		RemainingBalance:   dec(balance),
		Version:            1,
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func reloadInvoice(t *testing.T, db *gorm.DB, id int) models.SalesInvoice {
	t.Helper()
	var inv models.SalesInvoice
	require.NoError(t, db.Preload("Details").First(&inv, id).Error)
	return inv
}
