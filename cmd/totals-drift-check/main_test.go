package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/testutil"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedStoredInvoice(t *testing.T, db *gorm.DB, businessId string, number string, total string) {
	t.Helper()
	inv := models.SalesInvoice{
		BusinessId:            businessId,
		CustomerId:            1,
		InvoiceNumber:         number,
		InvoiceDate:           time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		PartyState:            "Maharashtra",
		SupplyState:           "Maharashtra",
		IsTaxInclusive:        testutil.Ptr(false),
		CurrentStatus:         models.SalesInvoiceStatusConfirmed,
		InvoiceSubtotal:       dec("1000"),
		InvoiceTotalTaxAmount: dec("180"),
		InvoiceCgstAmount:     dec("90"),
		InvoiceSgstAmount:     dec("90"),
		InvoiceTotalAmount:    dec(total),
		RemainingBalance:      dec(total),
		Version:               1,
		Details: []models.SalesInvoiceDetail{{
			Name:               "Chair",
			DetailQty:          dec("2"),
			DetailUnitRate:     dec("500"),
			DetailTaxCode:      "GST18",
			DetailTaxRate:      dec("18"),
			DetailDiscountType: models.DiscountTypeAmount,
			DetailTaxAmount:    dec("180"),
			DetailTotalAmount:  dec("1000"),
		}},
	}
	require.NoError(t, db.Create(&inv).Error)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCheckBusiness_ReportsDriftedTotals(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.StartRedis(t)
	require.NoError(t, db.Create(&models.Tax{BusinessId: "biz-1", Code: "GST18", Name: "GST 18%", Rate: dec("18"), IsActive: testutil.Ptr(true)}).Error)
	seedStoredInvoice(t, db, "biz-1", "INV-OK", "1180")
	seedStoredInvoice(t, db, "biz-1", "INV-DRIFT", "1200")

	var out bytes.Buffer
	drifted, err := checkBusiness(context.Background(), db, quietLogger(), config.ValuationSettings{TaxBase: config.TaxBaseDiscounted}, &out, "biz-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, drifted)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "biz-1\tINV-DRIFT\t2\ttotal\tstored=1200\tcomputed=1180", lines[0])
}

func TestCheckBusiness_GrossTaxBase(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.StartRedis(t)
	require.NoError(t, db.Create(&models.Tax{BusinessId: "biz-1", Code: "GST18", Name: "GST 18%", Rate: dec("18"), IsActive: testutil.Ptr(true)}).Error)
	seedStoredInvoice(t, db, "biz-1", "INV-OK", "1180")

	// no discount, so both tax bases agree
	var out bytes.Buffer
	drifted, err := checkBusiness(context.Background(), db, quietLogger(), config.ValuationSettings{TaxBase: config.TaxBaseGross}, &out, "biz-1", 1)
	require.NoError(t, err)
	assert.Zero(t, drifted)
	assert.Empty(t, out.String())
}

func TestCheckBusiness_UnknownInvoice(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.StartRedis(t)

	_, err := checkBusiness(context.Background(), db, quietLogger(), config.ValuationSettings{}, io.Discard, "biz-1", 42)
	require.Error(t, err)
}

func TestGetInvoiceBusinessIds(t *testing.T) {
	db := testutil.OpenDB(t)
	seedStoredInvoice(t, db, "biz-2", "INV-1", "1180")
	seedStoredInvoice(t, db, "biz-1", "INV-1", "1180")
	seedStoredInvoice(t, db, "biz-1", "INV-2", "1180")

	ids, err := models.GetInvoiceBusinessIds(utils.SkipTenantScope(context.Background()), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"biz-1", "biz-2"}, ids)
}
