package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/mmdatafocus/books_valuation/middlewares"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recomputes stored sales invoices and reports the ones whose stored totals differ
// from a fresh valuation. Exits 2 when drift is found.
func main() {
	businessID := flag.String("business-id", "", "Optional: business id (uuid). Every business when empty.")
	invoiceID := flag.Int("invoice-id", 0, "Optional: check a single invoice (requires --business-id)")
	taxBase := flag.String("tax-base", "", "Optional: override TAX_BASE (discounted/gross)")
	flag.Parse()

	if *invoiceID > 0 && strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--invoice-id requires --business-id")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	settings := config.GetValuationSettings()
	if strings.TrimSpace(*taxBase) != "" {
		settings.TaxBase = config.ParseTaxBase(*taxBase)
	}

	businessIds := []string{strings.TrimSpace(*businessID)}
	if businessIds[0] == "" {
		ids, err := models.GetInvoiceBusinessIds(utils.SkipTenantScope(context.Background()), db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list businesses: %v\n", err)
			os.Exit(1)
		}
		businessIds = ids
	}

	drifted := 0
	for _, id := range businessIds {
		n, err := checkBusiness(context.Background(), db, logger, settings, os.Stdout, id, *invoiceID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "business %s: %v\n", id, err)
			os.Exit(1)
		}
		drifted += n
	}
	if drifted > 0 {
		os.Exit(2)
	}
}

// checkBusiness writes one tab separated line per drifted total and returns the number of drifted invoices.
func checkBusiness(ctx context.Context, db *gorm.DB, logger *logrus.Logger, settings config.ValuationSettings, out io.Writer, businessId string, invoiceId int) (int, error) {
	ctx = utils.SetBusinessIdInContext(ctx, businessId)
	ctx = middlewares.WithLoaders(ctx, middlewares.NewLoaders(db))

	var invoices []models.SalesInvoice
	if invoiceId > 0 {
		inv, err := models.GetSalesInvoice(ctx, db, businessId, invoiceId)
		if err != nil {
			return 0, fmt.Errorf("load invoice %d: %w", invoiceId, err)
		}
		invoices = append(invoices, *inv)
	} else {
		var err error
		invoices, err = models.GetSalesInvoicesByBusiness(ctx, db, businessId)
		if err != nil {
			return 0, fmt.Errorf("load invoices: %w", err)
		}
	}

	eng := middlewares.NewEngine(engine.WithSettings(settings), engine.WithLogger(logger))
	drifted := 0
	for _, inv := range invoices {
		stored := inv.ToDocument()
		computed, err := eng.RecomputeDocument(ctx, stored)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"business_id":    businessId,
				"invoice_id":     inv.ID,
				"invoice_number": inv.InvoiceNumber,
			}).Error("recompute failed: " + err.Error())
			drifted++
			continue
		}
		diff := engine.TotalsDiff(stored.Totals(), computed.Totals())
		if len(diff) == 0 {
			continue
		}
		drifted++
		for _, name := range utils.SortedKeys(diff) {
			fmt.Fprintf(out, "%s\t%s\t%d\t%s\tstored=%s\tcomputed=%s\n",
				businessId, inv.InvoiceNumber, inv.ID, name, diff[name][0].String(), diff[name][1].String())
		}
		for _, w := range computed.Warnings {
			fmt.Fprintf(out, "%s\t%s\t%d\twarning\t%s\n", businessId, inv.InvoiceNumber, inv.ID, w.Message)
		}
	}

	logger.WithFields(logrus.Fields{
		"business_id": businessId,
		"checked":     len(invoices),
		"drifted":     drifted,
	}).Info("totals drift check finished")
	return drifted, nil
}
