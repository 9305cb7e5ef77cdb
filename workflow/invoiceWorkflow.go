package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

type SaveSalesInvoiceInput struct {
	InvoiceId       int                       `json:"invoice_id"`
	Version         int                       `json:"version"`
	CustomerId      int                       `json:"customer_id" validate:"required,gt=0"`
	InvoiceNumber   string                    `json:"invoice_number" validate:"required,max=255"`
	ReferenceNumber string                    `json:"reference_number" validate:"max=255"`
	InvoiceDate     time.Time                 `json:"invoice_date" validate:"required"`
	Status          models.SalesInvoiceStatus `json:"status" validate:"omitempty,oneof=Draft Confirmed"`
	Document        models.Document           `json:"document"`
}

// SaveSalesInvoice recomputes the submitted document and stores it.
//
// Submitted totals, when present, must match the recomputation exactly. An update must name the
// version it was edited from; a newer stored version is a ConsistencyError.
func SaveSalesInvoice(ctx context.Context, db *gorm.DB, eng *engine.Engine, publisher Publisher, input SaveSalesInvoiceInput) (*models.SalesInvoice, error) {
	ctx, span := tracer.Start(ctx, "SaveSalesInvoice")
	defer span.End()
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	span.SetAttributes(attribute.String("business.id", businessId), attribute.Int("invoice.id", input.InvoiceId))

	doc := input.Document
	doc.DocumentType = models.DocumentTypeInvoice
	var computed models.Document
	var err error
	if doc.PartyState == "" {
		computed, err = eng.ApplyEdit(ctx, doc, engine.SetParty{PartyId: input.CustomerId})
	} else {
		computed, err = eng.RecomputeDocument(ctx, doc)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := checkSubmittedTotals(input.Document, computed); err != nil {
		config.LogWarning(logger, "InvoiceWorkflow.go", "SaveSalesInvoice", "submitted totals differ", err.Error())
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.SalesInvoiceStatusDraft
	}

	var saved models.SalesInvoice
	var oldObj *models.SalesInvoice
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.InvoiceId == 0 {
			saved = models.SalesInvoice{
				BusinessId:      businessId,
				CustomerId:      input.CustomerId,
				InvoiceNumber:   input.InvoiceNumber,
				ReferenceNumber: input.ReferenceNumber,
				InvoiceDate:     input.InvoiceDate,
				CurrentStatus:   status,
				Version:         1,
			}
			saved.ApplyDocument(computed)
			if err := tx.Create(&saved).Error; err != nil {
				config.LogError(logger, "InvoiceWorkflow.go", "SaveSalesInvoice > Create", "Create", input.InvoiceNumber, err)
				return err
			}
			return nil
		}

		existing, err := models.GetSalesInvoice(ctx, tx, businessId, input.InvoiceId)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		} else if err != nil {
			config.LogError(logger, "InvoiceWorkflow.go", "SaveSalesInvoice > Update", "GetSalesInvoice", input.InvoiceId, err)
			return err
		}
		if existing.CurrentStatus == models.SalesInvoiceStatusVoid {
			return models.NewValidationError("invoice_id", "invoice %d is void", existing.ID)
		}
		if existing.Version != input.Version {
			return &models.ConsistencyError{Message: fmt.Sprintf("invoice %d was changed by another request (version %d, edited from %d)", existing.ID, existing.Version, input.Version)}
		}
		if computed.Total.LessThan(existing.InvoiceTotalPaidAmount) {
			return models.NewValidationError("document.total", "total %s is below the amount already paid %s", computed.Total, existing.InvoiceTotalPaidAmount)
		}
		oldObj = existing

		saved = *existing
		saved.CustomerId = input.CustomerId
		saved.InvoiceNumber = input.InvoiceNumber
		saved.ReferenceNumber = input.ReferenceNumber
		saved.InvoiceDate = input.InvoiceDate
		saved.ApplyDocument(computed)
		if existing.InvoiceTotalPaidAmount.IsPositive() {
			saved.CurrentStatus = saved.PaidStatus()
		} else {
			saved.CurrentStatus = status
		}

		ok, err := models.UpdateSalesInvoiceDocument(ctx, tx, &saved, input.Version)
		if err != nil {
			config.LogError(logger, "InvoiceWorkflow.go", "SaveSalesInvoice > Update", "UpdateSalesInvoiceDocument", saved.ID, err)
			return err
		}
		if !ok {
			return &models.ConsistencyError{Message: fmt.Sprintf("invoice %d was changed by another request", saved.ID)}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	publishCommitted(ctx, logger, publisher, invoiceMessage(businessId, oldObj, &saved))
	return &saved, nil
}

// checkSubmittedTotals compares client totals with the recomputed ones.
// A document submitted without any totals is accepted as is.
func checkSubmittedTotals(submitted models.Document, computed models.Document) error {
	totals := submitted.Totals()
	if totals.SubTotal.IsZero() && totals.TaxTotal.IsZero() && totals.Total.IsZero() {
		return nil
	}
	diff := engine.TotalsDiff(totals, computed.Totals())
	if len(diff) == 0 {
		return nil
	}
	names := make([]string, 0, len(diff))
	for name := range diff {
		names = append(names, name)
	}
	sort.Strings(names)
	errs := make(models.ValidationErrors, 0, len(names))
	for _, name := range names {
		errs = append(errs, models.NewValidationError("document."+name, "submitted %s, computed %s", diff[name][0], diff[name][1]))
	}
	return errs
}

func invoiceMessage(businessId string, oldObj *models.SalesInvoice, newObj *models.SalesInvoice) config.PubSubMessage {
	action := models.PubSubMessageActionCreate
	if oldObj != nil {
		action = models.PubSubMessageActionUpdate
	}
	oldJSON, _ := utils.MarshalSnapshot(oldObj)
	newJSON, _ := utils.MarshalSnapshot(newObj)
	return config.PubSubMessage{
		BusinessId:    businessId,
		ReferenceId:   newObj.ID,
		ReferenceType: string(models.AccountReferenceTypeInvoice),
		Action:        string(action),
		OldObj:        oldJSON,
		NewObj:        newJSON,
	}
}
