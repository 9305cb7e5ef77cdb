package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

type ConfirmPaymentInput struct {
	CustomerId      int                         `json:"customer_id" validate:"required,gt=0"`
	PaymentNumber   string                      `json:"payment_number" validate:"required,max=255"`
	PaymentDate     time.Time                   `json:"payment_date" validate:"required"`
	ReferenceNumber string                      `json:"reference_number" validate:"max=255"`
	Notes           string                      `json:"notes"`
	TotalReceived   decimal.Decimal             `json:"total_received" validate:"gte=0"`
	Invoices        []models.OutstandingInvoice `json:"invoices" validate:"dive"`
	Overrides       []models.InvoiceOverride    `json:"overrides" validate:"dive"`
}

// ConfirmCustomerPayment stores a payment allocated against the invoices the caller saw.
//
// The customer is locked for the duration. Balances are re-read inside the transaction; any balance
// that moved since the caller allocated fails with a ConsistencyError and nothing is written.
func ConfirmCustomerPayment(ctx context.Context, db *gorm.DB, publisher Publisher, input ConfirmPaymentInput) (*models.CustomerPayment, models.PaymentAllocation, error) {
	ctx, span := tracer.Start(ctx, "ConfirmCustomerPayment")
	defer span.End()
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, models.PaymentAllocation{}, errors.New("business id is required")
	}
	span.SetAttributes(attribute.String("business.id", businessId), attribute.Int("customer.id", input.CustomerId))

	if strings.TrimSpace(input.PaymentNumber) == "" {
		return nil, models.PaymentAllocation{}, models.NewValidationError("payment_number", "is required")
	}

	var payment models.CustomerPayment
	var allocation models.PaymentAllocation
	lockKey := utils.LockKey("customer", businessId, input.CustomerId)
	err := utils.WithBusinessLock(ctx, lockKey, "CustomerPaymentWorkflow.go", "ConfirmCustomerPayment", func(ctx context.Context) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ids := make([]int, 0, len(input.Invoices))
			for _, inv := range input.Invoices {
				ids = append(ids, inv.InvoiceId)
			}
			stored, err := models.GetSalesInvoicesForUpdate(ctx, tx, businessId, ids)
			if err != nil {
				config.LogError(logger, "CustomerPaymentWorkflow.go", "ConfirmCustomerPayment", "GetSalesInvoicesForUpdate", ids, err)
				return err
			}
			if err := engine.VerifyBalances(ctx, storedBalances(stored), input.Invoices); err != nil {
				config.LogWarning(logger, "CustomerPaymentWorkflow.go", "ConfirmCustomerPayment", "stale balances", err.Error())
				return err
			}
			if err := checkPayable(input.CustomerId, input.Invoices, stored); err != nil {
				return err
			}

			allocation, err = engine.AllocatePayment(input.TotalReceived, input.Invoices, input.Overrides)
			if err != nil {
				return err
			}

			for _, row := range allocation.Allocations {
				ok, err := models.UpdateInvoicePayment(ctx, tx, stored[row.InvoiceId], row.AmountApplied)
				if err != nil {
					config.LogError(logger, "CustomerPaymentWorkflow.go", "ConfirmCustomerPayment", "UpdateInvoicePayment", row, err)
					return err
				}
				if !ok {
					inv := stored[row.InvoiceId]
					return &models.ConsistencyError{
						Stale:   []models.StaleBalance{{InvoiceId: inv.ID, Observed: inv.RemainingBalance, Current: inv.RemainingBalance}},
						Message: fmt.Sprintf("invoice %d was changed by another request", inv.ID),
					}
				}
			}

			payment = models.NewCustomerPayment(businessId, input.CustomerId, strings.TrimSpace(input.PaymentNumber), input.PaymentDate, allocation)
			payment.ReferenceNumber = input.ReferenceNumber
			payment.Notes = input.Notes
			if err := tx.Create(&payment).Error; err != nil {
				if models.IsDuplicateKeyError(err) {
					return models.NewValidationError("payment_number", "%s already exists", payment.PaymentNumber)
				}
				config.LogError(logger, "CustomerPaymentWorkflow.go", "ConfirmCustomerPayment", "Create CustomerPayment", payment.PaymentNumber, err)
				return err
			}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, models.PaymentAllocation{}, err
	}

	newJSON, _ := utils.MarshalSnapshot(&payment)
	publishCommitted(ctx, logger, publisher, config.PubSubMessage{
		BusinessId:    businessId,
		ReferenceId:   payment.ID,
		ReferenceType: string(models.AccountReferenceTypeCustomerPayment),
		Action:        string(models.PubSubMessageActionCreate),
		NewObj:        newJSON,
	})
	return &payment, allocation, nil
}

// LoadOutstandingInvoices is the snapshot a payment session starts from.
func LoadOutstandingInvoices(ctx context.Context, db *gorm.DB, customerId int) ([]models.OutstandingInvoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	invoices, err := models.GetOutstandingInvoices(ctx, db, businessId, customerId)
	if err != nil {
		config.LogError(config.GetLogger(), "CustomerPaymentWorkflow.go", "LoadOutstandingInvoices", "GetOutstandingInvoices", customerId, err)
		return nil, err
	}
	result := make([]models.OutstandingInvoice, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, inv.ToOutstandingInvoice())
	}
	return result, nil
}

func checkPayable(customerId int, observed []models.OutstandingInvoice, stored map[int]models.SalesInvoice) error {
	for _, inv := range observed {
		si, ok := stored[inv.InvoiceId]
		if !ok {
			// reported by the balance check
			continue
		}
		if si.CustomerId != customerId {
			return models.NewValidationError("invoices", "invoice %d does not belong to customer %d", si.ID, customerId)
		}
		if !si.CurrentStatus.IsPayable() && inv.BalanceDue.IsPositive() {
			return models.NewValidationError("invoices", "invoice %d is %s and cannot be paid", si.ID, si.CurrentStatus)
		}
	}
	return nil
}

// storedBalances serves balances from rows already read under lock.
type storedBalances map[int]models.SalesInvoice

func (s storedBalances) CurrentBalances(_ context.Context, ids []int) (map[int]decimal.Decimal, error) {
	result := make(map[int]decimal.Decimal, len(ids))
	for _, id := range ids {
		if inv, ok := s[id]; ok {
			result[id] = inv.RemainingBalance
		}
	}
	return result, nil
}
