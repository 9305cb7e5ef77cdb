package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/mmdatafocus/books_valuation/graph"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/models/reports"
	"github.com/mmdatafocus/books_valuation/workflow"
)

type overridePayload struct {
	InvoiceId int          `json:"invoice_id" validate:"gt=0"`
	Amount    graph.Amount `json:"amount"`
}

func toOverrides(payload []overridePayload) []models.InvoiceOverride {
	overrides := make([]models.InvoiceOverride, 0, len(payload))
	for _, o := range payload {
		overrides = append(overrides, models.InvoiceOverride{InvoiceId: o.InvoiceId, Amount: o.Amount.Decimal()})
	}
	return overrides
}

type allocateRequest struct {
	// CustomerId loads the customer's outstanding invoices when Invoices is empty.
	CustomerId    int                         `json:"customer_id" validate:"gte=0"`
	TotalReceived graph.Amount                `json:"total_received"`
	Invoices      []models.OutstandingInvoice `json:"invoices" validate:"dive"`
	Overrides     []overridePayload           `json:"overrides" validate:"dive"`
}

func (req allocateRequest) allocate(c *gin.Context) ([]models.OutstandingInvoice, models.PaymentAllocation, error) {
	invoices := req.Invoices
	if len(invoices) == 0 && req.CustomerId > 0 {
		loaded, err := workflow.LoadOutstandingInvoices(c.Request.Context(), config.GetDB(), req.CustomerId)
		if err != nil {
			return nil, models.PaymentAllocation{}, err
		}
		invoices = loaded
	}
	allocation, err := engine.AllocatePayment(req.TotalReceived.Decimal(), invoices, toOverrides(req.Overrides))
	return invoices, allocation, err
}

func allocatePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req allocateRequest
		if !bindAndValidate(c, &req) {
			return
		}
		invoices, allocation, err := req.allocate(c)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoices": invoices, "allocation": allocation})
	}
}

func exportAllocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req allocateRequest
		if !bindAndValidate(c, &req) {
			return
		}
		invoices, allocation, err := req.allocate(c)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=payment-allocation.xlsx")
		c.Status(http.StatusOK)
		if err := reports.WriteAllocationExcel(c.Writer, invoices, allocation); err != nil {
			_ = c.Error(err)
		}
	}
}

type confirmPaymentRequest struct {
	CustomerId      int                         `json:"customer_id" validate:"required,gt=0"`
	PaymentNumber   string                      `json:"payment_number" validate:"required,max=255"`
	PaymentDate     string                      `json:"payment_date" validate:"required"`
	ReferenceNumber string                      `json:"reference_number" validate:"max=255"`
	Notes           string                      `json:"notes"`
	TotalReceived   graph.Amount                `json:"total_received"`
	Invoices        []models.OutstandingInvoice `json:"invoices" validate:"dive"`
	Overrides       []overridePayload           `json:"overrides" validate:"dive"`
}

// confirmPaymentHandler stores the allocation computed against the invoices the client saw.
func confirmPaymentHandler(publisher workflow.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmPaymentRequest
		if !bindAndValidate(c, &req) {
			return
		}
		paymentDate, err := parseDate(req.PaymentDate)
		if err != nil {
			respondError(c, models.NewValidationError("payment_date", "%v", err))
			return
		}
		payment, allocation, err := workflow.ConfirmCustomerPayment(c.Request.Context(), config.GetDB(), publisher, workflow.ConfirmPaymentInput{
			CustomerId:      req.CustomerId,
			PaymentNumber:   req.PaymentNumber,
			PaymentDate:     paymentDate,
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
			TotalReceived:   req.TotalReceived.Decimal(),
			Invoices:        req.Invoices,
			Overrides:       toOverrides(req.Overrides),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"payment": payment, "allocation": allocation})
	}
}

func outstandingInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, err := strconv.Atoi(c.Param("id"))
		if err != nil || customerId <= 0 {
			respondError(c, models.NewValidationError("customer_id", "invalid id %q", c.Param("id")))
			return
		}
		invoices, err := workflow.LoadOutstandingInvoices(c.Request.Context(), config.GetDB(), customerId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoices": invoices})
	}
}
