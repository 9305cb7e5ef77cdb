package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/engine"
	"github.com/mmdatafocus/books_valuation/graph"
	"github.com/mmdatafocus/books_valuation/middlewares"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/mmdatafocus/books_valuation/workflow"
)

func newRequestEngine() *engine.Engine {
	return middlewares.NewEngine(
		engine.WithSettings(config.GetValuationSettings()),
		engine.WithLogger(config.GetLogger()),
	)
}

type recomputeLineRequest struct {
	Line models.LineItem `json:"line"`
}

func recomputeLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recomputeLineRequest
		if !bindAndValidate(c, &req) {
			return
		}
		line, warnings, err := newRequestEngine().RecomputeLine(c.Request.Context(), req.Line)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"line": line, "warnings": warnings})
	}
}

type recomputeDocumentRequest struct {
	// PartyId fills an empty party state from the customer record.
	PartyId  int             `json:"party_id" validate:"gte=0"`
	Document models.Document `json:"document"`
}

func recomputeDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recomputeDocumentRequest
		if !bindAndValidate(c, &req) {
			return
		}
		eng := newRequestEngine()
		var doc models.Document
		var err error
		if req.PartyId > 0 && strings.TrimSpace(req.Document.PartyState) == "" {
			doc, err = eng.ApplyEdit(c.Request.Context(), req.Document, engine.SetParty{PartyId: req.PartyId})
		} else {
			doc, err = eng.RecomputeDocument(c.Request.Context(), req.Document)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

type editPayload struct {
	Type           string           `json:"type" validate:"required,oneof=SetQuantity SetRate SetDiscount SetTaxCode SelectItem AddLine RemoveLine SetShippingCharges SetAdjustment SetPartyState SetParty SetSupplyState SetTaxInclusive"`
	Line           int              `json:"line" validate:"gte=0"`
	Value          graph.Amount     `json:"value"`
	DiscountType   string           `json:"discount_type"`
	TaxCode        string           `json:"tax_code"`
	ItemId         int              `json:"item_id"`
	PartyId        int              `json:"party_id"`
	State          string           `json:"state"`
	Description    string           `json:"description"`
	IsTaxInclusive bool             `json:"is_tax_inclusive"`
	Item           *models.LineItem `json:"item"`
}

func (p editPayload) toEdit() (engine.Edit, error) {
	switch p.Type {
	case "SetQuantity":
		return engine.SetQuantity{Line: p.Line, Quantity: p.Value.Decimal()}, nil
	case "SetRate":
		return engine.SetRate{Line: p.Line, Rate: p.Value.Decimal()}, nil
	case "SetDiscount":
		discountType, ok := models.ParseDiscountType(p.DiscountType)
		if !ok {
			return nil, models.NewValidationError("edit.discount_type", "unknown discount type %q", p.DiscountType)
		}
		return engine.SetDiscount{Line: p.Line, Value: p.Value.Decimal(), Type: discountType}, nil
	case "SetTaxCode":
		return engine.SetTaxCode{Line: p.Line, TaxCode: p.TaxCode}, nil
	case "SelectItem":
		return engine.SelectItem{Line: p.Line, ItemId: p.ItemId}, nil
	case "AddLine":
		if p.Item == nil {
			return nil, models.NewValidationError("edit.item", "is required")
		}
		return engine.AddLine{Item: *p.Item}, nil
	case "RemoveLine":
		return engine.RemoveLine{Line: p.Line}, nil
	case "SetShippingCharges":
		return engine.SetShippingCharges{Amount: p.Value.Decimal()}, nil
	case "SetAdjustment":
		return engine.SetAdjustment{Amount: p.Value.Decimal(), Description: p.Description}, nil
	case "SetPartyState":
		return engine.SetPartyState{State: p.State}, nil
	case "SetParty":
		return engine.SetParty{PartyId: p.PartyId}, nil
	case "SetSupplyState":
		return engine.SetSupplyState{State: p.State}, nil
	case "SetTaxInclusive":
		return engine.SetTaxInclusive{IsTaxInclusive: p.IsTaxInclusive}, nil
	}
	return nil, models.NewValidationError("edit.type", "unknown edit %q", p.Type)
}

type editDocumentRequest struct {
	Document models.Document `json:"document"`
	Edit     editPayload     `json:"edit"`
}

// applyEditHandler answers with the edited document, or the submitted one next to the error.
func applyEditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req editDocumentRequest
		if !bindAndValidate(c, &req) {
			return
		}
		edit, err := req.Edit.toEdit()
		if err != nil {
			respondError(c, err)
			return
		}
		doc, err := newRequestEngine().ApplyEdit(c.Request.Context(), req.Document, edit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

type saveSalesInvoiceRequest struct {
	InvoiceId       int             `json:"invoice_id" validate:"gte=0"`
	Version         int             `json:"version" validate:"gte=0"`
	CustomerId      int             `json:"customer_id" validate:"required,gt=0"`
	InvoiceNumber   string          `json:"invoice_number" validate:"required,max=255"`
	ReferenceNumber string          `json:"reference_number" validate:"max=255"`
	InvoiceDate     string          `json:"invoice_date" validate:"required"`
	Status          string          `json:"status" validate:"omitempty,oneof=Draft Confirmed"`
	Document        models.Document `json:"document"`
}

func saveSalesInvoiceHandler(publisher workflow.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveSalesInvoiceRequest
		if !bindAndValidate(c, &req) {
			return
		}
		invoiceDate, err := parseDate(req.InvoiceDate)
		if err != nil {
			respondError(c, models.NewValidationError("invoice_date", "%v", err))
			return
		}
		input := workflow.SaveSalesInvoiceInput{
			InvoiceId:       req.InvoiceId,
			Version:         req.Version,
			CustomerId:      req.CustomerId,
			InvoiceNumber:   req.InvoiceNumber,
			ReferenceNumber: req.ReferenceNumber,
			InvoiceDate:     invoiceDate,
			Status:          models.SalesInvoiceStatus(req.Status),
			Document:        req.Document,
		}
		invoice, err := workflow.SaveSalesInvoice(c.Request.Context(), config.GetDB(), newRequestEngine(), publisher, input)
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusOK
		if req.InvoiceId == 0 {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"invoice": invoice})
	}
}

// parseDate accepts a plain date or an RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
