package handlers

import (
	"net/http"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler holds the invoice service.
type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(is services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: is}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req services.CreateInvoiceRequest
	if !bindJSON(c, &req, "CreateInvoice") {
		return
	}
	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Create invoice")
		return
	}
	utils.LogInfo("Invoice issued", map[string]interface{}{"invoice_id": invoice.ID, "number": invoice.Number, "order_id": invoice.OrderID})
	utils.RespondOK(c, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	filters := models.InvoiceFilters{Status: optionalQuery(c, "status")}
	if filters.Status != nil && !models.IsValidInvoiceStatus(*filters.Status) {
		utils.RespondValidationFailed(c, "status must be one of issued, void, paid")
		return
	}
	var ok bool
	if filters.Page, filters.PageSize, ok = parsePagination(c); !ok {
		return
	}
	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "List invoices")
		return
	}
	page, pageSize := services.NormalizePage(filters.Page, filters.PageSize)
	utils.RespondPage(c, invoices, total, page, pageSize)
}

// GetInvoice returns the invoice together with its order and lines.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Get invoice")
		return
	}
	utils.RespondOK(c, http.StatusOK, invoice)
}

func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.VoidInvoice(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Void invoice")
		return
	}
	utils.RespondOK(c, http.StatusOK, invoice)
}

func (h *InvoiceHandler) MarkInvoicePaid(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.MarkInvoicePaid(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Mark invoice paid")
		return
	}
	utils.RespondOK(c, http.StatusOK, invoice)
}
