package handlers

import (
	"net/http"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerRequest
	if !bindJSON(c, &req, "CreateCustomer") {
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Create customer")
		return
	}
	utils.RespondOK(c, http.StatusCreated, customer)
}

// ListCustomers handles fetching customers, filtered by search and tier.
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	filters := models.CustomerFilters{
		Search: optionalQuery(c, "search"),
		Tier:   optionalQuery(c, "tier"),
	}
	if filters.Tier != nil && !models.IsValidTier(*filters.Tier) {
		utils.RespondValidationFailed(c, "tier must be one of bronze, silver, gold, platinum")
		return
	}
	var ok bool
	if filters.Page, filters.PageSize, ok = parsePagination(c); !ok {
		return
	}

	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "List customers")
		return
	}
	page, pageSize := services.NormalizePage(filters.Page, filters.PageSize)
	utils.RespondPage(c, customers, total, page, pageSize)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Get customer")
		return
	}
	utils.RespondOK(c, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCustomerRequest
	if !bindJSON(c, &req, "UpdateCustomer") {
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Update customer")
		return
	}
	utils.RespondOK(c, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Delete customer")
		return
	}
	utils.RespondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// GetCustomerOrders returns the customer's order history, newest first.
func (h *CustomerHandler) GetCustomerOrders(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	orders, total, err := h.customerService.GetCustomerOrders(c.Request.Context(), id, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "Get customer orders")
		return
	}
	page, pageSize = services.NormalizePage(page, pageSize)
	utils.RespondPage(c, orders, total, page, pageSize)
}
