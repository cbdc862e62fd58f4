package handlers

import (
	"net/http"
	"time"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
	loc          *time.Location
}

// NewOrderHandler creates a new OrderHandler. Date filters are read in loc.
func NewOrderHandler(os services.OrderService, loc *time.Location) *OrderHandler {
	if loc == nil {
		loc = time.Local
	}
	return &OrderHandler{orderService: os, loc: loc}
}

// Checkout handles the creation of a new order with its lines.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if !bindJSON(c, &req, "Checkout") {
		return
	}
	order, err := h.orderService.Checkout(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Checkout")
		return
	}
	utils.RespondOK(c, http.StatusCreated, order)
}

// ListOrders handles fetching orders filtered by customer_id, status,
// billing_status and a from/to date range. Both dates are inclusive.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filters models.OrderFilters
	var ok bool
	if filters.CustomerID, ok = optionalInt64Query(c, "customer_id"); !ok {
		return
	}
	filters.Status = optionalQuery(c, "status")
	filters.BillingStatus = optionalQuery(c, "billing_status")

	from, err := utils.OptionalDate(c.Query("from"), h.loc)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	to, err := utils.OptionalDate(c.Query("to"), h.loc)
	if err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		utils.RespondValidationFailed(c, "from must not be after to")
		return
	}
	filters.From, filters.To = from, to

	if filters.Page, filters.PageSize, ok = parsePagination(c); !ok {
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "List orders")
		return
	}
	page, pageSize := services.NormalizePage(filters.Page, filters.PageSize)
	utils.RespondPage(c, orders, total, page, pageSize)
}

// KitchenBoard lists open orders, oldest first.
func (h *OrderHandler) KitchenBoard(c *gin.Context) {
	orders, err := h.orderService.KitchenBoard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Kitchen board")
		return
	}
	utils.RespondOK(c, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Get order")
		return
	}
	utils.RespondOK(c, http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if !bindJSON(c, &req, "UpdateOrder") {
		return
	}
	order, err := h.orderService.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Update order")
		return
	}
	utils.RespondOK(c, http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req, "UpdateOrderStatus") {
		return
	}
	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, err, "Update order status")
		return
	}
	utils.RespondOK(c, http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Delete order")
		return
	}
	utils.RespondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
