package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderValidation          = errors.New("order validation error")
	ErrProductUnavailable       = errors.New("product is not available for sale")
	ErrNoRedeemableItems        = errors.New("no redeemable items in order")
	ErrCustomerRequired         = errors.New("a customer is required for point redemption")
	ErrInvalidTransition        = errors.New("invalid order status transition")
	ErrOrderNotEditable         = errors.New("only pending or preparing orders can be edited")
	ErrRedemptionOrderImmutable = errors.New("point redemption orders cannot be edited")
	ErrOrderInvoiced            = errors.New("order has invoices and cannot be deleted")
)

// --- Order DTOs ---

type OrderLineRequest struct {
	ProductID int64   `json:"product_id" binding:"required,gt=0"`
	Quantity  int     `json:"quantity" binding:"required,gte=1"`
	Notes     *string `json:"notes"`
}

// CheckoutRequest creates an order from a cart. PaymentMethod "points" turns the
// checkout into a point redemption.
type CheckoutRequest struct {
	CustomerID    *int64             `json:"customer_id" binding:"omitempty,gt=0"`
	PaymentMethod string             `json:"payment_method" binding:"required,payment_method"`
	TaxRate       *decimal.Decimal   `json:"tax_rate"`
	Notes         *string            `json:"notes"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// UpdateOrderRequest replaces the lines of an open order and optionally its
// payment method, notes and status.
type UpdateOrderRequest struct {
	PaymentMethod *string            `json:"payment_method" binding:"omitempty,payment_method"`
	Status        *string            `json:"status" binding:"omitempty,order_status"`
	Notes         *string            `json:"notes"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// TaxRateProvider supplies the checkout tax rate when the request has none.
type TaxRateProvider interface {
	DefaultTaxRate(ctx context.Context) decimal.Decimal
}

// --- OrderService Interface ---
type OrderService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	KitchenBoard(ctx context.Context) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	ledger      loyaltyLedger
	taxRates    TaxRateProvider
	db          *sql.DB
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository,
	customerRepo repositories.CustomerRepository, taxRates TaxRateProvider, db *sql.DB) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ledger:      loyaltyLedger{customers: customerRepo},
		taxRates:    taxRates,
		db:          db,
	}
}

func validateLines(lines []OrderLineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: order must contain at least one line", ErrOrderValidation)
	}
	for i, l := range lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: line %d has no product", ErrOrderValidation, i+1)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: line %d quantity must be at least 1", ErrOrderValidation, i+1)
		}
	}
	return nil
}

func lineProductIDs(lines []OrderLineRequest) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

// priceLines resolves catalog prices for the requested lines. Products listed in
// grandfathered only need to exist and be active; all others must be sellable.
func priceLines(lines []OrderLineRequest, products map[int64]models.Product, grandfathered map[int64]bool) ([]models.OrderLine, error) {
	priced := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d does not exist", ErrProductUnavailable, l.ProductID)
		}
		if !p.IsSellable() && !(grandfathered[p.ID] && p.IsActive) {
			return nil, fmt.Errorf("%w: %s (%s)", ErrProductUnavailable, p.Name, p.Status)
		}
		priced = append(priced, models.OrderLine{
			ProductID:   p.ID,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    models.LineSubtotal(p.Price, l.Quantity),
			Notes:       utils.TrimPtr(l.Notes),
			ProductName: p.Name,
		})
	}
	return priced, nil
}

// redemptionCost is the sum of points_awarded × quantity over the lines.
func redemptionCost(lines []OrderLineRequest, products map[int64]models.Product) int {
	total := 0
	for _, l := range lines {
		total += products[l.ProductID].PointsAwarded * l.Quantity
	}
	return total
}

func (s *orderService) resolveTaxRate(ctx context.Context, requested *decimal.Decimal) (decimal.Decimal, error) {
	rate := s.taxRates.DefaultTaxRate(ctx)
	if requested != nil {
		rate = *requested
	}
	if err := ValidateTaxRate(rate); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrOrderValidation, err)
	}
	return rate, nil
}

// Checkout creates an order and its lines in one transaction. Point redemptions
// debit the customer in that same transaction.
func (s *orderService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if !models.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrOrderValidation, req.PaymentMethod)
	}
	redemption := req.PaymentMethod == models.PaymentPoints
	if redemption && req.CustomerID == nil {
		return nil, ErrCustomerRequired
	}

	var rate decimal.Decimal
	if !redemption {
		var err error
		if rate, err = s.resolveTaxRate(ctx, req.TaxRate); err != nil {
			return nil, err
		}
	}

	var orderID int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		products, err := s.productRepo.GetProductsByIDs(ctx, tx, lineProductIDs(req.Lines))
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		lines, err := priceLines(req.Lines, products, nil)
		if err != nil {
			return err
		}

		order := &models.Order{
			CustomerID:    req.CustomerID,
			Status:        models.OrderStatusPending,
			PaymentMethod: req.PaymentMethod,
			Notes:         utils.TrimPtr(req.Notes),
			BillingStatus: models.BillingNotInvoiced,
		}

		if redemption {
			required := redemptionCost(req.Lines, products)
			if required <= 0 {
				return ErrNoRedeemableItems
			}
			if _, err := s.ledger.Debit(ctx, tx, *req.CustomerID, required); err != nil {
				return err
			}
			zero := 0
			order.TaxRate = decimal.Zero
			order.Subtotal, order.Tax, order.Total = decimal.Zero, decimal.Zero, decimal.Zero
			order.PointsEarned = &zero
			order.PointsSpent = required
			for i := range lines {
				lines[i].UnitPrice = decimal.Zero
				lines[i].Subtotal = decimal.Zero
			}
		} else {
			totals := models.ComputeTotals(lines, rate)
			order.TaxRate = rate
			order.Subtotal, order.Tax, order.Total = totals.Subtotal, totals.Tax, totals.Total
			order.PointsEarned = &totals.PointsEarned
		}

		if orderID, err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			if errors.Is(err, repositories.ErrForeignKey) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = orderID
			if _, err := s.orderRepo.CreateOrderLine(ctx, tx, &lines[i]); err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order created", map[string]interface{}{
		"order_id": orderID, "payment_method": req.PaymentMethod, "lines": len(req.Lines),
	})
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	lines, err := s.orderRepo.GetOrderLines(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidOrderStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: invalid status filter %q", ErrOrderValidation, *filters.Status)
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return nil, 0, fmt.Errorf("%w: 'from' must be before 'to'", ErrOrderValidation)
	}
	filters.Page, filters.PageSize = NormalizePage(filters.Page, filters.PageSize)
	orders, total, err := s.orderRepo.ListOrders(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// KitchenBoard lists pending and preparing orders with their lines, oldest first.
func (s *orderService) KitchenBoard(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.ListOrdersByStatus(ctx, []string{models.OrderStatusPending, models.OrderStatusPreparing})
	if err != nil {
		return nil, fmt.Errorf("failed to load kitchen board: %w", err)
	}
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	lines, err := s.orderRepo.GetLinesForOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load kitchen board lines: %w", err)
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (s *orderService) lockOrder(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// UpdateOrder replaces the lines of an open order and recomputes its totals with
// the tax rate stored at checkout.
func (s *orderService) UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (*models.Order, error) {
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}
	if req.PaymentMethod != nil && *req.PaymentMethod == models.PaymentPoints {
		return nil, fmt.Errorf("%w: an order cannot be switched to point payment", ErrOrderValidation)
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := s.lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.IsRedemption() {
			return ErrRedemptionOrderImmutable
		}
		if !order.IsEditable() {
			return fmt.Errorf("%w: order is %s", ErrOrderNotEditable, order.Status)
		}

		current, err := s.orderRepo.GetOrderLines(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}
		onOrder := make(map[int64]bool, len(current))
		for _, l := range current {
			onOrder[l.ProductID] = true
		}
		products, err := s.productRepo.GetProductsByIDs(ctx, tx, lineProductIDs(req.Lines))
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		lines, err := priceLines(req.Lines, products, onOrder)
		if err != nil {
			return err
		}

		totals := models.ComputeTotals(lines, order.TaxRate)
		order.Subtotal, order.Tax, order.Total = totals.Subtotal, totals.Tax, totals.Total
		order.PointsEarned = &totals.PointsEarned
		if req.PaymentMethod != nil {
			order.PaymentMethod = *req.PaymentMethod
		}
		if req.Notes != nil {
			order.Notes = utils.TrimPtr(req.Notes)
		}

		if _, err := s.orderRepo.DeleteOrderLines(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to replace order lines: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = id
			if _, err := s.orderRepo.CreateOrderLine(ctx, tx, &lines[i]); err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
		}
		if err := s.orderRepo.UpdateOrder(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if req.Status != nil && *req.Status != order.Status {
			return s.transition(ctx, tx, order, *req.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// UpdateOrderStatus moves an order along the status table. Completing an order
// credits its earned points to the customer in the same transaction.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := s.lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.transition(ctx, tx, order, status)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) transition(ctx context.Context, tx *sql.Tx, order *models.Order, next string) error {
	if !models.CanTransition(order.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}
	if err := s.orderRepo.UpdateOrderStatus(ctx, tx, order.ID, next); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to update order status: %w", err)
	}
	utils.LogInfo("Order status changed", map[string]interface{}{"order_id": order.ID, "from": order.Status, "to": next})
	previous := order.Status
	order.Status = next

	if next == models.OrderStatusCompleted && order.CustomerID != nil && !order.IsRedemption() {
		if _, err := s.ledger.Credit(ctx, tx, *order.CustomerID, order.EarnedPoints()); err != nil {
			order.Status = previous
			return err
		}
	}
	return nil
}

// DeleteOrder removes an order and its lines together. Invoiced orders stay.
func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := s.lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.BillingStatus == models.BillingInvoiced {
			return ErrOrderInvoiced
		}
		removed, err := s.orderRepo.DeleteOrderLines(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to delete order lines: %w", err)
		}
		if err := s.orderRepo.DeleteOrder(ctx, tx, id); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return ErrOrderNotFound
			case errors.Is(err, repositories.ErrInUse):
				return ErrOrderInvoiced
			}
			return fmt.Errorf("failed to delete order: %w", err)
		}
		utils.LogInfo("Order deleted", map[string]interface{}{"order_id": id, "lines_removed": removed})
		return nil
	})
}
