package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Payment methods. PaymentPoints marks a point-redemption order.
const (
	PaymentCash       = "cash"
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
	PaymentTransfer   = "transfer"
	PaymentPoints     = "points"
)

// Billing states of an order.
const (
	BillingNotInvoiced = "not_invoiced"
	BillingInvoiced    = "invoiced"
)

// PointsPerCurrencyUnit is the amount of money that earns one loyalty point.
var PointsPerCurrencyUnit = decimal.NewFromInt(5)

// Order is a customer order with its monetary totals and loyalty effects.
type Order struct {
	ID            int64           `json:"id" db:"id"`
	CustomerID    *int64          `json:"customer_id,omitempty" db:"customer_id"`
	Status        string          `json:"status" db:"status"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	TaxRate       decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PointsEarned  *int            `json:"points_earned,omitempty" db:"points_earned"`
	PointsSpent   int             `json:"points_spent" db:"points_spent"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	BillingStatus string          `json:"billing_status" db:"billing_status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	CustomerName *string     `json:"customer_name,omitempty"`
	Lines        []OrderLine `json:"lines,omitempty"`
}

// OrderLine is one product entry on an order.
type OrderLine struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"order_id" db:"order_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal" db:"subtotal"`
	Notes       *string         `json:"notes,omitempty" db:"notes"`
	ProductName string          `json:"product_name,omitempty"`
}

// IsRedemption reports whether the order was paid with loyalty points.
func (o *Order) IsRedemption() bool {
	return o.PaymentMethod == PaymentPoints
}

// IsEditable reports whether lines and payment details may still change.
func (o *Order) IsEditable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPreparing
}

// EarnedPoints returns the points credited on completion. Orders stored without
// points_earned fall back to floor(total / 5).
func (o *Order) EarnedPoints() int {
	if o.IsRedemption() {
		return 0
	}
	if o.PointsEarned != nil {
		return *o.PointsEarned
	}
	return PointsForTotal(o.Total)
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	CustomerID    *int64
	Status        *string
	BillingStatus *string
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
// Completed and cancelled orders are terminal.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidOrderStatus checks if the provided status string is a known order status.
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsValidPaymentMethod checks if the provided payment method is accepted.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentTransfer, PaymentPoints:
		return true
	default:
		return false
	}
}

// OrderTotals holds the derived monetary figures of an order.
type OrderTotals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	PointsEarned int
}

// LineSubtotal is unit price times quantity.
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// ComputeTotals derives subtotal, tax, total and earned points from priced lines.
func ComputeTotals(lines []OrderLine, taxRate decimal.Decimal) OrderTotals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineSubtotal(l.UnitPrice, l.Quantity))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax)
	return OrderTotals{
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
		PointsEarned: PointsForTotal(total),
	}
}

// PointsForTotal is floor(total / 5), never negative.
func PointsForTotal(total decimal.Decimal) int {
	if total.IsNegative() {
		return 0
	}
	return int(total.Div(PointsPerCurrencyUnit).Floor().IntPart())
}
