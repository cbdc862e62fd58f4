package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe_backoffice/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order and order-line database operations.
type OrderRepository interface {
	CreateOrder(ctx context.Context, exec SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	ListOrdersByStatus(ctx context.Context, statuses []string) ([]models.Order, error)
	UpdateOrder(ctx context.Context, exec SQLExecutor, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, exec SQLExecutor, id int64, status string) error
	SetBillingStatus(ctx context.Context, exec SQLExecutor, id int64, billingStatus string) error
	DeleteOrder(ctx context.Context, exec SQLExecutor, id int64) error

	CreateOrderLine(ctx context.Context, exec SQLExecutor, line *models.OrderLine) (int64, error)
	GetOrderLines(ctx context.Context, exec SQLExecutor, orderID int64) ([]models.OrderLine, error)
	GetLinesForOrders(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderLine, error)
	DeleteOrderLines(ctx context.Context, exec SQLExecutor, orderID int64) (int64, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.customer_id, o.status, o.payment_method, o.tax_rate, o.subtotal, o.tax, o.total,
	o.points_earned, o.points_spent, o.notes, o.billing_status, o.created_at, o.updated_at`

func scanOrder(s scanner, o *models.Order, extra ...interface{}) error {
	var customerID sql.NullInt64
	var pointsEarned sql.NullInt32
	var notes sql.NullString
	dest := []interface{}{
		&o.ID, &customerID, &o.Status, &o.PaymentMethod, &o.TaxRate, &o.Subtotal, &o.Tax, &o.Total,
		&pointsEarned, &o.PointsSpent, &notes, &o.BillingStatus, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	o.CustomerID = int64Ptr(customerID)
	if pointsEarned.Valid {
		p := int(pointsEarned.Int32)
		o.PointsEarned = &p
	}
	o.Notes = stringPtr(notes)
	return nil
}

func nullPoints(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}

func (r *orderRepository) CreateOrder(ctx context.Context, exec SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO ordenes (customer_id, status, payment_method, tax_rate, subtotal, tax, total,
	                               points_earned, points_spent, notes, billing_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.BillingStatus == "" {
		order.BillingStatus = models.BillingNotInvoiced
	}
	err := exec.QueryRowContext(ctx, query,
		nullInt64(order.CustomerID), order.Status, order.PaymentMethod, order.TaxRate,
		order.Subtotal, order.Tax, order.Total, nullPoints(order.PointsEarned), order.PointsSpent,
		nullString(order.Notes), order.BillingStatus, now, now,
	).Scan(&order.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating order")
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + `, c.name
	          FROM ordenes o
	          LEFT JOIN clientes c ON c.id = o.customer_id
	          WHERE o.id = $1`

	order := &models.Order{}
	var customerName sql.NullString
	if err := scanOrder(r.db.QueryRowContext(ctx, query, id), order, &customerName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, id, err)
	}
	order.CustomerName = stringPtr(customerName)
	return order, nil
}

// GetOrderForUpdate reads the order and locks its row until the transaction ends.
func (r *orderRepository) GetOrderForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM ordenes o WHERE o.id = $1 FOR UPDATE`

	order := &models.Order{}
	if err := scanOrder(exec.QueryRowContext(ctx, query, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking order %d: %v", ErrDatabaseError, id, err)
	}
	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT ` + orderColumns + `, c.name, COUNT(*) OVER() AS total_count
	                FROM ordenes o
	                LEFT JOIN clientes c ON c.id = o.customer_id`)

	var conditions []string
	var args []interface{}
	argN := 1

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", argN))
		args = append(args, *filters.CustomerID)
		argN++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argN))
		args = append(args, *filters.Status)
		argN++
	}
	if filters.BillingStatus != nil && *filters.BillingStatus != "" {
		conditions = append(conditions, fmt.Sprintf("o.billing_status = $%d", argN))
		args = append(args, *filters.BillingStatus)
		argN++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argN))
		args = append(args, *filters.From)
		argN++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at < $%d", argN))
		args = append(args, *filters.To)
		argN++
	}

	if len(conditions) > 0 {
		qb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	qb.WriteString(" ORDER BY o.created_at DESC, o.id DESC")

	clause, args := pageClause(filters.Page, filters.PageSize, argN, args)
	qb.WriteString(clause)

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	total := 0
	for rows.Next() {
		var o models.Order
		var customerName sql.NullString
		if err := scanOrder(rows, &o, &customerName, &total); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		o.CustomerName = stringPtr(customerName)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, total, nil
}

// ListOrdersByStatus returns orders in any of the given statuses, oldest first.
func (r *orderRepository) ListOrdersByStatus(ctx context.Context, statuses []string) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + `, c.name
	          FROM ordenes o
	          LEFT JOIN clientes c ON c.id = o.customer_id
	          WHERE o.status = ANY($1)
	          ORDER BY o.created_at ASC, o.id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("%w: querying orders by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		var customerName sql.NullString
		if err := scanOrder(rows, &o, &customerName); err != nil {
			return nil, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		o.CustomerName = stringPtr(customerName)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, nil
}

// UpdateOrder writes the editable fields and recomputed totals of an order.
func (r *orderRepository) UpdateOrder(ctx context.Context, exec SQLExecutor, order *models.Order) error {
	query := `UPDATE ordenes SET
	            status = $1, payment_method = $2, subtotal = $3, tax = $4, total = $5,
	            points_earned = $6, notes = $7, updated_at = $8
	          WHERE id = $9`

	order.UpdatedAt = time.Now()
	res, err := exec.ExecContext(ctx, query,
		order.Status, order.PaymentMethod, order.Subtotal, order.Tax, order.Total,
		nullPoints(order.PointsEarned), nullString(order.Notes), order.UpdatedAt, order.ID,
	)
	if err != nil {
		return wrapWriteError(err, "updating order")
	}
	return expectOneRow(res, "updating order")
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, exec SQLExecutor, id int64, status string) error {
	res, err := exec.ExecContext(ctx, `UPDATE ordenes SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "updating order status")
	}
	return expectOneRow(res, "updating order status")
}

func (r *orderRepository) SetBillingStatus(ctx context.Context, exec SQLExecutor, id int64, billingStatus string) error {
	res, err := exec.ExecContext(ctx, `UPDATE ordenes SET billing_status = $1, updated_at = $2 WHERE id = $3`,
		billingStatus, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "updating order billing status")
	}
	return expectOneRow(res, "updating order billing status")
}

func (r *orderRepository) DeleteOrder(ctx context.Context, exec SQLExecutor, id int64) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM ordenes WHERE id = $1`, id)
	if err != nil {
		err = wrapWriteError(err, "deleting order")
		if errors.Is(err, ErrForeignKey) {
			return fmt.Errorf("%w: %v", ErrInUse, err)
		}
		return err
	}
	return expectOneRow(res, "deleting order")
}

func (r *orderRepository) CreateOrderLine(ctx context.Context, exec SQLExecutor, line *models.OrderLine) (int64, error) {
	query := `INSERT INTO detalles_orden (order_id, product_id, quantity, unit_price, subtotal, notes)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal, nullString(line.Notes),
	).Scan(&line.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating order line")
	}
	return line.ID, nil
}

const orderLineColumns = `d.id, d.order_id, d.product_id, d.quantity, d.unit_price, d.subtotal, d.notes, p.name`

func scanOrderLine(s scanner, l *models.OrderLine) error {
	var notes sql.NullString
	if err := s.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &notes, &l.ProductName); err != nil {
		return err
	}
	l.Notes = stringPtr(notes)
	return nil
}

func (r *orderRepository) GetOrderLines(ctx context.Context, exec SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + orderLineColumns + `
	          FROM detalles_orden d
	          JOIN productos p ON p.id = d.product_id
	          WHERE d.order_id = $1
	          ORDER BY d.id ASC`

	rows, err := exec.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lines of order %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var l models.OrderLine
		if err := scanOrderLine(rows, &l); err != nil {
			return nil, fmt.Errorf("%w: scanning order line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order line rows: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

// GetLinesForOrders loads the lines of several orders in one query, keyed by order id.
func (r *orderRepository) GetLinesForOrders(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderLine, error) {
	result := make(map[int64][]models.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + orderLineColumns + `
	          FROM detalles_orden d
	          JOIN productos p ON p.id = d.product_id
	          WHERE d.order_id = ANY($1)
	          ORDER BY d.order_id ASC, d.id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order lines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.OrderLine
		if err := scanOrderLine(rows, &l); err != nil {
			return nil, fmt.Errorf("%w: scanning order line: %v", ErrDatabaseError, err)
		}
		result[l.OrderID] = append(result[l.OrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order line rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *orderRepository) DeleteOrderLines(ctx context.Context, exec SQLExecutor, orderID int64) (int64, error) {
	res, err := exec.ExecContext(ctx, `DELETE FROM detalles_orden WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, wrapWriteError(err, "deleting order lines")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: deleting order lines rows affected: %v", ErrDatabaseError, err)
	}
	return n, nil
}
