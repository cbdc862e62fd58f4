package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"cafe_backoffice/internal/models"

	"github.com/lib/pq"
)

// ReportRepository reads the raw rows that the reporting service aggregates.
type ReportRepository interface {
	CompletedOrders(ctx context.Context, window models.ReportWindow) ([]models.CompletedOrderRow, error)
	CompletedLines(ctx context.Context, window models.ReportWindow) ([]models.CompletedLineRow, error)
	CountOrdersByStatus(ctx context.Context, statuses []string) (map[string]int, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CompletedOrders(ctx context.Context, window models.ReportWindow) ([]models.CompletedOrderRow, error) {
	query := `SELECT o.id, o.customer_id, c.name, o.total, COALESCE(o.points_earned, 0), o.created_at
	          FROM ordenes o
	          LEFT JOIN clientes c ON c.id = o.customer_id
	          WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3
	          ORDER BY o.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.OrderStatusCompleted, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: querying completed orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.CompletedOrderRow{}
	for rows.Next() {
		var row models.CompletedOrderRow
		var customerID sql.NullInt64
		var customerName sql.NullString
		if err := rows.Scan(&row.OrderID, &customerID, &customerName, &row.Total, &row.PointsEarned, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning completed order: %v", ErrDatabaseError, err)
		}
		row.CustomerID = int64Ptr(customerID)
		row.CustomerName = stringPtr(customerName)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating completed order rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) CompletedLines(ctx context.Context, window models.ReportWindow) ([]models.CompletedLineRow, error) {
	query := `SELECT d.order_id, d.product_id, p.name, p.category_id, cat.name, d.quantity, d.subtotal
	          FROM detalles_orden d
	          JOIN ordenes o ON o.id = d.order_id
	          JOIN productos p ON p.id = d.product_id
	          JOIN categorias cat ON cat.id = p.category_id
	          WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3`

	rows, err := r.db.QueryContext(ctx, query, models.OrderStatusCompleted, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: querying completed order lines: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	result := []models.CompletedLineRow{}
	for rows.Next() {
		var row models.CompletedLineRow
		if err := rows.Scan(&row.OrderID, &row.ProductID, &row.ProductName, &row.CategoryID, &row.CategoryName,
			&row.Quantity, &row.Subtotal); err != nil {
			return nil, fmt.Errorf("%w: scanning completed order line: %v", ErrDatabaseError, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating completed order line rows: %v", ErrDatabaseError, err)
	}
	return result, nil
}

func (r *reportRepository) CountOrdersByStatus(ctx context.Context, statuses []string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM ordenes WHERE status = ANY($1) GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("%w: counting orders by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(statuses))
	for _, s := range statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: scanning order count: %v", ErrDatabaseError, err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}
