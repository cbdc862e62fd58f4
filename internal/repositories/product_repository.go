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

// ProductRepository defines the interface for product-related database operations.
type ProductRepository interface {
	CreateProduct(ctx context.Context, exec SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, exec SQLExecutor, ids []int64) (map[int64]models.Product, error)
	ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, exec SQLExecutor, product *models.Product) error
	UpdateImageURL(ctx context.Context, exec SQLExecutor, id int64, imageURL *string) error
	Deactivate(ctx context.Context, exec SQLExecutor, id int64) error
	CountOpenOrderReferences(ctx context.Context, exec SQLExecutor, id int64) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.category_id, p.name, p.description, p.price, p.cost, p.image_url,
	p.points_awarded, p.status, p.featured, p.is_active, p.created_at, p.updated_at`

func scanProduct(s scanner, p *models.Product, extra ...interface{}) error {
	var description, imageURL sql.NullString
	dest := []interface{}{
		&p.ID, &p.CategoryID, &p.Name, &description, &p.Price, &p.Cost, &imageURL,
		&p.PointsAwarded, &p.Status, &p.Featured, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	p.Description = stringPtr(description)
	p.ImageURL = stringPtr(imageURL)
	return nil
}

func (r *productRepository) CreateProduct(ctx context.Context, exec SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO productos (category_id, name, description, price, cost, image_url, points_awarded,
	                                 status, featured, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	err := exec.QueryRowContext(ctx, query,
		product.CategoryID, product.Name, nullString(product.Description), product.Price, product.Cost,
		nullString(product.ImageURL), product.PointsAwarded, product.Status, product.Featured, product.IsActive,
		now, now,
	).Scan(&product.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating product")
	}
	return product.ID, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + `, c.name
	          FROM productos p
	          JOIN categorias c ON c.id = p.category_id
	          WHERE p.id = $1`

	product := &models.Product{}
	var categoryName string
	if err := scanProduct(r.db.QueryRowContext(ctx, query, id), product, &categoryName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	product.Category = &models.Category{ID: product.CategoryID, Name: categoryName}
	return product, nil
}

// GetProductsByIDs loads the given products keyed by id. Missing ids are simply absent.
func (r *productRepository) GetProductsByIDs(ctx context.Context, exec SQLExecutor, ids []int64) (map[int64]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM productos p WHERE p.id = ANY($1)`

	rows, err := exec.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying products by ids: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := make(map[int64]models.Product, len(ids))
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT ` + productColumns + `, c.name, COUNT(*) OVER() AS total_count
	                FROM productos p
	                JOIN categorias c ON c.id = p.category_id`)

	var conditions []string
	var args []interface{}
	argN := 1

	if !filters.IncludeInactive {
		conditions = append(conditions, "p.is_active = TRUE")
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argN))
		args = append(args, *filters.CategoryID)
		argN++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argN))
		args = append(args, *filters.Status)
		argN++
	}
	if filters.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("p.featured = $%d", argN))
		args = append(args, *filters.Featured)
		argN++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argN, argN))
		args = append(args, "%"+*filters.Search+"%")
		argN++
	}

	if len(conditions) > 0 {
		qb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	qb.WriteString(" ORDER BY p.name ASC")

	clause, args := pageClause(filters.Page, filters.PageSize, argN, args)
	qb.WriteString(clause)

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	total := 0
	for rows.Next() {
		var p models.Product
		var categoryName string
		if err := scanProduct(rows, &p, &categoryName, &total); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		p.Category = &models.Category{ID: p.CategoryID, Name: categoryName}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, total, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, exec SQLExecutor, product *models.Product) error {
	query := `UPDATE productos SET
	            category_id = $1, name = $2, description = $3, price = $4, cost = $5, image_url = $6,
	            points_awarded = $7, status = $8, featured = $9, is_active = $10, updated_at = $11
	          WHERE id = $12`

	product.UpdatedAt = time.Now()
	res, err := exec.ExecContext(ctx, query,
		product.CategoryID, product.Name, nullString(product.Description), product.Price, product.Cost,
		nullString(product.ImageURL), product.PointsAwarded, product.Status, product.Featured, product.IsActive,
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		return wrapWriteError(err, "updating product")
	}
	return expectOneRow(res, "updating product")
}

func (r *productRepository) UpdateImageURL(ctx context.Context, exec SQLExecutor, id int64, imageURL *string) error {
	res, err := exec.ExecContext(ctx, `UPDATE productos SET image_url = $1, updated_at = $2 WHERE id = $3`,
		nullString(imageURL), time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "updating product image")
	}
	return expectOneRow(res, "updating product image")
}

// Deactivate hides a product from the menu. Its availability status is kept.
func (r *productRepository) Deactivate(ctx context.Context, exec SQLExecutor, id int64) error {
	res, err := exec.ExecContext(ctx, `UPDATE productos SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "deactivating product")
	}
	return expectOneRow(res, "deactivating product")
}

// CountOpenOrderReferences counts pending or preparing orders that contain the product.
func (r *productRepository) CountOpenOrderReferences(ctx context.Context, exec SQLExecutor, id int64) (int, error) {
	query := `SELECT COUNT(DISTINCT o.id)
	          FROM detalles_orden d
	          JOIN ordenes o ON o.id = d.order_id
	          WHERE d.product_id = $1 AND o.status IN ($2, $3)`

	var count int
	err := exec.QueryRowContext(ctx, query, id, models.OrderStatusPending, models.OrderStatusPreparing).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting open orders for product %d: %v", ErrDatabaseError, id, err)
	}
	return count, nil
}
