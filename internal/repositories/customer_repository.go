package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe_backoffice/internal/models"
)

// CustomerRepository defines the interface for customer-related database operations.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) error
	SetLoyalty(ctx context.Context, exec SQLExecutor, id int64, points int, tier string) error
	DebitPoints(ctx context.Context, exec SQLExecutor, id int64, points int, tier string) error
	CountOrders(ctx context.Context, exec SQLExecutor, id int64) (int, error)
	DeleteCustomer(ctx context.Context, exec SQLExecutor, id int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, surname, email, phone, address, city, document_type, document_number,
	loyalty_points, loyalty_tier, registered_at, updated_at`

func scanCustomer(s scanner, c *models.Customer, extra ...interface{}) error {
	var surname, email, phone, address, city, docType, docNumber sql.NullString
	dest := []interface{}{
		&c.ID, &c.Name, &surname, &email, &phone, &address, &city, &docType, &docNumber,
		&c.LoyaltyPoints, &c.LoyaltyTier, &c.RegisteredAt, &c.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	c.Surname = stringPtr(surname)
	c.Email = stringPtr(email)
	c.Phone = stringPtr(phone)
	c.Address = stringPtr(address)
	c.City = stringPtr(city)
	c.DocumentType = stringPtr(docType)
	c.DocumentNumber = stringPtr(docNumber)
	return nil
}

func (r *customerRepository) CreateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO clientes (name, surname, email, phone, address, city, document_type, document_number,
	                                loyalty_points, loyalty_tier, registered_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	now := time.Now()
	if customer.RegisteredAt.IsZero() {
		customer.RegisteredAt = now
	}
	customer.UpdatedAt = now
	if customer.LoyaltyTier == "" {
		customer.LoyaltyTier = models.TierForPoints(customer.LoyaltyPoints)
	}

	err := exec.QueryRowContext(ctx, query,
		customer.Name, nullString(customer.Surname), nullString(customer.Email), nullString(customer.Phone),
		nullString(customer.Address), nullString(customer.City), nullString(customer.DocumentType),
		nullString(customer.DocumentNumber), customer.LoyaltyPoints, customer.LoyaltyTier,
		customer.RegisteredAt, customer.UpdatedAt,
	).Scan(&customer.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating customer")
	}
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getCustomer(ctx, r.db, `SELECT `+customerColumns+` FROM clientes WHERE id = $1`, id)
}

// GetCustomerForUpdate reads the customer and locks the row until the transaction ends.
func (r *customerRepository) GetCustomerForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Customer, error) {
	return r.getCustomer(ctx, exec, `SELECT `+customerColumns+` FROM clientes WHERE id = $1 FOR UPDATE`, id)
}

func (r *customerRepository) getCustomer(ctx context.Context, exec SQLExecutor, query string, id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	if err := scanCustomer(exec.QueryRowContext(ctx, query, id), customer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, id, err)
	}
	return customer, nil
}

func (r *customerRepository) ListCustomers(ctx context.Context, filters models.CustomerFilters) ([]models.Customer, int, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT ` + customerColumns + `, COUNT(*) OVER() AS total_count FROM clientes`)

	var conditions []string
	var args []interface{}
	argN := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR surname ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR document_number ILIKE $%d)",
			argN, argN, argN, argN, argN))
		args = append(args, "%"+*filters.Search+"%")
		argN++
	}
	if filters.Tier != nil && *filters.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("loyalty_tier = $%d", argN))
		args = append(args, *filters.Tier)
		argN++
	}
	if len(conditions) > 0 {
		qb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	qb.WriteString(" ORDER BY name ASC, id ASC")

	clause, args := pageClause(filters.Page, filters.PageSize, argN, args)
	qb.WriteString(clause)

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	total := 0
	for rows.Next() {
		var c models.Customer
		if err := scanCustomer(rows, &c, &total); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, total, nil
}

// UpdateCustomer writes the profile fields. Loyalty columns are not touched.
func (r *customerRepository) UpdateCustomer(ctx context.Context, exec SQLExecutor, customer *models.Customer) error {
	query := `UPDATE clientes SET
	            name = $1, surname = $2, email = $3, phone = $4, address = $5, city = $6,
	            document_type = $7, document_number = $8, updated_at = $9
	          WHERE id = $10`

	customer.UpdatedAt = time.Now()
	res, err := exec.ExecContext(ctx, query,
		customer.Name, nullString(customer.Surname), nullString(customer.Email), nullString(customer.Phone),
		nullString(customer.Address), nullString(customer.City), nullString(customer.DocumentType),
		nullString(customer.DocumentNumber), customer.UpdatedAt, customer.ID,
	)
	if err != nil {
		return wrapWriteError(err, "updating customer")
	}
	return expectOneRow(res, "updating customer")
}

// SetLoyalty overwrites the point balance and tier.
func (r *customerRepository) SetLoyalty(ctx context.Context, exec SQLExecutor, id int64, points int, tier string) error {
	res, err := exec.ExecContext(ctx,
		`UPDATE clientes SET loyalty_points = $1, loyalty_tier = $2, updated_at = $3 WHERE id = $4`,
		points, tier, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "updating customer loyalty")
	}
	return expectOneRow(res, "updating customer loyalty")
}

// DebitPoints subtracts points only when the balance covers them; otherwise it
// returns ErrConditionFailed and leaves the row unchanged.
func (r *customerRepository) DebitPoints(ctx context.Context, exec SQLExecutor, id int64, points int, tier string) error {
	res, err := exec.ExecContext(ctx,
		`UPDATE clientes SET loyalty_points = loyalty_points - $1, loyalty_tier = $2, updated_at = $3
		 WHERE id = $4 AND loyalty_points >= $1`,
		points, tier, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "debiting customer points")
	}
	if err := expectOneRow(res, "debiting customer points"); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrConditionFailed
		}
		return err
	}
	return nil
}

func (r *customerRepository) CountOrders(ctx context.Context, exec SQLExecutor, id int64) (int, error) {
	var count int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM ordenes WHERE customer_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting orders of customer %d: %v", ErrDatabaseError, id, err)
	}
	return count, nil
}

func (r *customerRepository) DeleteCustomer(ctx context.Context, exec SQLExecutor, id int64) error {
	res, err := exec.ExecContext(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		err = wrapWriteError(err, "deleting customer")
		if errors.Is(err, ErrForeignKey) {
			return fmt.Errorf("%w: %v", ErrInUse, err)
		}
		return err
	}
	return expectOneRow(res, "deleting customer")
}
