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

// invoiceSequenceLockKey is the advisory lock key serializing invoice numbering.
const invoiceSequenceLockKey int64 = 0x46414354 // "FACT"

// InvoiceRepository defines the interface for invoice-related database operations.
type InvoiceRepository interface {
	LockSequence(ctx context.Context, exec SQLExecutor) error
	LatestNumber(ctx context.Context, exec SQLExecutor) (string, error)
	CreateInvoice(ctx context.Context, exec SQLExecutor, invoice *models.Invoice) (int64, error)
	GetInvoiceByID(ctx context.Context, id int64) (*models.Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int, error)
	UpdateInvoiceStatus(ctx context.Context, exec SQLExecutor, id int64, status string) error
}

type invoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `f.id, f.order_id, f.number, f.issued_at, f.billing_name, f.tax_id, f.billing_address,
	f.billing_email, f.billing_phone, f.subtotal, f.tax, f.total, f.status, f.notes, f.created_at, f.updated_at`

func scanInvoice(s scanner, inv *models.Invoice, extra ...interface{}) error {
	var taxID, address, email, phone, notes sql.NullString
	dest := []interface{}{
		&inv.ID, &inv.OrderID, &inv.Number, &inv.IssuedAt, &inv.BillingName, &taxID, &address,
		&email, &phone, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Status, &notes, &inv.CreatedAt, &inv.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	inv.TaxID = stringPtr(taxID)
	inv.BillingAddress = stringPtr(address)
	inv.BillingEmail = stringPtr(email)
	inv.BillingPhone = stringPtr(phone)
	inv.Notes = stringPtr(notes)
	return nil
}

// LockSequence takes a transaction-scoped advisory lock; it is released on commit or rollback.
func (r *invoiceRepository) LockSequence(ctx context.Context, exec SQLExecutor) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, invoiceSequenceLockKey); err != nil {
		return fmt.Errorf("%w: locking invoice sequence: %v", ErrDatabaseError, err)
	}
	return nil
}

// LatestNumber returns the highest invoice number, or "" when none exist.
func (r *invoiceRepository) LatestNumber(ctx context.Context, exec SQLExecutor) (string, error) {
	var number string
	err := exec.QueryRowContext(ctx,
		`SELECT number FROM facturas ORDER BY length(number) DESC, number DESC LIMIT 1`).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reading latest invoice number: %v", ErrDatabaseError, err)
	}
	return number, nil
}

func (r *invoiceRepository) CreateInvoice(ctx context.Context, exec SQLExecutor, invoice *models.Invoice) (int64, error) {
	query := `INSERT INTO facturas (order_id, number, issued_at, billing_name, tax_id, billing_address,
	                                billing_email, billing_phone, subtotal, tax, total, status, notes,
	                                created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`

	now := time.Now()
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = now
	}
	invoice.CreatedAt, invoice.UpdatedAt = now, now
	err := exec.QueryRowContext(ctx, query,
		invoice.OrderID, invoice.Number, invoice.IssuedAt, invoice.BillingName, nullString(invoice.TaxID),
		nullString(invoice.BillingAddress), nullString(invoice.BillingEmail), nullString(invoice.BillingPhone),
		invoice.Subtotal, invoice.Tax, invoice.Total, invoice.Status, nullString(invoice.Notes), now, now,
	).Scan(&invoice.ID)
	if err != nil {
		return 0, wrapWriteError(err, "creating invoice")
	}
	return invoice.ID, nil
}

func (r *invoiceRepository) GetInvoiceByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `, c.name
	          FROM facturas f
	          JOIN ordenes o ON o.id = f.order_id
	          LEFT JOIN clientes c ON c.id = o.customer_id
	          WHERE f.id = $1`

	invoice := &models.Invoice{}
	var customerName sql.NullString
	if err := scanInvoice(r.db.QueryRowContext(ctx, query, id), invoice, &customerName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting invoice by ID %d: %v", ErrDatabaseError, id, err)
	}
	invoice.CustomerName = stringPtr(customerName)
	return invoice, nil
}

func (r *invoiceRepository) GetInvoiceForUpdate(ctx context.Context, exec SQLExecutor, id int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM facturas f WHERE f.id = $1 FOR UPDATE`

	invoice := &models.Invoice{}
	if err := scanInvoice(exec.QueryRowContext(ctx, query, id), invoice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking invoice %d: %v", ErrDatabaseError, id, err)
	}
	return invoice, nil
}

func (r *invoiceRepository) ListInvoices(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT ` + invoiceColumns + `, c.name, COUNT(*) OVER() AS total_count
	                FROM facturas f
	                JOIN ordenes o ON o.id = f.order_id
	                LEFT JOIN clientes c ON c.id = o.customer_id`)

	var args []interface{}
	argN := 1
	if filters.Status != nil && *filters.Status != "" {
		qb.WriteString(fmt.Sprintf(" WHERE f.status = $%d", argN))
		args = append(args, *filters.Status)
		argN++
	}
	qb.WriteString(" ORDER BY f.issued_at DESC, f.id DESC")

	clause, args := pageClause(filters.Page, filters.PageSize, argN, args)
	qb.WriteString(clause)

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying invoices: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	total := 0
	for rows.Next() {
		var inv models.Invoice
		var customerName sql.NullString
		if err := scanInvoice(rows, &inv, &customerName, &total); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning invoice: %v", ErrDatabaseError, err)
		}
		inv.CustomerName = stringPtr(customerName)
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating invoice rows: %v", ErrDatabaseError, err)
	}
	return invoices, total, nil
}

func (r *invoiceRepository) UpdateInvoiceStatus(ctx context.Context, exec SQLExecutor, id int64, status string) error {
	res, err := exec.ExecContext(ctx, `UPDATE facturas SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return wrapWriteError(err, "updating invoice status")
	}
	return expectOneRow(res, "updating invoice status")
}
