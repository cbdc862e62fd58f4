package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/pkg/utils"
)

var (
	ErrInvoiceNotFound          = errors.New("invoice not found")
	ErrInvoiceValidation        = errors.New("invoice validation error")
	ErrOrderAlreadyInvoiced     = errors.New("order already has an active invoice")
	ErrOrderCancelled           = errors.New("cancelled orders cannot be invoiced")
	ErrInvalidInvoiceTransition = errors.New("invalid invoice status transition")
)

type CreateInvoiceRequest struct {
	OrderID        int64   `json:"order_id" binding:"required,gt=0"`
	BillingName    string  `json:"billing_name" binding:"required"`
	TaxID          *string `json:"tax_id"`
	BillingAddress *string `json:"billing_address"`
	BillingEmail   *string `json:"billing_email" binding:"omitempty,email"`
	BillingPhone   *string `json:"billing_phone"`
	Notes          *string `json:"notes"`
}

// InvoiceService issues and tracks invoices for orders.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int, error)
	VoidInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	MarkInvoicePaid(ctx context.Context, id int64) (*models.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	orderRepo   repositories.OrderRepository
	db          *sql.DB
}

// NewInvoiceService creates a new instance of InvoiceService.
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, orderRepo repositories.OrderRepository, db *sql.DB) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, orderRepo: orderRepo, db: db}
}

// CreateInvoice snapshots the order totals into a new invoice. Numbers are
// allocated under a transaction-scoped lock so concurrent issuers never collide.
func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	name := strings.TrimSpace(req.BillingName)
	if name == "" {
		return nil, fmt.Errorf("%w: billing name is required", ErrInvoiceValidation)
	}
	if req.BillingEmail != nil && !utils.IsValidEmail(strings.TrimSpace(*req.BillingEmail)) {
		return nil, fmt.Errorf("%w: billing email format is invalid", ErrInvoiceValidation)
	}

	var invoiceID int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := s.orderRepo.GetOrderForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if order.Status == models.OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if order.BillingStatus == models.BillingInvoiced {
			return ErrOrderAlreadyInvoiced
		}

		if err := s.invoiceRepo.LockSequence(ctx, tx); err != nil {
			return fmt.Errorf("failed to lock invoice sequence: %w", err)
		}
		latest, err := s.invoiceRepo.LatestNumber(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to read latest invoice number: %w", err)
		}
		number, err := models.NextInvoiceNumber(latest)
		if err != nil {
			return err
		}

		invoice := &models.Invoice{
			OrderID:        order.ID,
			Number:         number,
			BillingName:    name,
			TaxID:          utils.TrimPtr(req.TaxID),
			BillingAddress: utils.TrimPtr(req.BillingAddress),
			BillingEmail:   utils.TrimPtr(req.BillingEmail),
			BillingPhone:   utils.TrimPtr(req.BillingPhone),
			Subtotal:       order.Subtotal,
			Tax:            order.Tax,
			Total:          order.Total,
			Status:         models.InvoiceStatusIssued,
			Notes:          utils.TrimPtr(req.Notes),
		}
		if invoiceID, err = s.invoiceRepo.CreateInvoice(ctx, tx, invoice); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: number %s already taken", ErrInvoiceValidation, number)
			}
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		if err := s.orderRepo.SetBillingStatus(ctx, tx, order.ID, models.BillingInvoiced); err != nil {
			return fmt.Errorf("failed to mark order invoiced: %w", err)
		}
		utils.LogInfo("Invoice issued", map[string]interface{}{"invoice_id": invoiceID, "number": number, "order_id": order.ID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, invoiceID)
}

// GetInvoice returns the invoice with its order and order lines.
func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	order, err := s.orderRepo.GetOrderByID(ctx, invoice.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return invoice, nil
		}
		return nil, fmt.Errorf("failed to get invoiced order: %w", err)
	}
	if order.Lines, err = s.orderRepo.GetOrderLines(ctx, s.db, order.ID); err != nil {
		return nil, fmt.Errorf("failed to get invoiced order lines: %w", err)
	}
	invoice.Order = order
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidInvoiceStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: invalid status filter %q", ErrInvoiceValidation, *filters.Status)
	}
	filters.Page, filters.PageSize = NormalizePage(filters.Page, filters.PageSize)
	invoices, total, err := s.invoiceRepo.ListInvoices(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

func (s *invoiceService) lockInvoice(ctx context.Context, tx *sql.Tx, id int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return invoice, nil
}

// VoidInvoice voids the invoice and releases its order for re-invoicing. Voiding
// an already void invoice succeeds without touching the order, which may carry a
// newer invoice by then.
func (s *invoiceService) VoidInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		invoice, err := s.lockInvoice(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice.Status == models.InvoiceStatusVoid {
			return nil
		}
		if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, tx, id, models.InvoiceStatusVoid); err != nil {
			return fmt.Errorf("failed to void invoice: %w", err)
		}
		if err := s.orderRepo.SetBillingStatus(ctx, tx, invoice.OrderID, models.BillingNotInvoiced); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to release invoiced order: %w", err)
		}
		utils.LogInfo("Invoice voided", map[string]interface{}{"invoice_id": id, "order_id": invoice.OrderID})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}

// MarkInvoicePaid moves an issued invoice to paid.
func (s *invoiceService) MarkInvoicePaid(ctx context.Context, id int64) (*models.Invoice, error) {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		invoice, err := s.lockInvoice(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice.Status != models.InvoiceStatusIssued {
			return fmt.Errorf("%w: invoice is %s", ErrInvalidInvoiceTransition, invoice.Status)
		}
		if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, tx, id, models.InvoiceStatusPaid); err != nil {
			return fmt.Errorf("failed to mark invoice paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, id)
}
