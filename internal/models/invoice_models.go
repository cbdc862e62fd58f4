package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceStatusIssued = "issued"
	InvoiceStatusVoid   = "void"
	InvoiceStatusPaid   = "paid"
)

// InvoicePrefix precedes the zero-padded sequence in every invoice number.
const InvoicePrefix = "F-"

// ErrMalformedInvoiceNumber is returned when the latest stored number has no numeric suffix.
var ErrMalformedInvoiceNumber = errors.New("malformed invoice number")

// Invoice is a fiscal document issued for one order.
type Invoice struct {
	ID             int64           `json:"id" db:"id"`
	OrderID        int64           `json:"order_id" db:"order_id"`
	Number         string          `json:"number" db:"number"`
	IssuedAt       time.Time       `json:"issued_at" db:"issued_at"`
	BillingName    string          `json:"billing_name" db:"billing_name"`
	TaxID          *string         `json:"tax_id,omitempty" db:"tax_id"`
	BillingAddress *string         `json:"billing_address,omitempty" db:"billing_address"`
	BillingEmail   *string         `json:"billing_email,omitempty" db:"billing_email"`
	BillingPhone   *string         `json:"billing_phone,omitempty" db:"billing_phone"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax            decimal.Decimal `json:"tax" db:"tax"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Status         string          `json:"status" db:"status"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	CustomerName *string `json:"customer_name,omitempty"`
	Order        *Order  `json:"order,omitempty"`
}

// InvoiceFilters defines the available filters for listing invoices.
type InvoiceFilters struct {
	Status   *string
	Page     int
	PageSize int
}

// NextInvoiceNumber returns the number following latest. An empty latest starts the
// sequence at F-000001.
func NextInvoiceNumber(latest string) (string, error) {
	latest = strings.TrimSpace(latest)
	if latest == "" {
		return FormatInvoiceNumber(1), nil
	}
	end := len(latest)
	start := end
	for start > 0 && latest[start-1] >= '0' && latest[start-1] <= '9' {
		start--
	}
	if start == end {
		return "", fmt.Errorf("%w: %q", ErrMalformedInvoiceNumber, latest)
	}
	n, err := strconv.ParseInt(latest[start:end], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrMalformedInvoiceNumber, latest, err)
	}
	return FormatInvoiceNumber(n + 1), nil
}

// FormatInvoiceNumber renders a sequence value as F-NNNNNN.
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("%s%06d", InvoicePrefix, n)
}

// IsValidInvoiceStatus checks if the provided status string is a known invoice status.
func IsValidInvoiceStatus(status string) bool {
	switch status {
	case InvoiceStatusIssued, InvoiceStatusVoid, InvoiceStatusPaid:
		return true
	default:
		return false
	}
}
