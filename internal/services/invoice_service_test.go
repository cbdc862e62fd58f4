package services

import (
	"context"
	"testing"

	"cafe_backoffice/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedOrder(id int64) models.Order {
	return models.Order{
		ID: id, CustomerID: int64Ptr(7), Status: models.OrderStatusCompleted, PaymentMethod: models.PaymentCash,
		TaxRate: dec("0.15"), Subtotal: dec("10.00"), Tax: dec("1.50"), Total: dec("11.50"),
		BillingStatus: models.BillingNotInvoiced,
		Lines:         []models.OrderLine{{ID: 1, OrderID: id, ProductID: 1, Quantity: 4, UnitPrice: dec("2.50"), Subtotal: dec("10.00")}},
	}
}

func newTestInvoiceService(t *testing.T, invoices *fakeInvoiceRepo, orders *fakeOrderRepo) (InvoiceService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return NewInvoiceService(invoices, orders, db), mock
}

func TestCreateInvoice_FirstNumber(t *testing.T) {
	invoices := newFakeInvoiceRepo()
	orders := newFakeOrderRepo(completedOrder(5))
	svc, mock := newTestInvoiceService(t, invoices, orders)
	mock.ExpectBegin()
	mock.ExpectCommit()

	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{OrderID: 5, BillingName: "  Ana Pérez "})
	require.NoError(t, err)

	assert.Equal(t, "F-000001", invoice.Number)
	assert.Equal(t, "Ana Pérez", invoice.BillingName)
	assert.Equal(t, models.InvoiceStatusIssued, invoice.Status)
	assert.True(t, dec("11.50").Equal(invoice.Total))
	require.NotNil(t, invoice.Order)
	assert.Len(t, invoice.Order.Lines, 1)
	assert.Equal(t, models.BillingInvoiced, orders.orders[5].BillingStatus)
	assert.Equal(t, 1, invoices.lockedTimes)
}

func TestCreateInvoice_IncrementsLatestNumber(t *testing.T) {
	invoices := newFakeInvoiceRepo(
		models.Invoice{ID: 1, OrderID: 1, Number: "F-000009", Status: models.InvoiceStatusPaid},
		models.Invoice{ID: 2, OrderID: 2, Number: "F-000042", Status: models.InvoiceStatusVoid},
	)
	svc, mock := newTestInvoiceService(t, invoices, newFakeOrderRepo(completedOrder(5)))
	mock.ExpectBegin()
	mock.ExpectCommit()

	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{OrderID: 5, BillingName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "F-000043", invoice.Number)
}

func TestCreateInvoice_Guards(t *testing.T) {
	cancelled := completedOrder(5)
	cancelled.Status = models.OrderStatusCancelled
	invoiced := completedOrder(5)
	invoiced.BillingStatus = models.BillingInvoiced

	tests := []struct {
		name    string
		orders  *fakeOrderRepo
		wantErr error
	}{
		{"missing order", newFakeOrderRepo(), ErrOrderNotFound},
		{"cancelled order", newFakeOrderRepo(cancelled), ErrOrderCancelled},
		{"already invoiced", newFakeOrderRepo(invoiced), ErrOrderAlreadyInvoiced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices := newFakeInvoiceRepo()
			svc, mock := newTestInvoiceService(t, invoices, tt.orders)
			mock.ExpectBegin()
			mock.ExpectRollback()

			_, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{OrderID: 5, BillingName: "Ana"})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, invoices.invoices)
		})
	}
}

func TestCreateInvoice_RequiresBillingName(t *testing.T) {
	svc, _ := newTestInvoiceService(t, newFakeInvoiceRepo(), newFakeOrderRepo(completedOrder(5)))
	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{OrderID: 5, BillingName: "   "})
	assert.ErrorIs(t, err, ErrInvoiceValidation)
}

func TestVoidInvoice_ReleasesOrderAndIsRepeatable(t *testing.T) {
	order := completedOrder(5)
	order.BillingStatus = models.BillingInvoiced
	orders := newFakeOrderRepo(order)
	invoices := newFakeInvoiceRepo(models.Invoice{ID: 1, OrderID: 5, Number: "F-000001", Status: models.InvoiceStatusIssued})
	svc, mock := newTestInvoiceService(t, invoices, orders)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	voided, err := svc.VoidInvoice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusVoid, voided.Status)
	assert.Equal(t, models.BillingNotInvoiced, orders.orders[5].BillingStatus)
	assert.Equal(t, models.OrderStatusCompleted, orders.orders[5].Status)

	again, err := svc.VoidInvoice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusVoid, again.Status)
	assert.Equal(t, models.BillingNotInvoiced, orders.orders[5].BillingStatus)
}

func TestVoidInvoice_RepeatVoidKeepsReplacementInvoice(t *testing.T) {
	orders := newFakeOrderRepo(completedOrder(5))
	invoices := newFakeInvoiceRepo()
	svc, mock := newTestInvoiceService(t, invoices, orders)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	mock.ExpectBegin()
	mock.ExpectRollback()
	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, CreateInvoiceRequest{OrderID: 5, BillingName: "Ana"})
	require.NoError(t, err)
	_, err = svc.VoidInvoice(ctx, first.ID)
	require.NoError(t, err)

	second, err := svc.CreateInvoice(ctx, CreateInvoiceRequest{OrderID: 5, BillingName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "F-000002", second.Number)

	again, err := svc.VoidInvoice(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusVoid, again.Status)
	assert.Equal(t, models.InvoiceStatusIssued, invoices.invoices[second.ID].Status)
	assert.Equal(t, models.BillingInvoiced, orders.orders[5].BillingStatus)

	_, err = svc.CreateInvoice(ctx, CreateInvoiceRequest{OrderID: 5, BillingName: "Ana"})
	assert.ErrorIs(t, err, ErrOrderAlreadyInvoiced)
	assert.Len(t, invoices.invoices, 2)
}

func TestMarkInvoicePaid(t *testing.T) {
	t.Run("issued becomes paid", func(t *testing.T) {
		invoices := newFakeInvoiceRepo(models.Invoice{ID: 1, OrderID: 5, Number: "F-000001", Status: models.InvoiceStatusIssued})
		svc, mock := newTestInvoiceService(t, invoices, newFakeOrderRepo(completedOrder(5)))
		mock.ExpectBegin()
		mock.ExpectCommit()

		paid, err := svc.MarkInvoicePaid(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, models.InvoiceStatusPaid, paid.Status)
	})

	t.Run("void cannot be paid", func(t *testing.T) {
		invoices := newFakeInvoiceRepo(models.Invoice{ID: 1, OrderID: 5, Number: "F-000001", Status: models.InvoiceStatusVoid})
		svc, mock := newTestInvoiceService(t, invoices, newFakeOrderRepo(completedOrder(5)))
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.MarkInvoicePaid(context.Background(), 1)
		assert.ErrorIs(t, err, ErrInvalidInvoiceTransition)
		assert.Equal(t, models.InvoiceStatusVoid, invoices.invoices[1].Status)
	})
}

func TestListInvoices_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestInvoiceService(t, newFakeInvoiceRepo(), newFakeOrderRepo())
	_, _, err := svc.ListInvoices(context.Background(), models.InvoiceFilters{Status: strPtr("lost")})
	assert.ErrorIs(t, err, ErrInvoiceValidation)
}
