package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/services"
	"cafe_backoffice/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Code     string          `json:"code"`
	Details  string          `json:"details"`
	Total    *int            `json:"total"`
	Page     *int            `json:"page"`
	PageSize *int            `json:"page_size"`
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func perform(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// --- orders ---

type fakeOrderService struct {
	checkoutReq services.CheckoutRequest
	checkoutErr error
	filters     models.OrderFilters
	status      string
	statusErr   error
	deleteErr   error
}

func (f *fakeOrderService) Checkout(_ context.Context, req services.CheckoutRequest) (*models.Order, error) {
	f.checkoutReq = req
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &models.Order{ID: 77, Status: models.OrderStatusPending, PaymentMethod: req.PaymentMethod,
		Total: decimal.RequireFromString("11.5")}, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	if id != 77 {
		return nil, services.ErrOrderNotFound
	}
	return &models.Order{ID: id, Status: models.OrderStatusPending}, nil
}

func (f *fakeOrderService) ListOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	f.filters = filters
	return []models.Order{{ID: 1}, {ID: 2}}, 42, nil
}

func (f *fakeOrderService) KitchenBoard(context.Context) ([]models.Order, error) {
	return []models.Order{{ID: 3, Status: models.OrderStatusPreparing}}, nil
}

func (f *fakeOrderService) UpdateOrder(_ context.Context, id int64, _ services.UpdateOrderRequest) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (f *fakeOrderService) UpdateOrderStatus(_ context.Context, id int64, status string) (*models.Order, error) {
	f.status = status
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &models.Order{ID: id, Status: status}, nil
}

func (f *fakeOrderService) DeleteOrder(context.Context, int64) error {
	return f.deleteErr
}

// --- catalog ---

type fakeCatalogService struct {
	services.CatalogService
	filters    models.ProductFilters
	upload     services.ImageUpload
	uploadBody string
	uploadErr  error
	deleteErr  error
}

func (f *fakeCatalogService) ListProducts(_ context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	f.filters = filters
	return []models.Product{{ID: 1, Name: "Latte"}}, 1, nil
}

func (f *fakeCatalogService) UploadProductImage(_ context.Context, id int64, upload services.ImageUpload) (*models.Product, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.upload = upload
	body, _ := io.ReadAll(upload.Body)
	f.uploadBody = string(body)
	url := "https://cdn.example/productos/1.png"
	return &models.Product{ID: id, ImageURL: &url}, nil
}

func (f *fakeCatalogService) DeleteCategory(context.Context, int64) error {
	return f.deleteErr
}

// --- reports ---

type fakeReportService struct {
	reportType string
	period     string
	ref        time.Time
}

func (f *fakeReportService) Report(_ context.Context, reportType, period string, ref time.Time) (*models.Report, error) {
	f.reportType, f.period, f.ref = reportType, period, ref
	if !models.IsValidReportType(reportType) {
		return nil, services.ErrInvalidReportType
	}
	window, err := models.WindowFor(period, ref)
	if err != nil {
		return nil, err
	}
	return &models.Report{Type: reportType, Window: window}, nil
}

func (f *fakeReportService) DashboardSummary(_ context.Context, period string, ref time.Time) (*models.DashboardSummary, error) {
	f.period, f.ref = period, ref
	return &models.DashboardSummary{}, nil
}

// --- auth ---

type fakeAuthService struct {
	services.AuthService
	meID int64
}

func (f *fakeAuthService) Login(_ context.Context, creds models.Credentials) (*services.AuthResponse, error) {
	if creds.Password != "correct-horse" {
		return nil, services.ErrInvalidCredentials
	}
	return &services.AuthResponse{User: &models.User{ID: 5, Username: creds.Username}, AccessToken: "tok"}, nil
}

func (f *fakeAuthService) Me(_ context.Context, id int64) (*models.User, error) {
	f.meID = id
	return &models.User{ID: id, Username: "maria", Role: models.RoleStaff}, nil
}

// --- storage ---

type fakeBuckets struct {
	created []string
	deleted []string
}

func (f *fakeBuckets) ListBuckets(context.Context) ([]storage.Bucket, error) {
	return []storage.Bucket{{Name: "productos-imagenes"}}, nil
}

func (f *fakeBuckets) CreateBucket(_ context.Context, name string) error {
	if name == "X" {
		return storage.ErrInvalidBucketName
	}
	f.created = append(f.created, name)
	return nil
}

func (f *fakeBuckets) DeleteBucket(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}
