package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe_backoffice/internal/config"
	"cafe_backoffice/internal/handlers"
	"cafe_backoffice/pkg/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-secret"

// newEngine mounts handlers without services; the tests below only exercise paths
// that answer before a service is called.
func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Register(engine, Handlers{
		Auth:     handlers.NewAuthHandler(nil),
		Catalog:  handlers.NewCatalogHandler(nil),
		Customer: handlers.NewCustomerHandler(nil),
		Order:    handlers.NewOrderHandler(nil, time.UTC),
		Invoice:  handlers.NewInvoiceHandler(nil),
		Report:   handlers.NewReportHandler(nil, time.UTC),
		Setting:  handlers.NewSettingHandler(nil),
		Storage:  handlers.NewStorageHandler(nil),
	}, testSecret)
	return engine
}

func call(t *testing.T, engine *gin.Engine, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, _, err := utils.GenerateAccessToken(testSecret, time.Hour, 1, "tester", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := call(t, newEngine(), http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestLoginIsPublic(t *testing.T) {
	w := call(t, newEngine(), http.MethodPost, "/api/v1/auth/login", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newEngine()
	for _, path := range []string{"/api/v1/orders", "/api/v1/products", "/api/v1/auth/me", "/api/v1/reports/sales"} {
		w := call(t, engine, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRoleRestrictions(t *testing.T) {
	engine := newEngine()

	cases := []struct {
		method, path, role string
		status             int
	}{
		{http.MethodGet, "/api/v1/orders", "kitchen", http.StatusForbidden},
		{http.MethodPost, "/api/v1/orders/checkout", "kitchen", http.StatusForbidden},
		{http.MethodGet, "/api/v1/products", "kitchen", http.StatusForbidden},
		{http.MethodGet, "/api/v1/settings", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/v1/users", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/v1/storage/buckets", "staff", http.StatusForbidden},
		// admin passes the role check and reaches the unconfigured storage handler
		{http.MethodGet, "/api/v1/storage/buckets", "admin", http.StatusServiceUnavailable},
		// kitchen passes the role check and fails on the request body
		{http.MethodPatch, "/api/v1/orders/5/status", "kitchen", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := call(t, engine, tc.method, tc.path, tc.role, `{}`)
		assert.Equal(t, tc.status, w.Code, "%s %s as %s", tc.method, tc.path, tc.role)
	}
}

func TestSetup_RegistersRoutes(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Setup(engine, Dependencies{
		DB: db,
		Config: &config.Config{
			JWTSecret:      testSecret,
			JWTExpiration:  time.Hour,
			DefaultTaxRate: decimal.RequireFromString("0.15"),
			Location:       time.UTC,
		},
	})

	registered := map[string]bool{}
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /ping",
		"POST /api/v1/auth/login",
		"POST /api/v1/orders/checkout",
		"GET /api/v1/orders/kitchen",
		"PATCH /api/v1/orders/:id/status",
		"POST /api/v1/products/:id/image",
		"GET /api/v1/customers/:id/orders",
		"POST /api/v1/invoices/:id/void",
		"POST /api/v1/invoices/:id/pay",
		"GET /api/v1/reports/:type",
		"GET /api/v1/dashboard/summary",
		"DELETE /api/v1/settings/:key",
		"DELETE /api/v1/storage/buckets/:name",
	} {
		assert.True(t, registered[want], want)
	}
}
