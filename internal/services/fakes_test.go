package services

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"testing"
	"time"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// --- customers ---

type fakeCustomerRepo struct {
	customers   map[int64]*models.Customer
	orderCounts map[int64]int
	nextID      int64
}

func newFakeCustomerRepo(customers ...models.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[int64]*models.Customer{}, orderCounts: map[int64]int{}, nextID: 100}
	for i := range customers {
		c := customers[i]
		r.customers[c.ID] = &c
	}
	return r
}

func (r *fakeCustomerRepo) CreateCustomer(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) (int64, error) {
	for _, existing := range r.customers {
		if c.Email != nil && existing.Email != nil && *existing.Email == *c.Email {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.customers[c.ID] = &cp
	return c.ID, nil
}

func (r *fakeCustomerRepo) GetCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) GetCustomerForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Customer, error) {
	return r.GetCustomerByID(ctx, id)
}

func (r *fakeCustomerRepo) ListCustomers(_ context.Context, _ models.CustomerFilters) ([]models.Customer, int, error) {
	out := []models.Customer{}
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *fakeCustomerRepo) UpdateCustomer(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) error {
	existing, ok := r.customers[c.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	points, tier := existing.LoyaltyPoints, existing.LoyaltyTier
	cp := *c
	cp.LoyaltyPoints, cp.LoyaltyTier = points, tier
	r.customers[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) SetLoyalty(_ context.Context, _ repositories.SQLExecutor, id int64, points int, tier string) error {
	c, ok := r.customers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.LoyaltyPoints, c.LoyaltyTier = points, tier
	return nil
}

func (r *fakeCustomerRepo) DebitPoints(_ context.Context, _ repositories.SQLExecutor, id int64, points int, tier string) error {
	c, ok := r.customers[id]
	if !ok || c.LoyaltyPoints < points {
		return repositories.ErrConditionFailed
	}
	c.LoyaltyPoints -= points
	c.LoyaltyTier = tier
	return nil
}

func (r *fakeCustomerRepo) CountOrders(_ context.Context, _ repositories.SQLExecutor, id int64) (int, error) {
	return r.orderCounts[id], nil
}

func (r *fakeCustomerRepo) DeleteCustomer(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

// --- categories ---

type fakeCategoryRepo struct {
	categories    map[int64]*models.Category
	productCounts map[int64]int
	listCalls     int
	nextID        int64
}

func newFakeCategoryRepo(categories ...models.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: map[int64]*models.Category{}, productCounts: map[int64]int{}}
	for i := range categories {
		c := categories[i]
		r.categories[c.ID] = &c
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) (int64, error) {
	for _, existing := range r.categories {
		if existing.Name == c.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.categories[c.ID] = &cp
	return c.ID, nil
}

func (r *fakeCategoryRepo) GetCategoryByID(_ context.Context, id int64) (*models.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) ListCategories(_ context.Context) ([]models.Category, error) {
	r.listCalls++
	out := []models.Category{}
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) error {
	if _, ok := r.categories[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) CountProductsInCategory(_ context.Context, _ repositories.SQLExecutor, id int64) (int, error) {
	return r.productCounts[id], nil
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type fakeCategoryCache struct {
	cached      []models.Category
	hit         bool
	invalidated int
}

func (c *fakeCategoryCache) Get(_ context.Context) ([]models.Category, bool) {
	return c.cached, c.hit
}

func (c *fakeCategoryCache) Set(_ context.Context, categories []models.Category) {
	c.cached, c.hit = categories, true
}

func (c *fakeCategoryCache) Invalidate(_ context.Context) {
	c.cached, c.hit = nil, false
	c.invalidated++
}

// --- products ---

type fakeProductRepo struct {
	products map[int64]*models.Product
	openRefs map[int64]int
	nextID   int64
}

func newFakeProductRepo(products ...models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]*models.Product{}, openRefs: map[int64]int{}}
	for i := range products {
		p := products[i]
		r.products[p.ID] = &p
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
	}
	return r
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, _ repositories.SQLExecutor, p *models.Product) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.products[p.ID] = &cp
	return p.ID, nil
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetProductsByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, _ models.ProductFilters) ([]models.Product, int, error) {
	out := []models.Product{}
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, _ repositories.SQLExecutor, p *models.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateImageURL(_ context.Context, _ repositories.SQLExecutor, id int64, url *string) error {
	p, ok := r.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.ImageURL = url
	return nil
}

func (r *fakeProductRepo) Deactivate(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	p, ok := r.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (r *fakeProductRepo) CountOpenOrderReferences(_ context.Context, _ repositories.SQLExecutor, id int64) (int, error) {
	return r.openRefs[id], nil
}

type fakeImageStore struct {
	uploaded map[string]string
	removed  []string
}

func (s *fakeImageStore) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.uploaded == nil {
		s.uploaded = map[string]string{}
	}
	s.uploaded[key] = string(data)
	return "https://cdn.test/" + key, nil
}

func (s *fakeImageStore) Remove(_ context.Context, url string) (bool, error) {
	s.removed = append(s.removed, url)
	return true, nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders     map[int64]*models.Order
	lines      map[int64][]models.OrderLine
	nextID     int64
	nextLineID int64
	deleteErr  error
}

func newFakeOrderRepo(orders ...models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[int64]*models.Order{}, lines: map[int64][]models.OrderLine{}}
	for i := range orders {
		o := orders[i]
		r.lines[o.ID] = o.Lines
		o.Lines = nil
		r.orders[o.ID] = &o
		if o.ID > r.nextID {
			r.nextID = o.ID
		}
	}
	return r
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, _ repositories.SQLExecutor, o *models.Order) (int64, error) {
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Now()
	cp := *o
	cp.Lines = nil
	r.orders[o.ID] = &cp
	return o.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetOrderForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Order, error) {
	return r.GetOrderByID(ctx, id)
}

func (r *fakeOrderRepo) ListOrders(_ context.Context, f models.OrderFilters) ([]models.Order, int, error) {
	out := []models.Order{}
	for _, o := range r.orders {
		if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *fakeOrderRepo) ListOrdersByStatus(_ context.Context, statuses []string) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range r.orders {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrderRepo) UpdateOrder(_ context.Context, _ repositories.SQLExecutor, o *models.Order) error {
	if _, ok := r.orders[o.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *o
	cp.Lines = nil
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, _ repositories.SQLExecutor, id int64, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) SetBillingStatus(_ context.Context, _ repositories.SQLExecutor, id int64, billing string) error {
	o, ok := r.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.BillingStatus = billing
	return nil
}

func (r *fakeOrderRepo) DeleteOrder(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.orders[id]; !ok {
		return repositories.ErrNotFound
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) CreateOrderLine(_ context.Context, _ repositories.SQLExecutor, l *models.OrderLine) (int64, error) {
	r.nextLineID++
	l.ID = r.nextLineID
	r.lines[l.OrderID] = append(r.lines[l.OrderID], *l)
	return l.ID, nil
}

func (r *fakeOrderRepo) GetOrderLines(_ context.Context, _ repositories.SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	return append([]models.OrderLine{}, r.lines[orderID]...), nil
}

func (r *fakeOrderRepo) GetLinesForOrders(_ context.Context, ids []int64) (map[int64][]models.OrderLine, error) {
	out := make(map[int64][]models.OrderLine, len(ids))
	for _, id := range ids {
		out[id] = append([]models.OrderLine{}, r.lines[id]...)
	}
	return out, nil
}

func (r *fakeOrderRepo) DeleteOrderLines(_ context.Context, _ repositories.SQLExecutor, orderID int64) (int64, error) {
	n := int64(len(r.lines[orderID]))
	delete(r.lines, orderID)
	return n, nil
}

// --- invoices ---

type fakeInvoiceRepo struct {
	invoices    map[int64]*models.Invoice
	lockedTimes int
	nextID      int64
}

func newFakeInvoiceRepo(invoices ...models.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: map[int64]*models.Invoice{}}
	for i := range invoices {
		inv := invoices[i]
		r.invoices[inv.ID] = &inv
		if inv.ID > r.nextID {
			r.nextID = inv.ID
		}
	}
	return r
}

func (r *fakeInvoiceRepo) LockSequence(_ context.Context, _ repositories.SQLExecutor) error {
	r.lockedTimes++
	return nil
}

func (r *fakeInvoiceRepo) LatestNumber(_ context.Context, _ repositories.SQLExecutor) (string, error) {
	latest := ""
	for _, inv := range r.invoices {
		if len(inv.Number) > len(latest) || (len(inv.Number) == len(latest) && inv.Number > latest) {
			latest = inv.Number
		}
	}
	return latest, nil
}

func (r *fakeInvoiceRepo) CreateInvoice(_ context.Context, _ repositories.SQLExecutor, inv *models.Invoice) (int64, error) {
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	inv.ID = r.nextID
	cp := *inv
	r.invoices[inv.ID] = &cp
	return inv.ID, nil
}

func (r *fakeInvoiceRepo) GetInvoiceByID(_ context.Context, id int64) (*models.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInvoiceRepo) GetInvoiceForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Invoice, error) {
	return r.GetInvoiceByID(ctx, id)
}

func (r *fakeInvoiceRepo) ListInvoices(_ context.Context, f models.InvoiceFilters) ([]models.Invoice, int, error) {
	out := []models.Invoice{}
	for _, inv := range r.invoices {
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *fakeInvoiceRepo) UpdateInvoiceStatus(_ context.Context, _ repositories.SQLExecutor, id int64, status string) error {
	inv, ok := r.invoices[id]
	if !ok {
		return repositories.ErrNotFound
	}
	inv.Status = status
	return nil
}

// --- settings ---

type fakeSettingRepo struct {
	settings map[string]models.Setting
	getErr   error
}

func newFakeSettingRepo(settings ...models.Setting) *fakeSettingRepo {
	r := &fakeSettingRepo{settings: map[string]models.Setting{}}
	for _, s := range settings {
		r.settings[s.Key] = s
	}
	return r
}

func (r *fakeSettingRepo) GetSetting(_ context.Context, key string) (*models.Setting, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.settings[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSettingRepo) ListSettings(_ context.Context) ([]models.Setting, error) {
	out := []models.Setting{}
	for _, s := range r.settings {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSettingRepo) UpsertSetting(_ context.Context, _ repositories.SQLExecutor, s *models.Setting) error {
	r.settings[s.Key] = *s
	return nil
}

func (r *fakeSettingRepo) DeleteSetting(_ context.Context, _ repositories.SQLExecutor, key string) error {
	if _, ok := r.settings[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.settings, key)
	return nil
}

type fixedTaxRate decimal.Decimal

func (f fixedTaxRate) DefaultTaxRate(_ context.Context) decimal.Decimal {
	return decimal.Decimal(f)
}
