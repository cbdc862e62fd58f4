package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

var ErrInvalidReportType = errors.New("invalid report type")

// dashboardTop is the number of entries per dimension on the dashboard.
const dashboardTop = 3

// ReportService aggregates completed orders into reports. Nothing is cached.
type ReportService interface {
	Report(ctx context.Context, reportType, period string, ref time.Time) (*models.Report, error)
	DashboardSummary(ctx context.Context, period string, ref time.Time) (*models.DashboardSummary, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	loc        *time.Location
}

// NewReportService creates a new instance of ReportService. Days and windows are
// computed in loc.
func NewReportService(reportRepo repositories.ReportRepository, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &reportService{reportRepo: reportRepo, loc: loc}
}

func (s *reportService) window(period string, ref time.Time) (models.ReportWindow, error) {
	if ref.IsZero() {
		ref = time.Now()
	}
	return models.WindowFor(period, ref.In(s.loc))
}

func (s *reportService) Report(ctx context.Context, reportType, period string, ref time.Time) (*models.Report, error) {
	if !models.IsValidReportType(reportType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReportType, reportType)
	}
	window, err := s.window(period, ref)
	if err != nil {
		return nil, err
	}

	report := &models.Report{Type: reportType, Window: window}
	switch reportType {
	case models.ReportSales, models.ReportCustomers:
		orders, err := s.reportRepo.CompletedOrders(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("failed to load completed orders: %w", err)
		}
		if reportType == models.ReportSales {
			report.Sales = SalesByDay(orders, s.loc)
		} else {
			report.Customers = SalesByCustomer(orders)
		}
	case models.ReportProducts, models.ReportCategories:
		lines, err := s.reportRepo.CompletedLines(ctx, window)
		if err != nil {
			return nil, fmt.Errorf("failed to load completed order lines: %w", err)
		}
		if reportType == models.ReportProducts {
			report.Products = SalesByProduct(lines)
		} else {
			report.Categories = SalesByCategory(lines)
		}
	}
	return report, nil
}

func (s *reportService) DashboardSummary(ctx context.Context, period string, ref time.Time) (*models.DashboardSummary, error) {
	window, err := s.window(period, ref)
	if err != nil {
		return nil, err
	}
	orders, err := s.reportRepo.CompletedOrders(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed orders: %w", err)
	}
	lines, err := s.reportRepo.CompletedLines(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed order lines: %w", err)
	}
	open, err := s.reportRepo.CountOrdersByStatus(ctx, []string{models.OrderStatusPending, models.OrderStatusPreparing})
	if err != nil {
		return nil, fmt.Errorf("failed to count open orders: %w", err)
	}

	summary := &models.DashboardSummary{
		Window:             window,
		TotalSales:         decimal.Zero,
		AverageTicket:      decimal.Zero,
		CompletedOrders:    len(orders),
		PendingOrdersCount: open[models.OrderStatusPending],
		PreparingCount:     open[models.OrderStatusPreparing],
		TopProducts:        topN(SalesByProduct(lines), dashboardTop),
		TopCustomers:       topN(SalesByCustomer(orders), dashboardTop),
		TopCategories:      topN(SalesByCategory(lines), dashboardTop),
	}
	for _, o := range orders {
		summary.TotalSales = summary.TotalSales.Add(o.Total)
		summary.PointsIssued += o.PointsEarned
	}
	if len(orders) > 0 {
		summary.AverageTicket = summary.TotalSales.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}
	return summary, nil
}

func topN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}

// SalesByDay totals completed orders per calendar day in loc, oldest day first.
func SalesByDay(orders []models.CompletedOrderRow, loc *time.Location) []models.DailySales {
	byDay := make(map[string]*models.DailySales)
	for _, o := range orders {
		day := o.CreatedAt.In(loc).Format(models.DateLayout)
		d, ok := byDay[day]
		if !ok {
			d = &models.DailySales{Date: day, Total: decimal.Zero}
			byDay[day] = d
		}
		d.Orders++
		d.Total = d.Total.Add(o.Total)
	}
	out := make([]models.DailySales, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// SalesByProduct sums quantity and revenue per product, highest quantity first.
func SalesByProduct(lines []models.CompletedLineRow) []models.ProductSales {
	byProduct := make(map[int64]*models.ProductSales)
	for _, l := range lines {
		p, ok := byProduct[l.ProductID]
		if !ok {
			p = &models.ProductSales{ProductID: l.ProductID, ProductName: l.ProductName, Revenue: decimal.Zero}
			byProduct[l.ProductID] = p
		}
		p.Quantity += l.Quantity
		p.Revenue = p.Revenue.Add(l.Subtotal)
	}
	out := make([]models.ProductSales, 0, len(byProduct))
	for _, p := range byProduct {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// SalesByCustomer counts visits and spend per identified customer, highest spend
// first. Walk-in orders are skipped.
func SalesByCustomer(orders []models.CompletedOrderRow) []models.CustomerSales {
	byCustomer := make(map[int64]*models.CustomerSales)
	for _, o := range orders {
		if o.CustomerID == nil {
			continue
		}
		c, ok := byCustomer[*o.CustomerID]
		if !ok {
			c = &models.CustomerSales{CustomerID: *o.CustomerID, Total: decimal.Zero}
			if o.CustomerName != nil {
				c.CustomerName = *o.CustomerName
			}
			byCustomer[*o.CustomerID] = c
		}
		c.Visits++
		c.Total = c.Total.Add(o.Total)
	}
	out := make([]models.CustomerSales, 0, len(byCustomer))
	for _, c := range byCustomer {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		if out[i].Visits != out[j].Visits {
			return out[i].Visits > out[j].Visits
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

// SalesByCategory sums revenue per category, highest total first.
func SalesByCategory(lines []models.CompletedLineRow) []models.CategorySales {
	byCategory := make(map[int64]*models.CategorySales)
	for _, l := range lines {
		c, ok := byCategory[l.CategoryID]
		if !ok {
			c = &models.CategorySales{CategoryID: l.CategoryID, CategoryName: l.CategoryName, Total: decimal.Zero}
			byCategory[l.CategoryID] = c
		}
		c.Quantity += l.Quantity
		c.Total = c.Total.Add(l.Subtotal)
	}
	out := make([]models.CategorySales, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}
