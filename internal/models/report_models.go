package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Report types.
const (
	ReportSales      = "sales"
	ReportProducts   = "products"
	ReportCustomers  = "customers"
	ReportCategories = "categories"
)

// Report periods.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// DateLayout is the date format accepted by report endpoints.
const DateLayout = "2006-01-02"

var ErrInvalidPeriod = errors.New("invalid report period")

// ReportWindow is the half-open interval [Start, End).
type ReportWindow struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w ReportWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowFor computes the reporting window anchored on ref. Weeks start on Monday.
func WindowFor(period string, ref time.Time) (ReportWindow, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	var start, end time.Time
	switch period {
	case PeriodDay:
		start = day
		end = start.AddDate(0, 0, 1)
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		end = start.AddDate(0, 1, 0)
	case PeriodYear:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		end = start.AddDate(1, 0, 0)
	default:
		return ReportWindow{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return ReportWindow{Period: period, Start: start, End: end}, nil
}

// IsValidReportType checks if the provided string is a known report type.
func IsValidReportType(reportType string) bool {
	switch reportType {
	case ReportSales, ReportProducts, ReportCustomers, ReportCategories:
		return true
	default:
		return false
	}
}

// CompletedOrderRow is a completed order as read by the reporting queries.
type CompletedOrderRow struct {
	OrderID      int64
	CustomerID   *int64
	CustomerName *string
	Total        decimal.Decimal
	PointsEarned int
	CreatedAt    time.Time
}

// CompletedLineRow is one line of a completed order with its product and category.
type CompletedLineRow struct {
	OrderID      int64
	ProductID    int64
	ProductName  string
	CategoryID   int64
	CategoryName string
	Quantity     int
	Subtotal     decimal.Decimal
}

// DailySales is the sales total for one calendar day.
type DailySales struct {
	Date   string          `json:"date"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// ProductSales aggregates quantity and revenue per product.
type ProductSales struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// CustomerSales aggregates visits and spend per customer.
type CustomerSales struct {
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Visits       int             `json:"visits"`
	Total        decimal.Decimal `json:"total"`
}

// CategorySales aggregates revenue per category.
type CategorySales struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Quantity     int             `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
}

// Report is the response of a single report request. Only the slice matching Type is set.
type Report struct {
	Type       string          `json:"type"`
	Window     ReportWindow    `json:"window"`
	Sales      []DailySales    `json:"sales,omitempty"`
	Products   []ProductSales  `json:"products,omitempty"`
	Customers  []CustomerSales `json:"customers,omitempty"`
	Categories []CategorySales `json:"categories,omitempty"`
}

// DashboardSummary holds the KPIs and top entries for the dashboard.
type DashboardSummary struct {
	Window             ReportWindow    `json:"window"`
	TotalSales         decimal.Decimal `json:"total_sales"`
	CompletedOrders    int             `json:"completed_orders"`
	AverageTicket      decimal.Decimal `json:"average_ticket"`
	PointsIssued       int             `json:"points_issued"`
	PendingOrdersCount int             `json:"pending_orders_count"`
	PreparingCount     int             `json:"preparing_orders_count"`
	TopProducts        []ProductSales  `json:"top_products"`
	TopCustomers       []CustomerSales `json:"top_customers"`
	TopCategories      []CategorySales `json:"top_categories"`
}
