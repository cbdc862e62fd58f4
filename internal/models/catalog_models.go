package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product availability states. Whether a product is listed at all is IsActive.
const (
	ProductStatusAvailable    = "available"
	ProductStatusOutOfStock   = "out_of_stock"
	ProductStatusDiscontinued = "discontinued"
)

// Category groups products on the menu.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a sellable menu item.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	CategoryID    int64           `json:"category_id" db:"category_id"`
	Name          string          `json:"name" db:"name"`
	Description   *string         `json:"description,omitempty" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Cost          decimal.Decimal `json:"cost" db:"cost"`
	ImageURL      *string         `json:"image_url,omitempty" db:"image_url"`
	PointsAwarded int             `json:"points_awarded" db:"points_awarded"`
	Status        string          `json:"status" db:"status"`
	Featured      bool            `json:"featured" db:"featured"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Category      *Category       `json:"category,omitempty"`
}

// IsSellable reports whether the product can be put on a new order.
func (p *Product) IsSellable() bool {
	return p.IsActive && p.Status == ProductStatusAvailable
}

// ProductFilters defines the available filters for listing products.
type ProductFilters struct {
	CategoryID      *int64
	Status          *string
	Featured        *bool
	Search          *string
	IncludeInactive bool
	Page            int
	PageSize        int
}

// IsValidProductStatus checks if the provided status string is a known product status.
func IsValidProductStatus(status string) bool {
	switch status {
	case ProductStatusAvailable, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	default:
		return false
	}
}
