package models

import "time"

// Loyalty tiers, lowest to highest.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Tier thresholds are inclusive lower bounds.
const (
	SilverThreshold   = 50
	GoldThreshold     = 100
	PlatinumThreshold = 200
)

// Customer is a registered café customer with a loyalty balance.
type Customer struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Surname        *string   `json:"surname,omitempty" db:"surname"`
	Email          *string   `json:"email,omitempty" db:"email"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	Address        *string   `json:"address,omitempty" db:"address"`
	City           *string   `json:"city,omitempty" db:"city"`
	DocumentType   *string   `json:"document_type,omitempty" db:"document_type"`
	DocumentNumber *string   `json:"document_number,omitempty" db:"document_number"`
	LoyaltyPoints  int       `json:"loyalty_points" db:"loyalty_points"`
	LoyaltyTier    string    `json:"loyalty_tier" db:"loyalty_tier"`
	RegisteredAt   time.Time `json:"registered_at" db:"registered_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins name and surname for display.
func (c *Customer) FullName() string {
	if c.Surname == nil || *c.Surname == "" {
		return c.Name
	}
	return c.Name + " " + *c.Surname
}

// CustomerFilters defines the available filters for listing customers.
type CustomerFilters struct {
	Search   *string
	Tier     *string
	Page     int
	PageSize int
}

// TierForPoints derives the loyalty tier from a point balance.
func TierForPoints(points int) string {
	switch {
	case points >= PlatinumThreshold:
		return TierPlatinum
	case points >= GoldThreshold:
		return TierGold
	case points >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// IsValidTier checks if the provided string is a known loyalty tier.
func IsValidTier(tier string) bool {
	switch tier {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	default:
		return false
	}
}
