package models

import "time"

// SettingDefaultTaxRate is the configuracion key holding the checkout tax rate.
const SettingDefaultTaxRate = "default_tax_rate"

// Setting represents a key-value pair of back-office configuration.
type Setting struct {
	Key         string    `json:"key" db:"key"`
	Value       string    `json:"value" db:"value"`
	Description *string   `json:"description,omitempty" db:"description"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
