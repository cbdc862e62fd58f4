package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrSettingNotFound   = errors.New("setting not found")
	ErrSettingValidation = errors.New("setting validation error")
	ErrInvalidTaxRate    = errors.New("tax rate must be between 0 (inclusive) and 1 (exclusive)")
)

var settingKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_.]{1,79}$`)

type UpsertSettingRequest struct {
	Key         string  `json:"key" binding:"required"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

// SettingService manages key/value back-office settings.
type SettingService interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error)
	DeleteSetting(ctx context.Context, key string) error
	DefaultTaxRate(ctx context.Context) decimal.Decimal
}

type settingService struct {
	settingRepo repositories.SettingRepository
	db          *sql.DB
	fallbackTax decimal.Decimal
}

// NewSettingService creates a new instance of SettingService. fallbackTax is used
// when the default_tax_rate setting is missing or unreadable.
func NewSettingService(repo repositories.SettingRepository, db *sql.DB, fallbackTax decimal.Decimal) SettingService {
	return &settingService{settingRepo: repo, db: db, fallbackTax: fallbackTax}
}

// ValidateTaxRate accepts rates in [0, 1).
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrInvalidTaxRate, rate)
	}
	return nil
}

func (s *settingService) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.settingRepo.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

func (s *settingService) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.settingRepo.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return setting, nil
}

func (s *settingService) UpsertSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error) {
	key := strings.TrimSpace(req.Key)
	if !settingKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("%w: key %q must be lowercase letters, digits, '_' or '.'", ErrSettingValidation, key)
	}
	value := strings.TrimSpace(req.Value)
	if key == models.SettingDefaultTaxRate {
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a decimal number", ErrSettingValidation, key)
		}
		if err := ValidateTaxRate(rate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSettingValidation, err)
		}
	}

	setting := &models.Setting{Key: key, Value: value, Description: utils.TrimPtr(req.Description)}
	if err := s.settingRepo.UpsertSetting(ctx, s.db, setting); err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}
	return setting, nil
}

func (s *settingService) DeleteSetting(ctx context.Context, key string) error {
	if err := s.settingRepo.DeleteSetting(ctx, s.db, key); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSettingNotFound
		}
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}

// DefaultTaxRate reads default_tax_rate, falling back to the configured rate.
func (s *settingService) DefaultTaxRate(ctx context.Context) decimal.Decimal {
	setting, err := s.settingRepo.GetSetting(ctx, models.SettingDefaultTaxRate)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			utils.LogWarn(err, "Failed to read default tax rate, using configured fallback")
		}
		return s.fallbackTax
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(setting.Value))
	if err != nil || ValidateTaxRate(rate) != nil {
		utils.LogWarn(err, "Stored default tax rate is invalid, using configured fallback",
			map[string]interface{}{"value": setting.Value})
		return s.fallbackTax
	}
	return rate
}
