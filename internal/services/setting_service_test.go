package services

import (
	"context"
	"errors"
	"testing"

	"cafe_backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTaxRate(t *testing.T) {
	for _, ok := range []string{"0", "0.12", "0.15", "0.9999"} {
		assert.NoError(t, ValidateTaxRate(dec(ok)), ok)
	}
	for _, bad := range []string{"-0.01", "1", "1.5"} {
		assert.ErrorIs(t, ValidateTaxRate(dec(bad)), ErrInvalidTaxRate, bad)
	}
}

func TestUpsertSetting_ValidatesTaxRate(t *testing.T) {
	db, _ := newMockDB(t)
	repo := newFakeSettingRepo()
	svc := NewSettingService(repo, db, dec("0.15"))
	ctx := context.Background()

	_, err := svc.UpsertSetting(ctx, UpsertSettingRequest{Key: models.SettingDefaultTaxRate, Value: "1.2"})
	assert.ErrorIs(t, err, ErrSettingValidation)
	_, err = svc.UpsertSetting(ctx, UpsertSettingRequest{Key: models.SettingDefaultTaxRate, Value: "twelve"})
	assert.ErrorIs(t, err, ErrSettingValidation)
	_, err = svc.UpsertSetting(ctx, UpsertSettingRequest{Key: "Bad Key", Value: "x"})
	assert.ErrorIs(t, err, ErrSettingValidation)

	saved, err := svc.UpsertSetting(ctx, UpsertSettingRequest{Key: models.SettingDefaultTaxRate, Value: " 0.12 "})
	require.NoError(t, err)
	assert.Equal(t, "0.12", saved.Value)
	assert.True(t, dec("0.12").Equal(svc.DefaultTaxRate(ctx)))
}

func TestDefaultTaxRate_FallsBack(t *testing.T) {
	db, _ := newMockDB(t)
	ctx := context.Background()

	missing := NewSettingService(newFakeSettingRepo(), db, dec("0.15"))
	assert.True(t, dec("0.15").Equal(missing.DefaultTaxRate(ctx)))

	corrupt := NewSettingService(newFakeSettingRepo(models.Setting{Key: models.SettingDefaultTaxRate, Value: "abc"}), db, dec("0.13"))
	assert.True(t, dec("0.13").Equal(corrupt.DefaultTaxRate(ctx)))

	failing := newFakeSettingRepo()
	failing.getErr = errors.New("connection refused")
	broken := NewSettingService(failing, db, dec("0.12"))
	assert.True(t, dec("0.12").Equal(broken.DefaultTaxRate(ctx)))
}

func TestDeleteSetting_NotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewSettingService(newFakeSettingRepo(), db, dec("0.15"))
	assert.ErrorIs(t, svc.DeleteSetting(context.Background(), "missing"), ErrSettingNotFound)
}
