package services

import (
	"context"
	"errors"
	"fmt"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/internal/repositories"
	"cafe_backoffice/pkg/utils"
)

// loyaltyLedger applies point movements inside the caller's transaction. The tier
// is recomputed from the new balance on every movement.
type loyaltyLedger struct {
	customers repositories.CustomerRepository
}

// Credit adds points to a customer and returns the updated balance and tier.
func (l loyaltyLedger) Credit(ctx context.Context, exec repositories.SQLExecutor, customerID int64, points int) (*models.Customer, error) {
	customer, err := l.customers.GetCustomerForUpdate(ctx, exec, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer for credit: %w", err)
	}
	if points <= 0 {
		return customer, nil
	}

	balance := customer.LoyaltyPoints + points
	tier := models.TierForPoints(balance)
	if err := l.customers.SetLoyalty(ctx, exec, customerID, balance, tier); err != nil {
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}
	utils.LogInfo("Loyalty points credited", map[string]interface{}{
		"customer_id": customerID, "points": points, "balance": balance, "tier": tier,
	})
	customer.LoyaltyPoints, customer.LoyaltyTier = balance, tier
	return customer, nil
}

// Debit removes points from a customer. The balance never goes negative: a
// short balance yields ErrInsufficientPoints and nothing is written.
func (l loyaltyLedger) Debit(ctx context.Context, exec repositories.SQLExecutor, customerID int64, points int) (*models.Customer, error) {
	customer, err := l.customers.GetCustomerForUpdate(ctx, exec, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer for debit: %w", err)
	}
	if customer.LoyaltyPoints < points {
		return nil, fmt.Errorf("%w: balance %d, required %d", ErrInsufficientPoints, customer.LoyaltyPoints, points)
	}

	balance := customer.LoyaltyPoints - points
	tier := models.TierForPoints(balance)
	if err := l.customers.DebitPoints(ctx, exec, customerID, points, tier); err != nil {
		if errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: balance changed during debit", ErrInsufficientPoints)
		}
		return nil, fmt.Errorf("failed to debit points: %w", err)
	}
	utils.LogInfo("Loyalty points debited", map[string]interface{}{
		"customer_id": customerID, "points": points, "balance": balance, "tier": tier,
	})
	customer.LoyaltyPoints, customer.LoyaltyTier = balance, tier
	return customer, nil
}
