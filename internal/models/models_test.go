package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForPoints(t *testing.T) {
	cases := map[int]string{
		0:   TierBronze,
		49:  TierBronze,
		50:  TierSilver,
		99:  TierSilver,
		100: TierGold,
		199: TierGold,
		200: TierPlatinum,
		950: TierPlatinum,
	}
	for points, want := range cases {
		assert.Equal(t, want, TierForPoints(points), "points=%d", points)
	}
}

func TestComputeTotals_CheckoutScenario(t *testing.T) {
	lines := []OrderLine{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("3.00")},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("4.00")},
	}

	totals := ComputeTotals(lines, decimal.RequireFromString("0.15"))

	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("10.00")), totals.Subtotal.String())
	assert.True(t, totals.Tax.Equal(decimal.RequireFromString("1.50")), totals.Tax.String())
	assert.True(t, totals.Total.Equal(decimal.RequireFromString("11.50")), totals.Total.String())
	assert.Equal(t, 2, totals.PointsEarned)
	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax)))
}

func TestComputeTotals_RoundsTaxToCents(t *testing.T) {
	lines := []OrderLine{{Quantity: 3, UnitPrice: decimal.RequireFromString("1.15")}}

	totals := ComputeTotals(lines, decimal.RequireFromString("0.13"))

	assert.Equal(t, "3.45", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.45", totals.Tax.StringFixed(2))
	assert.Equal(t, "3.9", totals.Total.String())
	assert.Equal(t, 0, totals.PointsEarned)
}

func TestPointsForTotal(t *testing.T) {
	assert.Equal(t, 0, PointsForTotal(decimal.Zero))
	assert.Equal(t, 0, PointsForTotal(decimal.RequireFromString("4.99")))
	assert.Equal(t, 1, PointsForTotal(decimal.RequireFromString("5")))
	assert.Equal(t, 20, PointsForTotal(decimal.RequireFromString("100.01")))
	assert.Equal(t, 0, PointsForTotal(decimal.RequireFromString("-10")))
}

func TestOrderEarnedPoints(t *testing.T) {
	stored := 7
	o := Order{PaymentMethod: PaymentCash, Total: decimal.RequireFromString("11.50"), PointsEarned: &stored}
	assert.Equal(t, 7, o.EarnedPoints())

	o.PointsEarned = nil
	assert.Equal(t, 2, o.EarnedPoints())

	o.PaymentMethod = PaymentPoints
	assert.Equal(t, 0, o.EarnedPoints())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusPreparing))
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCompleted))
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusPreparing, OrderStatusCompleted))
	assert.True(t, CanTransition(OrderStatusPreparing, OrderStatusCancelled))

	assert.False(t, CanTransition(OrderStatusPreparing, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusCompleted, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusPending))
}

func TestNextInvoiceNumber(t *testing.T) {
	next, err := NextInvoiceNumber("")
	require.NoError(t, err)
	assert.Equal(t, "F-000001", next)

	next, err = NextInvoiceNumber("F-000042")
	require.NoError(t, err)
	assert.Equal(t, "F-000043", next)

	next, err = NextInvoiceNumber("F-999999")
	require.NoError(t, err)
	assert.Equal(t, "F-1000000", next)

	_, err = NextInvoiceNumber("F-")
	assert.ErrorIs(t, err, ErrMalformedInvoiceNumber)
}

func TestWindowFor(t *testing.T) {
	// Thursday
	ref := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)

	day, err := WindowFor(PeriodDay, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), day.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), day.End)

	week, err := WindowFor(PeriodWeek, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, week.Start.Weekday())
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), week.Start)
	assert.Equal(t, time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), week.End)

	sunday := time.Date(2024, time.March, 17, 8, 0, 0, 0, time.UTC)
	week, err = WindowFor(PeriodWeek, sunday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), week.Start)

	month, err := WindowFor(PeriodMonth, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), month.Start)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), month.End)

	year, err := WindowFor(PeriodYear, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), year.Start)
	assert.True(t, year.Contains(ref))
	assert.False(t, year.Contains(year.End))

	_, err = WindowFor("fortnight", ref)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
