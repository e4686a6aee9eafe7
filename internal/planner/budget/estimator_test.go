package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
)

type fakePricing struct {
	price float64
	err   error
	calls int
	last  []interface{}
}

func (f *fakePricing) NightlyPrice(_ context.Context, city, checkin string, nights, rooms int) (float64, error) {
	f.calls++
	f.last = []interface{}{city, checkin, nights, rooms}
	return f.price, f.err
}

var defaultRates = Rates{Food: 35, Transport: 20, Tickets: 25, Misc: 15}

func itinerary(t *testing.T, city string, days int) *models.Itinerary {
	t.Helper()
	it, err := models.NewItinerary(models.TripRequest{City: city, Days: days, StartDate: "2025-06-01", Currency: "EUR"})
	require.NoError(t, err)
	return it
}

func TestEstimate_HeuristicWhenUnconfigured(t *testing.T) {
	pricing := &fakePricing{err: apperrors.NewPricingUnconfiguredError()}
	e := NewEstimator(pricing, defaultRates, metrics.NewLedger(nil), logger.NewTestLogger(t))
	it := itinerary(t, "Lisbon", 3)

	e.Estimate(context.Background(), it)

	assert.Equal(t, 190.0, it.Totals.Lodging)
	assert.Equal(t, 105.0, it.Totals.Food)
	assert.Equal(t, 60.0, it.Totals.Transport)
	assert.Equal(t, 75.0, it.Totals.Tickets)
	assert.Equal(t, 45.0, it.Totals.Misc)
	assert.Equal(t, "EUR", it.Totals.Currency)
	assert.Equal(t, 475.0, it.GrandTotal)

	require.NotNil(t, it.Explanation)
	assert.Equal(t, models.CostSourceHeuristic, it.Explanation.Lodging.Source)
	assert.Equal(t, 95.0, it.Explanation.Lodging.UnitRate)
	assert.Equal(t, "USD", it.Explanation.Lodging.Currency)
	assert.Equal(t, string(apperrors.ErrCodePricingUnconfigured), it.Explanation.Lodging.Reason)
	assert.Equal(t, 2, it.Explanation.Nights)
	assert.Equal(t, 1, it.Explanation.Rooms)
	assert.Equal(t, models.CostSourceHeuristic, it.Explanation.Food.Source)
	assert.Equal(t, 35.0, it.Explanation.Food.UnitRate)

	require.Len(t, it.Notes, 1)
	assert.Contains(t, it.Notes[0], "Lodging heuristic")
	assert.Equal(t, []interface{}{"Lisbon", "2025-06-01", 2, 1}, pricing.last)
}

func TestEstimate_ProviderPrice(t *testing.T) {
	ledger := metrics.NewLedger(nil)
	e := NewEstimator(&fakePricing{price: 120.5}, defaultRates, ledger, logger.NewTestLogger(t))
	it := itinerary(t, "Tokyo", 4)

	e.Estimate(context.Background(), it)

	assert.Equal(t, 361.5, it.Totals.Lodging)
	assert.Equal(t, models.CostSourceProvider, it.Explanation.Lodging.Source)
	assert.Empty(t, it.Explanation.Lodging.Reason)
	assert.Equal(t, 3, it.Explanation.Lodging.Quantity)
	assert.Contains(t, ledger.Snapshot().TimingsTotalSeconds, metrics.StageBudget)
}

func TestEstimate_ProviderRateRoundedToCents(t *testing.T) {
	e := NewEstimator(&fakePricing{price: 120.456}, defaultRates, nil, logger.NewNoOpLogger())
	it := itinerary(t, "Tokyo", 4)

	e.Estimate(context.Background(), it)

	assert.Equal(t, 120.46, it.Explanation.Lodging.UnitRate)
	assert.Equal(t, 361.38, it.Totals.Lodging)
	require.NotEmpty(t, it.Notes)
	assert.Contains(t, it.Notes[len(it.Notes)-1], "120.46 USD/night x 3 night(s)")
}

func TestEstimate_ProviderFailureFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		pricing Pricing
		city    string
		nightly float64
		reason  apperrors.ErrorCode
	}{
		{"provider error", &fakePricing{err: apperrors.NewPricingProviderFailedError(errors.New("503"))}, "Bangkok", 55, apperrors.ErrCodePricingProviderFailed},
		{"zero price", &fakePricing{price: 0}, "Paris", 140, apperrors.ErrCodePricingProviderFailed},
		{"untagged error", &fakePricing{err: errors.New("boom")}, "Quito", 85, apperrors.ErrCodeInternal},
		{"no pricing client", nil, "Berlin", 95, apperrors.ErrCodePricingUnconfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimator(tt.pricing, defaultRates, nil, logger.NewNoOpLogger())
			it := itinerary(t, tt.city, 1)

			e.Estimate(context.Background(), it)

			assert.Equal(t, tt.nightly, it.Totals.Lodging, "one night minimum")
			assert.Equal(t, models.CostSourceHeuristic, it.Explanation.Lodging.Source)
			assert.Equal(t, string(tt.reason), it.Explanation.Lodging.Reason)
		})
	}
}

func TestEstimate_Additivity(t *testing.T) {
	e := NewEstimator(&fakePricing{price: 99.99}, Rates{Food: 33.33, Transport: 12.5, Tickets: 7.77, Misc: 1.01}, nil, logger.NewNoOpLogger())

	for days := 1; days <= 10; days++ {
		it := itinerary(t, "Lima", days)
		e.Estimate(context.Background(), it)

		tot := it.Totals
		assert.InDelta(t, tot.Lodging+tot.Food+tot.Transport+tot.Tickets+tot.Misc, it.GrandTotal, 0.005)
		assert.InDelta(t, 33.33*float64(days), tot.Food, 0.005)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	e := NewEstimator(&fakePricing{price: 80}, defaultRates, nil, logger.NewNoOpLogger())
	a, b := itinerary(t, "Prague", 5), itinerary(t, "Prague", 5)

	e.Estimate(context.Background(), a)
	e.Estimate(context.Background(), b)

	assert.Equal(t, a.Totals, b.Totals)
	assert.Equal(t, a.Explanation, b.Explanation)
	assert.Equal(t, a.Notes, b.Notes)
}
