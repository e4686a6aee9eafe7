// Package budget attaches lodging and per-day cost estimates to an itinerary.
package budget

import (
	"context"
	"fmt"

	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
	"travel-planner/internal/providers/hotels"
)

// Rooms is fixed for every estimate.
const Rooms = 1

// LodgingCurrency is the currency the pricing provider quotes in.
const LodgingCurrency = "USD"

// Pricing quotes a nightly lodging rate. Absence of a price is an error
// tagged PRICING_UNCONFIGURED or PRICING_PROVIDER_FAILED.
type Pricing interface {
	NightlyPrice(ctx context.Context, city, checkin string, nights, rooms int) (float64, error)
}

// Rates are the per-day heuristic figures.
type Rates struct {
	Food      float64
	Transport float64
	Tickets   float64
	Misc      float64
}

func RatesFromConfig(cfg config.PlannerConfig) Rates {
	return Rates{
		Food:      cfg.FoodPerDay,
		Transport: cfg.TransportPerDay,
		Tickets:   cfg.TicketsPerDay,
		Misc:      cfg.MiscPerDay,
	}
}

type Estimator struct {
	pricing Pricing
	rates   Rates
	ledger  *metrics.Ledger
	log     logger.Logger
}

func NewEstimator(pricing Pricing, rates Rates, ledger *metrics.Ledger, log logger.Logger) *Estimator {
	return &Estimator{
		pricing: pricing,
		rates:   rates,
		ledger:  ledger,
		log:     log.WithFields(map[string]interface{}{"component": "budget"}),
	}
}

// Estimate fills Totals, GrandTotal and Explanation on it and appends a
// summary note. It never fails: a missing provider price falls back to the
// city-tier heuristic and the reason is kept in the explanation.
func (e *Estimator) Estimate(ctx context.Context, it *models.Itinerary) {
	defer e.ledger.Timer(metrics.StageBudget)()

	days := it.Trip.Days
	nights := models.Nights(days)
	currency := it.Trip.Currency

	lodging := e.lodging(ctx, it.Trip.City, it.Trip.StartDate, nights)
	lodgingTotal := models.Round2(lodging.UnitRate * float64(nights) * Rooms)

	perDay := func(rate float64) models.ComponentExplanation {
		return models.ComponentExplanation{
			Source:   models.CostSourceHeuristic,
			UnitRate: rate,
			Unit:     "day",
			Quantity: days,
			Currency: currency,
		}
	}
	expl := &models.BudgetExplanation{
		Lodging:   lodging,
		Food:      perDay(e.rates.Food),
		Transport: perDay(e.rates.Transport),
		Tickets:   perDay(e.rates.Tickets),
		Misc:      perDay(e.rates.Misc),
		Nights:    nights,
		Rooms:     Rooms,
	}

	it.SetTotals(models.Totals{
		Lodging:   lodgingTotal,
		Food:      PerDay(e.rates.Food, days),
		Transport: PerDay(e.rates.Transport, days),
		Tickets:   PerDay(e.rates.Tickets, days),
		Misc:      PerDay(e.rates.Misc, days),
		Currency:  currency,
	})
	it.Explanation = expl
	it.AddNote(fmt.Sprintf(
		"Lodging %s: %.2f %s/night x %d night(s). Daily heuristics: food %.2f, transport %.2f, tickets %.2f, misc %.2f %s.",
		lodging.Source, lodging.UnitRate, lodging.Currency, nights,
		e.rates.Food, e.rates.Transport, e.rates.Tickets, e.rates.Misc, currency,
	))

	e.log.Info("budget estimated", map[string]interface{}{
		"city":          it.Trip.City,
		"lodgingSource": lodging.Source,
		"grandTotal":    it.GrandTotal,
	})
}

func (e *Estimator) lodging(ctx context.Context, city, checkin string, nights int) models.ComponentExplanation {
	expl := models.ComponentExplanation{
		Unit:     "night",
		Quantity: nights,
		Currency: LodgingCurrency,
	}

	var (
		nightly float64
		err     error
	)
	if e.pricing == nil {
		err = apperrors.NewPricingUnconfiguredError()
	} else {
		nightly, err = e.pricing.NightlyPrice(ctx, city, checkin, nights, Rooms)
	}
	if err == nil && nightly > 0 {
		expl.Source = models.CostSourceProvider
		expl.UnitRate = models.Round2(nightly)
		return expl
	}
	if err == nil {
		err = apperrors.NewPricingProviderFailedError(fmt.Errorf("non-positive price %v", nightly))
	}

	code := apperrors.CodeOf(err)
	if code != apperrors.ErrCodePricingUnconfigured {
		e.log.Warn("pricing provider failed, using heuristic", map[string]interface{}{
			"city":  city,
			"error": err.Error(),
		})
	}
	expl.Source = models.CostSourceHeuristic
	expl.UnitRate = hotels.HeuristicNightly(city)
	expl.Reason = string(code)
	return expl
}

// PerDay is rate*days rounded to cents.
func PerDay(rate float64, days int) float64 {
	return models.Round2(rate * float64(days))
}
