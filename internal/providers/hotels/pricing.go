// Package hotels prices lodging and builds booking links through a
// RapidAPI-style hotel provider, caching both lookups.
package hotels

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"travel-planner/internal/common/cache"
	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	apphttp "travel-planner/internal/common/http"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
)

type Client struct {
	cfg        config.HotelsConfig
	http       *apphttp.Client
	cache      cache.Store
	pricingTTL time.Duration
	bookingTTL time.Duration
	ledger     *metrics.Ledger
	log        logger.Logger
}

func NewClient(cfg config.HotelsConfig, store cache.Store, pricingTTL, bookingTTL time.Duration, ledger *metrics.Ledger, log logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		http:       apphttp.NewClient(config.GetDuration(cfg.Timeout)),
		cache:      store,
		pricingTTL: pricingTTL,
		bookingTTL: bookingTTL,
		ledger:     ledger,
		log:        log.WithFields(map[string]interface{}{"component": "hotels"}),
	}
}

// PricingConfigured reports whether nightly prices can be requested.
func (c *Client) PricingConfigured() bool {
	return c.cfg.APIKey != "" && c.cfg.APIHost != "" && c.cfg.Endpoint != ""
}

type pricingResponse struct {
	Results []map[string]interface{} `json:"results"`
	Hotels  []map[string]interface{} `json:"hotels"`
}

// NightlyPrice returns a representative nightly rate in USD. Absence of a
// price is reported as PRICING_UNCONFIGURED or PRICING_PROVIDER_FAILED.
// Found prices are cached per (city, checkin, nights, rooms).
func (c *Client) NightlyPrice(ctx context.Context, city, checkin string, nights, rooms int) (float64, error) {
	if !c.PricingConfigured() {
		return 0, apperrors.NewPricingUnconfiguredError()
	}

	key := cache.Key("hotel", city, checkin, strconv.Itoa(nights), strconv.Itoa(rooms))
	var cached float64
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.log.Warn("pricing cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	if found {
		c.ledger.Inc(metrics.CountCacheHits)
		return cached, nil
	}
	c.ledger.Inc(metrics.CountCacheMisses)

	headers := map[string]string{
		"X-RapidAPI-Key":  c.cfg.APIKey,
		"X-RapidAPI-Host": c.cfg.APIHost,
	}
	params := url.Values{
		"city":     {city},
		"checkin":  {checkin},
		"nights":   {strconv.Itoa(nights)},
		"rooms":    {strconv.Itoa(rooms)},
		"adults":   {"2"},
		"currency": {"USD"},
	}

	var resp pricingResponse
	stop := c.ledger.Timer(metrics.StageHotelsHTTP)
	err = c.http.GetJSON(ctx, c.cfg.Endpoint, params, headers, &resp)
	stop()
	if err != nil {
		return 0, apperrors.NewPricingProviderFailedError(err)
	}

	hotels := resp.Results
	if len(hotels) == 0 {
		hotels = resp.Hotels
	}
	nightly, ok := medianPrice(hotels)
	if !ok {
		return 0, apperrors.NewPricingProviderFailedError(errors.New("response carried no numeric prices"))
	}

	if err := c.cache.Set(ctx, key, nightly, c.pricingTTL); err != nil {
		c.log.Warn("pricing cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return nightly, nil
}

// medianPrice picks the upper-middle of the numeric price, rate or
// nightly_price fields.
func medianPrice(hotels []map[string]interface{}) (float64, bool) {
	var prices []float64
	for _, h := range hotels {
		for _, field := range []string{"price", "rate", "nightly_price"} {
			if p, ok := h[field].(float64); ok && p > 0 {
				prices = append(prices, p)
				break
			}
		}
	}
	if len(prices) == 0 {
		return 0, false
	}
	sort.Float64s(prices)
	return prices[len(prices)/2], true
}

// HeuristicNightly is the coarse city-tier rate used when no provider price
// is available.
func HeuristicNightly(city string) float64 {
	c := strings.ToLower(city)
	for _, tier := range heuristicTiers {
		for _, k := range tier.cities {
			if strings.Contains(c, k) {
				return tier.rate
			}
		}
	}
	return defaultNightly
}

const defaultNightly = 85.0

var heuristicTiers = []struct {
	rate   float64
	cities []string
}{
	{140, []string{"tokyo", "london", "new york", "paris", "zurich"}},
	{55, []string{"bangkok", "hanoi", "ho chi minh", "delhi", "manila"}},
	{95, []string{"barcelona", "berlin", "lisbon", "madrid", "prague"}},
}
