// Package planner assembles the itinerary pipeline from configuration.
package planner

import (
	"travel-planner/internal/common/cache"
	"travel-planner/internal/common/config"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/common/observability"
	"travel-planner/internal/planner/budget"
	"travel-planner/internal/planner/candidates"
	"travel-planner/internal/planner/dayrouter"
	"travel-planner/internal/planner/orchestrator"
	"travel-planner/internal/planner/verifier"
	"travel-planner/internal/providers/contextsource"
	"travel-planner/internal/providers/hotels"
	"travel-planner/internal/providers/llm"
	"travel-planner/internal/providers/maps"
)

// Infra is what the process builds once and shares across requests.
type Infra struct {
	Cache   cache.Store
	Context contextsource.Source
	Obs     *observability.Observability
}

// Services are the long-lived pipeline objects used by the job workers and
// the metrics endpoint.
type Services struct {
	Planner *orchestrator.Orchestrator
	Hotels  *hotels.Client
	Ledger  *metrics.Ledger
}

// LedgerPrices converts the configured cost table.
func LedgerPrices(table map[string]config.ModelPrice) map[string]metrics.Price {
	out := make(map[string]metrics.Price, len(table))
	for k, v := range table {
		out[k] = metrics.Price{Input: v.Input, Output: v.Output}
	}
	return out
}

func Build(cfg *config.Config, infra Infra, log logger.Logger) *Services {
	ledger := metrics.NewLedger(LedgerPrices(cfg.Cost.Table))
	store := infra.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}

	mapsClient := maps.NewClient(cfg.Maps.APIKey, cfg.Maps.BaseURL, config.GetDuration(cfg.Maps.Timeout))
	hotelsClient := hotels.NewClient(
		cfg.Hotels,
		store,
		config.GetSeconds(cfg.Cache.PricingTTL),
		config.GetSeconds(cfg.Cache.BookingTTL),
		ledger,
		log,
	)

	router := candidates.NewRouter(llm.NewRegistry(cfg.LLM, log), candidates.Config{
		MaxAttempts: cfg.LLM.MaxAttempts,
		BackoffBase: config.GetDuration(cfg.LLM.BackoffBaseMs),
		BackoffCap:  config.GetDuration(cfg.LLM.BackoffCapMs),
		CallTimeout: config.GetDuration(cfg.LLM.Timeout),
	}, ledger, log)

	orch := orchestrator.New(orchestrator.Deps{
		Context:    infra.Context,
		Candidates: router,
		Verifier:   verifier.New(mapsClient, cfg.Planner.MinRating, ledger, log),
		Routes:     dayrouter.New(mapsClient, ledger, log),
		Budget:     budget.NewEstimator(hotelsClient, budget.RatesFromConfig(cfg.Planner), ledger, log),
		Obs:        infra.Obs,
		Ledger:     ledger,
	}, orchestrator.Options{
		MinRating:       cfg.Planner.MinRating,
		DefaultCurrency: cfg.Planner.DefaultCurrency,
		DefaultSlot:     cfg.Planner.DefaultSlot,
		ParallelRouting: cfg.Planner.ParallelRouting,
	}, log)

	log.Info("planner assembled", map[string]interface{}{
		"llmOrder":       cfg.LLM.Order,
		"mapsConfigured": mapsClient.Configured(),
		"pricing":        hotelsClient.PricingConfigured(),
		"minRating":      cfg.Planner.MinRating,
	})

	return &Services{Planner: orch, Hotels: hotelsClient, Ledger: ledger}
}
