// internal/common/metrics/ledger.go
package metrics

import (
	"math"
	"sync"
	"time"
)

// Timer labels.
const (
	StageCandidates = "llm_candidates"
	StageVerify     = "verify_pois"
	StageRoute      = "route_days"
	StageBudget     = "budget_hotels"
	StageHotelsHTTP = "hotels_http"
	StageBooking    = "booking_http"
)

// Counter names.
const (
	CountProviderSuccess = "llm_provider_success"
	CountProviderFailure = "llm_provider_failure"
	CountVerifySkipped   = "verify_skipped"
	CountRoutingFailures = "routing_failures"
	CountCacheHits       = "cache_hits"
	CountCacheMisses     = "cache_misses"
	CountPlans           = "plans_total"
)

// Price is USD per 1K tokens.
type Price struct {
	Input  float64
	Output float64
}

var fallbackPrice = Price{Input: 0.1, Output: 0.1}

// Ledger accumulates stage timings, event counts and estimated generative
// spend for the process. Every update is mirrored to Prometheus.
type Ledger struct {
	mu          sync.Mutex
	timings     map[string]float64
	counts      map[string]int64
	costTotal   float64
	costByModel map[string]float64
	prices      map[string]Price
}

// Snapshot is the JSON view served on /metrics/planner.
type Snapshot struct {
	TimingsTotalSeconds map[string]float64 `json:"timings_total_seconds"`
	Counters            map[string]int64   `json:"counters"`
	LLMTotalCostUSD     float64            `json:"llm_total_cost_usd"`
	LLMCostByModel      map[string]float64 `json:"llm_cost_by_model"`
}

// NewLedger builds a ledger. prices is keyed by "provider:model"; unknown
// models are charged 0.1/0.1.
func NewLedger(prices map[string]Price) *Ledger {
	p := make(map[string]Price, len(prices))
	for k, v := range prices {
		p[k] = v
	}
	return &Ledger{
		timings:     make(map[string]float64),
		counts:      make(map[string]int64),
		costByModel: make(map[string]float64),
		prices:      p,
	}
}

// Timer starts timing label; call the returned func to record the elapsed
// time. The duration is recorded even when the timed code fails.
func (l *Ledger) Timer(label string) func() {
	start := time.Now()
	return func() {
		l.ObserveDuration(label, time.Since(start))
	}
}

func (l *Ledger) ObserveDuration(label string, d time.Duration) {
	if l == nil {
		return
	}
	PlannerStageDuration.WithLabelValues(label).Observe(d.Seconds())

	l.mu.Lock()
	l.timings[label] += d.Seconds()
	l.mu.Unlock()
}

func (l *Ledger) Inc(name string) {
	l.Add(name, 1)
}

func (l *Ledger) Add(name string, delta int64) {
	if l == nil {
		return
	}
	PlannerEvents.WithLabelValues(name).Add(float64(delta))

	l.mu.Lock()
	l.counts[name] += delta
	l.mu.Unlock()
}

// AddLLMCost estimates the cost of one generative call, approximating four
// characters per token, and returns the USD amount added.
func (l *Ledger) AddLLMCost(provider, model string, promptChars, outputChars int) float64 {
	if l == nil {
		return 0
	}
	key := provider + ":" + model

	l.mu.Lock()
	price, ok := l.prices[key]
	if !ok {
		price = fallbackPrice
	}
	usd := (float64(promptChars)/4.0/1000.0)*price.Input + (float64(outputChars)/4.0/1000.0)*price.Output
	l.costTotal += usd
	l.costByModel[key] += usd
	l.mu.Unlock()

	PlannerLLMCost.WithLabelValues(provider, model).Add(usd)
	return usd
}

// Count returns the current value of a counter.
func (l *Ledger) Count(name string) int64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[name]
}

func (l *Ledger) Snapshot() Snapshot {
	if l == nil {
		return Snapshot{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Snapshot{
		TimingsTotalSeconds: make(map[string]float64, len(l.timings)),
		Counters:            make(map[string]int64, len(l.counts)),
		LLMTotalCostUSD:     round4(l.costTotal),
		LLMCostByModel:      make(map[string]float64, len(l.costByModel)),
	}
	for k, v := range l.timings {
		s.TimingsTotalSeconds[k] = v
	}
	for k, v := range l.counts {
		s.Counters[k] = v
	}
	for k, v := range l.costByModel {
		s.LLMCostByModel[k] = round4(v)
	}
	return s
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
