package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/common/config"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/providers/contextsource"
)

func TestServer_Health(t *testing.T) {
	srv := httptest.NewServer(newServer(metrics.NewLedger(nil), &readiness{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Ready(t *testing.T) {
	ready := &readiness{}
	ready.add("redis", func(context.Context) error { return nil })
	srv := httptest.NewServer(newServer(metrics.NewLedger(nil), ready))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ready.add("zeebe", func(context.Context) error { return errors.New("unavailable") })
	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"zeebe": "unavailable"}, body.Failed)
}

func TestServer_PlannerSnapshot(t *testing.T) {
	ledger := metrics.NewLedger(map[string]metrics.Price{"openai:gpt-4o-mini": {Input: 0.15, Output: 0.6}})
	ledger.Inc(metrics.CountPlans)
	ledger.AddLLMCost("openai", "gpt-4o-mini", 4000, 4000)

	srv := httptest.NewServer(newServer(ledger, &readiness{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics/planner")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap metrics.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.Counters[metrics.CountPlans])
	assert.InDelta(t, 0.75, snap.LLMTotalCostUSD, 1e-9)
	assert.Contains(t, snap.LLMCostByModel, "openai:gpt-4o-mini")
}

func TestBuildCache_MemoryDefault(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Backend: "memory"}}
	store, closeFn := buildCache(context.Background(), cfg, &readiness{}, logger.NewTestLogger(t))
	defer closeFn()
	assert.NotNil(t, store)
}

func TestBuildContextSource_Disabled(t *testing.T) {
	cfg := &config.Config{Context: config.ContextConfig{Enabled: false, Backend: "elasticsearch"}}
	src, closeFn := buildContextSource(context.Background(), cfg, &readiness{}, logger.NewTestLogger(t))
	defer closeFn()
	assert.Equal(t, contextsource.Noop{}, src)
}
