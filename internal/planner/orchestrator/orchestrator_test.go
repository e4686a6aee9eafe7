package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/common/cache"
	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
	"travel-planner/internal/planner/budget"
	"travel-planner/internal/planner/candidates"
	"travel-planner/internal/planner/dayrouter"
	"travel-planner/internal/planner/verifier"
	"travel-planner/internal/providers/hotels"
	"travel-planner/internal/providers/llm"
	"travel-planner/internal/providers/maps"
)

type scriptedProvider struct {
	reply string
}

func (p *scriptedProvider) Name() string  { return "openai" }
func (p *scriptedProvider) Model() string { return "gpt-4o-mini" }
func (p *scriptedProvider) Generate(context.Context, string, []byte) (string, error) {
	return p.reply, nil
}

func poiReply(t *testing.T, n int) string {
	t.Helper()
	pois := make([]map[string]string, n)
	for i := range pois {
		pois[i] = map[string]string{"name": fmt.Sprintf("Place %02d", i), "category": "sight"}
	}
	raw, err := json.Marshal(map[string]interface{}{"pois": pois})
	require.NoError(t, err)
	return string(raw)
}

// gridPlaces resolves every query to a rated place whose latitude is its
// search order.
type gridPlaces struct {
	mu    sync.Mutex
	order map[string]int
}

func (g *gridPlaces) SearchText(_ context.Context, query string) ([]models.VerifiedPlace, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.order == nil {
		g.order = map[string]int{}
	}
	if _, ok := g.order[query]; !ok {
		g.order[query] = len(g.order)
	}
	return []models.VerifiedPlace{{PlaceID: query}}, nil
}

func (g *gridPlaces) Details(_ context.Context, id string) (*models.VerifiedPlace, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rating := 4.5
	return &models.VerifiedPlace{
		Name:     id,
		PlaceID:  id,
		Location: models.GeoPoint{Lat: float64(g.order[id])},
		Rating:   &rating,
	}, nil
}

type flatRoutes struct{}

func (flatRoutes) Route(context.Context, models.GeoPoint, models.GeoPoint, string) (maps.Route, error) {
	return maps.Route{DurationMinutes: 12, DistanceKm: 3.4}, nil
}

type fixture struct {
	providers llm.Static
	places    verifier.PlaceLookup
	routes    dayrouter.RouteLookup
	pricing   budget.Pricing
}

func build(t *testing.T, f fixture) (*Orchestrator, *metrics.Ledger) {
	t.Helper()
	log := logger.NewTestLogger(t)
	ledger := metrics.NewLedger(nil)

	if f.places == nil {
		f.places = maps.NewClient("", "", time.Second)
	}
	if f.routes == nil {
		f.routes = maps.NewClient("", "", time.Second)
	}
	if f.pricing == nil {
		f.pricing = hotels.NewClient(config.HotelsConfig{}, cache.NewMemoryStore(), time.Minute, time.Minute, ledger, log)
	}

	o := New(Deps{
		Candidates: candidates.NewRouter(f.providers, candidates.Config{MaxAttempts: 2, BackoffBase: time.Millisecond, BackoffCap: time.Millisecond}, ledger, log),
		Verifier:   verifier.New(f.places, 3.9, ledger, log),
		Routes:     dayrouter.New(f.routes, ledger, log),
		Budget:     budget.NewEstimator(f.pricing, budget.Rates{Food: 35, Transport: 20, Tickets: 25, Misc: 15}, ledger, log),
		Ledger:     ledger,
	}, Options{MinRating: 3.9, DefaultCurrency: "USD", DefaultSlot: "09:00", ParallelRouting: true}, log)

	o.WithClock(func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) })
	return o, ledger
}

func TestPlanTrip_NoCredentials(t *testing.T) {
	o, ledger := build(t, fixture{})

	it, err := o.PlanTrip(context.Background(), models.TripRequest{City: "Lisbon", Days: 3})
	require.NoError(t, err)

	require.Len(t, it.Days, 3)
	assert.Equal(t, []string{"2025-06-01", "2025-06-02", "2025-06-03"}, []string{it.Days[0].Date, it.Days[1].Date, it.Days[2].Date})
	assert.Zero(t, it.ItemCount())

	assert.Equal(t, 190.0, it.Totals.Lodging)
	assert.Equal(t, "USD", it.Totals.Currency)
	require.NotNil(t, it.Explanation)
	assert.Equal(t, models.CostSourceHeuristic, it.Explanation.Lodging.Source)
	assert.Equal(t, 95.0, it.Explanation.Lodging.UnitRate)
	assert.InDelta(t, it.Totals.Lodging+it.Totals.Food+it.Totals.Transport+it.Totals.Tickets+it.Totals.Misc, it.GrandTotal, 0.005)

	assert.Contains(t, it.Notes, noteFallback)
	assert.Contains(t, it.Notes, noteNoVerified)
	assert.True(t, hasPrefix(it.Notes, "Lodging heuristic"))
	assert.Contains(t, it.Uncertainties, uncertaintyNoPlaces)
	assert.Contains(t, it.Uncertainties, uncertaintyFallback)
	assert.Equal(t, int64(1), ledger.Count(metrics.CountPlans))
}

func TestPlanTrip_EmptyPoiListFallsBack(t *testing.T) {
	places := &gridPlaces{}
	o, _ := build(t, fixture{
		providers: llm.Static{&scriptedProvider{reply: `{"pois":[]}`}},
		places:    places,
		routes:    flatRoutes{},
	})

	it, err := o.PlanTrip(context.Background(), models.TripRequest{City: "Lisbon", Days: 2})
	require.NoError(t, err)

	assert.Contains(t, it.Notes, noteFallback)
	assert.Equal(t, len(FallbackCandidates), it.ItemCount())
	assert.Equal(t, "City Museum Lisbon", it.Days[0].Items[0].Place.Name)
	assert.Contains(t, places.order, "Local Market Lisbon")
}

func TestPlanTrip_SevenDaysTwentyPlaces(t *testing.T) {
	o, ledger := build(t, fixture{
		providers: llm.Static{&scriptedProvider{reply: poiReply(t, 20)}},
		places:    &gridPlaces{},
		routes:    flatRoutes{},
	})

	it, err := o.PlanTrip(context.Background(), models.TripRequest{City: "Rome", Days: 7, StartDate: "2025-09-10", Preferences: []string{"Art", "food"}})
	require.NoError(t, err)

	require.Len(t, it.Days, 7)
	assert.Equal(t, 20, it.ItemCount())
	assert.Empty(t, it.Uncertainties)

	seen := 0
	for _, day := range it.Days {
		assert.GreaterOrEqual(t, len(day.Items), 2)
		assert.LessOrEqual(t, len(day.Items), 4)
		for i, item := range day.Items {
			assert.Equal(t, "09:00", item.Time)
			assert.Equal(t, models.SourceMapService, item.Source)
			assert.Equal(t, fmt.Sprintf("Place %02d Rome", seen), item.Place.Name, "input order kept")
			if i == 0 {
				assert.Nil(t, item.Transport)
			} else {
				require.NotNil(t, item.Transport)
				assert.Equal(t, 12, item.Transport.DurationMinutes)
			}
			seen++
		}
	}

	assert.Equal(t, "2025-09-16", it.Days[6].Date)
	assert.Equal(t, 6, it.Explanation.Nights)
	assert.Equal(t, "POIs verified via Google Maps (min rating 3.9). Transit estimates are approximate.", it.Notes[len(it.Notes)-1])
	assert.Equal(t, int64(1), ledger.Count(metrics.CountProviderSuccess))
}

func TestPlanTrip_OverflowAddsUncertainty(t *testing.T) {
	o, _ := build(t, fixture{
		providers: llm.Static{&scriptedProvider{reply: poiReply(t, 10)}},
		places:    &gridPlaces{},
		routes:    flatRoutes{},
	})

	it, err := o.PlanTrip(context.Background(), models.TripRequest{City: "Oslo", Days: 2})
	require.NoError(t, err)

	assert.Equal(t, 10, it.ItemCount())
	assert.Len(t, it.Days[0].Items, 5)
	assert.Contains(t, it.Uncertainties, "Some days exceed 4 stops to keep every verified place.")
}

func TestPlanTrip_InvalidRequest(t *testing.T) {
	o, ledger := build(t, fixture{})

	_, err := o.PlanTrip(context.Background(), models.TripRequest{City: " ", Days: 0})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidTripRequest))
	assert.Zero(t, ledger.Count(metrics.CountPlans))
}

type failingContext struct{}

func (failingContext) Retrieve(context.Context, string, []string) (string, error) {
	return "", apperrors.NewContextUnavailableError("elasticsearch", fmt.Errorf("connection refused"))
}

func TestPlanTrip_ContextFailureIsIgnored(t *testing.T) {
	o, _ := build(t, fixture{
		providers: llm.Static{&scriptedProvider{reply: poiReply(t, 4)}},
		places:    &gridPlaces{},
		routes:    flatRoutes{},
	})
	o.deps.Context = failingContext{}

	it, err := o.PlanTrip(context.Background(), models.TripRequest{City: "Porto", Days: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, it.ItemCount())
}

func hasPrefix(notes []string, prefix string) bool {
	for _, n := range notes {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}
