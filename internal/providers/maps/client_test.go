package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travel-planner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestSearchText(t *testing.T) {
	server := newServer(t, map[string]string{
		"/place/textsearch/json": `{"status":"OK","results":[
			{"name":"Belém Tower","formatted_address":"Av. Brasília, Lisboa","place_id":"p1","rating":4.6,"geometry":{"location":{"lat":38.6916,"lng":-9.2160}}},
			{"name":"Belém Palace","place_id":"p2","geometry":{"location":{"lat":38.69,"lng":-9.20}}}
		]}`,
	})
	defer server.Close()

	c := NewClient("test-key", server.URL, time.Second)
	got, err := c.SearchText(context.Background(), "Belem Tower Lisbon")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].PlaceID)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, 4.6, *got[0].Rating)
	assert.Nil(t, got[1].Rating)
}

func TestSearchText_DeniedStatus(t *testing.T) {
	server := newServer(t, map[string]string{
		"/place/textsearch/json": `{"status":"REQUEST_DENIED","error_message":"key invalid","results":[]}`,
	})
	defer server.Close()

	_, err := NewClient("test-key", server.URL, time.Second).SearchText(context.Background(), "x")
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}

func TestDetails(t *testing.T) {
	server := newServer(t, map[string]string{
		"/place/details/json": `{"status":"OK","result":{"name":"Belém Tower","formatted_address":"Lisboa","rating":4.6,
			"geometry":{"location":{"lat":38.6916,"lng":-9.2160}},"url":"https://maps.google.com/?cid=1",
			"opening_hours":{"weekday_text":["Monday: Closed","Tuesday: 10:00 AM – 6:00 PM"]}}}`,
	})
	defer server.Close()

	place, err := NewClient("test-key", server.URL, time.Second).Details(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Equal(t, "p1", place.PlaceID)
	assert.Equal(t, "https://maps.google.com/?cid=1", place.URL)
	assert.Len(t, place.OpeningHours, 2)
	assert.Equal(t, 38.6916, place.Location.Lat)
}

func TestRoute(t *testing.T) {
	server := newServer(t, map[string]string{
		"/directions/json": `{"status":"OK","routes":[{"legs":[{"duration":{"value":1530},"distance":{"value":5432}}]}]}`,
	})
	defer server.Close()

	r, err := NewClient("test-key", server.URL, time.Second).Route(context.Background(),
		models.GeoPoint{Lat: 38.69, Lng: -9.21}, models.GeoPoint{Lat: 38.71, Lng: -9.13}, "transit")
	require.NoError(t, err)
	assert.Equal(t, 25, r.DurationMinutes)
	assert.Equal(t, 5.43, r.DistanceKm)
}

func TestRoute_NoRoutes(t *testing.T) {
	server := newServer(t, map[string]string{"/directions/json": `{"status":"ZERO_RESULTS","routes":[]}`})
	defer server.Close()

	r, err := NewClient("test-key", server.URL, time.Second).Route(context.Background(), models.GeoPoint{}, models.GeoPoint{}, "transit")
	require.NoError(t, err)
	assert.Equal(t, Route{}, r)
}

func TestUnconfigured(t *testing.T) {
	c := NewClient("", "http://unused.invalid", time.Second)
	ctx := context.Background()

	hits, err := c.SearchText(ctx, "anything")
	assert.NoError(t, err)
	assert.Empty(t, hits)

	place, err := c.Details(ctx, "p1")
	assert.NoError(t, err)
	assert.Nil(t, place)

	r, err := c.Route(ctx, models.GeoPoint{}, models.GeoPoint{}, "transit")
	assert.NoError(t, err)
	assert.Zero(t, r.DurationMinutes)
}
