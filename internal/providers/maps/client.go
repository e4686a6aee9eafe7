// Package maps is the Google Maps adapter used for place verification and
// transit estimates. Without an API key every call returns an empty result.
package maps

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	apphttp "travel-planner/internal/common/http"
	"travel-planner/internal/models"
)

const detailFields = "name,geometry,formatted_address,rating,opening_hours,url"

// Route is the travel estimate between two points.
type Route struct {
	DurationMinutes int
	DistanceKm      float64
}

type Client struct {
	apiKey  string
	baseURL string
	http    *apphttp.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, http: apphttp.NewClient(timeout)}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placeResult struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Rating           *float64 `json:"rating"`
	URL              string   `json:"url"`
	Geometry         struct {
		Location location `json:"location"`
	} `json:"geometry"`
	OpeningHours *struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

func (p placeResult) toPlace() models.VerifiedPlace {
	place := models.VerifiedPlace{
		Name:     p.Name,
		Address:  p.FormattedAddress,
		PlaceID:  p.PlaceID,
		Location: models.GeoPoint{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
		Rating:   p.Rating,
		URL:      p.URL,
	}
	if p.OpeningHours != nil {
		place.OpeningHours = p.OpeningHours.WeekdayText
	}
	return place
}

// checkStatus maps the Places/Directions status field to an error.
func checkStatus(status, message string) error {
	switch status {
	case "", "OK", "ZERO_RESULTS", "NOT_FOUND":
		return nil
	default:
		return fmt.Errorf("google maps status %s: %s", status, message)
	}
}

// SearchText runs a Places text search and returns hits in service order.
func (c *Client) SearchText(ctx context.Context, query string) ([]models.VerifiedPlace, error) {
	if !c.Configured() {
		return nil, nil
	}
	var resp struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Results      []placeResult `json:"results"`
	}
	params := url.Values{"query": {query}, "key": {c.apiKey}}
	if err := c.http.GetJSON(ctx, c.baseURL+"/place/textsearch/json", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	out := make([]models.VerifiedPlace, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.toPlace())
	}
	return out, nil
}

// Details fetches the canonical record for placeID. It returns nil when the
// service has no record.
func (c *Client) Details(ctx context.Context, placeID string) (*models.VerifiedPlace, error) {
	if !c.Configured() {
		return nil, nil
	}
	var resp struct {
		Status       string       `json:"status"`
		ErrorMessage string       `json:"error_message"`
		Result       *placeResult `json:"result"`
	}
	params := url.Values{"place_id": {placeID}, "fields": {detailFields}, "key": {c.apiKey}}
	if err := c.http.GetJSON(ctx, c.baseURL+"/place/details/json", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	if resp.Result == nil || resp.Result.Name == "" {
		return nil, nil
	}

	place := resp.Result.toPlace()
	place.PlaceID = placeID
	return &place, nil
}

// Route asks the Directions API for the first leg between two points.
func (c *Client) Route(ctx context.Context, origin, dest models.GeoPoint, mode string) (Route, error) {
	if !c.Configured() {
		return Route{}, nil
	}
	var resp struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Routes       []struct {
			Legs []struct {
				Duration struct {
					Value float64 `json:"value"` // seconds
				} `json:"duration"`
				Distance struct {
					Value float64 `json:"value"` // meters
				} `json:"distance"`
			} `json:"legs"`
		} `json:"routes"`
	}
	params := url.Values{
		"origin":      {formatPoint(origin)},
		"destination": {formatPoint(dest)},
		"mode":        {mode},
		"key":         {c.apiKey},
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/directions/json", params, nil, &resp); err != nil {
		return Route{}, fmt.Errorf("directions: %w", err)
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return Route{}, err
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return Route{}, nil
	}

	leg := resp.Routes[0].Legs[0]
	return Route{
		DurationMinutes: int(leg.Duration.Value / 60),
		DistanceKm:      math.Round(leg.Distance.Value/1000*100) / 100,
	}, nil
}

func formatPoint(p models.GeoPoint) string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lng)
}
