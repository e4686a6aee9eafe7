// internal/models/place.go
package models

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// VerifiedPlace is a candidate resolved against the place database.
type VerifiedPlace struct {
	Name         string   `json:"name"`
	Address      string   `json:"address,omitempty"`
	PlaceID      string   `json:"placeId"`
	Location     GeoPoint `json:"location"`
	Rating       *float64 `json:"rating,omitempty"`
	URL          string   `json:"url,omitempty"`
	OpeningHours []string `json:"openingHours,omitempty"`
}

// MeetsRating reports whether the place passes min. Unrated places pass.
func (p VerifiedPlace) MeetsRating(min float64) bool {
	return p.Rating == nil || *p.Rating >= min
}

// Transport describes travel from the previous stop of the day.
type Transport struct {
	Mode            string  `json:"mode"`
	DurationMinutes int     `json:"durationMinutes"`
	DistanceKm      float64 `json:"distanceKm"`
}

type SourceType string

const (
	SourceMapService       SourceType = "map-service"
	SourceGroundingContext SourceType = "grounding-context"
	SourceUser             SourceType = "user"
	SourcePricingProvider  SourceType = "pricing-provider"
)

type DayItem struct {
	Time      string        `json:"time"`
	Place     VerifiedPlace `json:"place"`
	Transport *Transport    `json:"transport,omitempty"`
	Cost      *float64      `json:"cost,omitempty"`
	Source    SourceType    `json:"source"`
}

type DayPlan struct {
	Date  string    `json:"date"`
	Items []DayItem `json:"items"`
}
