// internal/workers/planning/plan-trip/models.go
package plantrip

import "travel-planner/internal/models"

type Input struct {
	City        string   `json:"city"`
	Days        int      `json:"days"`
	StartDate   string   `json:"startDate,omitempty"`
	Budget      float64  `json:"budget,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

func (i *Input) TripRequest() models.TripRequest {
	return models.TripRequest{
		City:        i.City,
		Days:        i.Days,
		StartDate:   i.StartDate,
		Budget:      i.Budget,
		Preferences: i.Preferences,
		Currency:    i.Currency,
	}
}

// Output is written back as process variables.
type Output struct {
	TripID     string            `json:"tripId"`
	Itinerary  *models.Itinerary `json:"itinerary"`
	GrandTotal float64           `json:"grandTotal"`
	Currency   string            `json:"currency"`
	Degraded   bool              `json:"degraded"`
}
