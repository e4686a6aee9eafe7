// internal/models/itinerary.go
package models

import (
	"math"

	"github.com/google/uuid"
)

type Totals struct {
	Lodging   float64 `json:"lodging"`
	Food      float64 `json:"food"`
	Transport float64 `json:"transport"`
	Tickets   float64 `json:"tickets"`
	Misc      float64 `json:"misc"`
	Currency  string  `json:"currency"`
}

// GrandTotal is the sum of every component, rounded to cents.
func (t Totals) GrandTotal() float64 {
	return Round2(t.Lodging + t.Food + t.Transport + t.Tickets + t.Misc)
}

type CostSource string

const (
	CostSourceProvider  CostSource = "provider"
	CostSourceHeuristic CostSource = "heuristic"
)

// ComponentExplanation records where one Totals component came from.
type ComponentExplanation struct {
	Source   CostSource `json:"source"`
	UnitRate float64    `json:"unitRate"`
	Unit     string     `json:"unit"` // night | day
	Quantity int        `json:"quantity"`
	Currency string     `json:"currency"`
	Reason   string     `json:"reason,omitempty"`
}

type BudgetExplanation struct {
	Lodging   ComponentExplanation `json:"lodging"`
	Food      ComponentExplanation `json:"food"`
	Transport ComponentExplanation `json:"transport"`
	Tickets   ComponentExplanation `json:"tickets"`
	Misc      ComponentExplanation `json:"misc"`
	Nights    int                  `json:"nights"`
	Rooms     int                  `json:"rooms"`
}

type TripInfo struct {
	ID          string   `json:"id"`
	City        string   `json:"city"`
	Days        int      `json:"days"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Budget      float64  `json:"budget,omitempty"`
	Preferences []string `json:"preferences,omitempty"`
	Currency    string   `json:"currency"`
}

// Itinerary is the pipeline result. Days always has one entry per trip day.
type Itinerary struct {
	Trip          TripInfo           `json:"trip"`
	Days          []DayPlan          `json:"days"`
	Totals        Totals             `json:"totals"`
	GrandTotal    float64            `json:"grandTotal"`
	Explanation   *BudgetExplanation `json:"explanation,omitempty"`
	Notes         []string           `json:"notes"`
	Uncertainties []string           `json:"uncertainties"`
}

// NewItinerary builds the skeleton for a normalized request: one empty
// DayPlan per date.
func NewItinerary(req TripRequest) (*Itinerary, error) {
	dates, err := ExpandDates(req.StartDate, req.Days)
	if err != nil {
		return nil, err
	}
	days := make([]DayPlan, len(dates))
	for i, d := range dates {
		days[i] = DayPlan{Date: d, Items: []DayItem{}}
	}
	return &Itinerary{
		Trip: TripInfo{
			ID:          uuid.NewString(),
			City:        req.City,
			Days:        req.Days,
			StartDate:   dates[0],
			EndDate:     dates[len(dates)-1],
			Budget:      req.Budget,
			Preferences: req.Preferences,
			Currency:    req.Currency,
		},
		Days:          days,
		Totals:        Totals{Currency: req.Currency},
		Notes:         []string{},
		Uncertainties: []string{},
	}, nil
}

func (it *Itinerary) AddNote(note string) {
	it.Notes = append(it.Notes, note)
}

func (it *Itinerary) AddUncertainty(u string) {
	it.Uncertainties = append(it.Uncertainties, u)
}

// SetTotals stores t and refreshes GrandTotal.
func (it *Itinerary) SetTotals(t Totals) {
	it.Totals = t
	it.GrandTotal = t.GrandTotal()
}

// ItemCount is the number of scheduled stops across all days.
func (it *Itinerary) ItemCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Items)
	}
	return n
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
