// internal/models/trip.go
package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "travel-planner/internal/common/errors"
)

const (
	DateLayout = "2006-01-02"
	MaxDays    = 30
)

// TripRequest is the immutable planning input.
type TripRequest struct {
	City        string   `json:"city"`
	Days        int      `json:"days"`
	StartDate   string   `json:"startDate,omitempty"`
	Budget      float64  `json:"budget,omitempty"` // informational, never enforced
	Preferences []string `json:"preferences,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

// Validate rejects request shapes the pipeline cannot plan for.
func (r TripRequest) Validate() error {
	var problems []string
	if strings.TrimSpace(r.City) == "" {
		problems = append(problems, "city is required")
	}
	if r.Days < 1 {
		problems = append(problems, "days must be a positive integer")
	} else if r.Days > MaxDays {
		problems = append(problems, fmt.Sprintf("days must not exceed %d", MaxDays))
	}
	if r.Budget < 0 {
		problems = append(problems, "budget must not be negative")
	}
	if r.StartDate != "" {
		if _, err := ParseDate(r.StartDate); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return apperrors.NewInvalidTripRequestError(strings.Join(problems, "; "))
	}
	return nil
}

// Normalize validates the request and returns a copy with a trimmed city,
// lower-cased unique preferences, an upper-cased currency (defaulting to
// defaultCurrency) and the start date in YYYY-MM-DD form (defaulting to today).
func (r TripRequest) Normalize(today time.Time, defaultCurrency string) (TripRequest, error) {
	if err := r.Validate(); err != nil {
		return TripRequest{}, err
	}

	out := r
	out.City = strings.TrimSpace(r.City)

	out.Preferences = nil
	seen := make(map[string]struct{}, len(r.Preferences))
	for _, p := range r.Preferences {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out.Preferences = append(out.Preferences, p)
	}

	out.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if out.Currency == "" {
		out.Currency = defaultCurrency
	}

	start := today.UTC()
	if r.StartDate != "" {
		start, _ = ParseDate(r.StartDate)
	}
	out.StartDate = start.Format(DateLayout)
	return out, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("startDate %q is not YYYY-MM-DD or RFC3339", s)
}

// ExpandDates returns days consecutive dates starting at start.
func ExpandDates(start string, days int) ([]string, error) {
	t, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	out := make([]string, days)
	for i := range out {
		out[i] = t.AddDate(0, 0, i).Format(DateLayout)
	}
	return out, nil
}

// Nights is the lodging night count for a trip of days days.
func Nights(days int) int {
	if days-1 < 1 {
		return 1
	}
	return days - 1
}
