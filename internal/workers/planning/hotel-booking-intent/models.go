// internal/workers/planning/hotel-booking-intent/models.go
package hotelbookingintent

type Input struct {
	City    string `json:"city"`
	Checkin string `json:"checkin"`
	Nights  int    `json:"nights,omitempty"`
}

type Output struct {
	BookingURL    string `json:"bookingUrl"`
	BookingSource string `json:"bookingSource"`
}
