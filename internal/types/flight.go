package types

import "time"

// FlightRecord is one parsed itinerary offer recovered from a results page.
// Records are created by the flights parser and never mutated afterwards.
type FlightRecord struct {
	DepartureTime       time.Time  `json:"departureTime"`
	ArrivalTime         *time.Time `json:"arrivalTime,omitempty"`
	Origin              string     `json:"origin"`
	Destination         string     `json:"destination"`
	Airline             string     `json:"airline"`
	TravelTimeMinutes   int        `json:"travelTimeMinutes"`
	Price               *float64   `json:"price"`
	NumStops            int        `json:"numStops"`
	Layover             *string    `json:"layover,omitempty"`
	CO2EmissionKg       *int       `json:"co2EmissionKg,omitempty"`
	EmissionDiffPercent *int       `json:"emissionDiffPercent,omitempty"`
	RetrievedAt         time.Time  `json:"retrievedAt"`
}

// PriceValue returns the price and whether it is set
func (r FlightRecord) PriceValue() (float64, bool) {
	if r.Price == nil {
		return 0, false
	}
	return *r.Price, true
}

// Float64Ptr returns a pointer to the given float64
func Float64Ptr(f float64) *float64 {
	return &f
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}
