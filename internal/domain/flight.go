package domain

import "time"

type FlightStatus string

const (
	FlightScheduled FlightStatus = "SCHEDULED"
	FlightFlying    FlightStatus = "FLYING"
	FlightCompleted FlightStatus = "COMPLETED"
	FlightCancelled FlightStatus = "CANCELLED"
)

// Flight is a perpetually cycling flight. After each completed leg it is
// regenerated in place: route reversed, times recomputed, seats reset.
type Flight struct {
	ID                int64
	FlightNumber      string
	Airline           string
	DepartureCode     string
	ArrivalCode       string
	OriginalDeparture string
	OriginalArrival   string
	DepartureTime     time.Time
	ArrivalTime       time.Time
	PriceCents        int64
	TotalSeats        int
	AvailableSeats    int
	Status            FlightStatus
	CycleCount        int
	LastCycleReset    time.Time
	FlightDuration    time.Duration
	GroundTime        time.Duration
	NextDeparture     time.Time
	RouteReversed     bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Bookable reports whether new reservations may be opened against the flight.
func (f Flight) Bookable() bool {
	return f.Status == FlightScheduled || f.Status == FlightFlying
}

func (f Flight) Route() string {
	return f.DepartureCode + " → " + f.ArrivalCode
}
