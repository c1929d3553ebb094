package domain

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Booking is the durable record produced from a completed reservation. The
// flight snapshot fields are captured at creation and never change afterwards,
// so later flight regeneration does not rewrite booking history.
type Booking struct {
	ID            int64
	Reference     string
	ReservationID int64
	UserID        int64
	FlightID      int64

	PassengerName  string
	PassengerEmail string
	PassengerPhone string
	SeatsBooked    int
	TotalCents     int64
	Status         BookingStatus

	CancellationReason string
	CancelledAt        *time.Time

	DepartureCode string
	ArrivalCode   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	FlightNumber  string
	Airline       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b Booking) Route() string {
	return b.DepartureCode + " → " + b.ArrivalCode
}

// NewBookingReference generates a human-readable reference in the FB<ts><rand>
// form.
func NewBookingReference() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return fmt.Sprintf("FB%s%03d", ts[len(ts)-6:], rand.Intn(1000))
}
