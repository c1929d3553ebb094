package domain

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationFailed    ReservationStatus = "FAILED"
	ReservationRefunded  ReservationStatus = "REFUNDED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation is a provisional seat hold awaiting a payment outcome. Seats are
// decremented when the reservation is opened and released again unless the
// reservation reaches COMPLETED.
type Reservation struct {
	ID               int64
	OrderID          string
	GatewayOrderRef  string
	GatewayPaymentID string
	GatewaySignature string
	UserID           int64
	FlightID         int64
	// FlightCycle is the flight's cycle count at open time. A reservation
	// belongs to exactly one leg; holds left over from a regenerated leg are
	// cancelled together with the leg's seat reset.
	FlightCycle    int
	PassengerName  string
	PassengerPhone string
	PassengerEmail string
	Seats          int
	AmountCents    int64
	Currency       string
	Status         ReservationStatus
	FailureReason  string

	// Flight snapshot at open time, kept for receipts and emails.
	DepartureCode string
	ArrivalCode   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	FlightNumber  string
	Airline       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the reservation has been resolved one way or
// another. Terminal reservations never transition again.
func (r Reservation) Terminal() bool {
	return r.Status != ReservationPending
}

func (r Reservation) Route() string {
	return r.DepartureCode + " → " + r.ArrivalCode
}

// NewOrderID generates an internal order id in the ORDER_<ts><rand> form.
func NewOrderID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return fmt.Sprintf("ORDER_%s%04d", ts[len(ts)-6:], rand.Intn(10000))
}
