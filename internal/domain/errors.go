package domain

import "errors"

// Error taxonomy surfaced by the booking core. Callers match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidFlightState = errors.New("flight is not open for booking")
	ErrAdvanceWindow      = errors.New("departure is beyond the advance booking window")
	ErrInsufficientSeats  = errors.New("not enough available seats")
	ErrSignatureInvalid   = errors.New("payment signature verification failed")
	// ErrAlreadyTerminal is returned when a confirmation or cancellation loses
	// the race against another resolver: the reservation or booking is already
	// in a terminal state and no further inventory mutation happens.
	ErrAlreadyTerminal = errors.New("already resolved")
	ErrInvalidBooking  = errors.New("booking is not in a cancellable state")
)
