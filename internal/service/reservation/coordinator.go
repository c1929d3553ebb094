// Package reservation coordinates the seat-hold / payment / booking protocol:
// it opens provisional reservations, resolves them exactly once on
// confirmation, failure or timeout, and produces the durable booking ledger.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/mpetrenko/flightcycle/internal/kafka"
	"github.com/mpetrenko/flightcycle/internal/payment"
	"github.com/mpetrenko/flightcycle/internal/repository"
)

type Coordinator interface {
	Open(ctx context.Context, input OpenInput) (*domain.Reservation, error)
	Confirm(ctx context.Context, proof Proof) (*domain.Booking, error)
	ConfirmCaptured(ctx context.Context, gatewayRef, paymentID string) (*domain.Booking, error)
	ExpireStale(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	CancelBooking(ctx context.Context, userID int64, reference, reason string) (*domain.Booking, error)
	Refund(ctx context.Context, orderID, reason string) (*domain.Reservation, error)

	GetByOrderID(ctx context.Context, orderID string) (*domain.Reservation, error)
	PaymentHistory(ctx context.Context, userID int64) ([]domain.Reservation, error)
	RecentPayments(ctx context.Context, since time.Time) ([]domain.Reservation, error)
	ConfirmedSeats(ctx context.Context, flightID int64) (int, error)
	UserBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	BookingByReference(ctx context.Context, userID int64, reference string) (*domain.Booking, error)
}

// FlightReader is the slice of flight persistence the coordinator needs.
type FlightReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

// Inventory is the seat-counter authority the coordinator holds and releases
// seats through.
type Inventory interface {
	Reserve(ctx context.Context, flightID int64, n int) error
	Release(ctx context.Context, flightID int64, n int) error
	Finalize(ctx context.Context, flightID int64, n int)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

type OpenInput struct {
	UserID         int64
	FlightID       int64
	Seats          int
	PassengerName  string
	PassengerPhone string
	PassengerEmail string
}

// Proof is the payment evidence submitted either by the customer's verify
// call or by the authority's webhook. Both routes land in Confirm.
type Proof struct {
	OrderID   string
	PaymentID string
	Signature string
}

type Service struct {
	reservations repository.ReservationRepository
	bookings     repository.BookingRepository
	flights      FlightReader
	seats        Inventory
	authority    payment.Authority
	producer     Producer

	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	advanceWindow      time.Duration
	currency           string
}

type Option func(*Service)

func WithNotificationsTopic(topic string) Option {
	return func(s *Service) { s.notificationsTopic = topic }
}

func NewService(
	reservations repository.ReservationRepository,
	bookings repository.BookingRepository,
	flights FlightReader,
	seats Inventory,
	authority payment.Authority,
	producer Producer,
	bookingTopic string,
	holdTTL, advanceWindow time.Duration,
	currency string,
	opts ...Option,
) *Service {
	s := &Service{
		reservations:  reservations,
		bookings:      bookings,
		flights:       flights,
		seats:         seats,
		authority:     authority,
		producer:      producer,
		bookingTopic:  bookingTopic,
		holdTTL:       holdTTL,
		advanceWindow: advanceWindow,
		currency:      currency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open validates the flight, registers an order with the payment authority
// and holds the seats behind a PENDING reservation. On any failure no seats
// stay held.
func (s *Service) Open(ctx context.Context, input OpenInput) (*domain.Reservation, error) {
	if input.Seats < 1 {
		return nil, errors.New("seat count must be at least 1")
	}
	if input.PassengerName == "" {
		return nil, errors.New("passenger name is required")
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if !flight.Bookable() {
		return nil, fmt.Errorf("%w: status %s", domain.ErrInvalidFlightState, flight.Status)
	}
	if flight.DepartureTime.After(time.Now().Add(s.advanceWindow)) {
		return nil, domain.ErrAdvanceWindow
	}

	amount := flight.PriceCents * int64(input.Seats)
	orderID := domain.NewOrderID()
	gatewayRef, err := s.authority.CreateOrder(ctx, amount, s.currency, orderID)
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	if err := s.seats.Reserve(ctx, flight.ID, input.Seats); err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		OrderID:         orderID,
		GatewayOrderRef: gatewayRef,
		UserID:          input.UserID,
		FlightID:        flight.ID,
		FlightCycle:     flight.CycleCount,
		PassengerName:   input.PassengerName,
		PassengerPhone:  input.PassengerPhone,
		PassengerEmail:  input.PassengerEmail,
		Seats:           input.Seats,
		AmountCents:     amount,
		Currency:        s.currency,
		DepartureCode:   flight.DepartureCode,
		ArrivalCode:     flight.ArrivalCode,
		DepartureTime:   flight.DepartureTime,
		ArrivalTime:     flight.ArrivalTime,
		FlightNumber:    flight.FlightNumber,
		Airline:         flight.Airline,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		// The hold has no owning record; give the seats straight back.
		if relErr := s.seats.Release(ctx, flight.ID, input.Seats); relErr != nil {
			log.Printf("reservation: release after failed create on flight %d: %v", flight.ID, relErr)
		}
		return nil, err
	}

	log.Printf("reservation: opened %s, flight %s, %d seats", res.OrderID, flight.FlightNumber, input.Seats)
	return res, nil
}

// Confirm resolves a reservation with the submitted proof. It is idempotent:
// confirming an already-completed reservation returns the existing booking.
// Whichever of Confirm and ExpireStale wins the PENDING gate performs its
// full effect exactly once; the loser sees domain.ErrAlreadyTerminal.
func (s *Service) Confirm(ctx context.Context, proof Proof) (*domain.Booking, error) {
	res, err := s.reservations.GetByOrderID(ctx, proof.OrderID)
	if err != nil {
		return nil, err
	}

	if res.Status == domain.ReservationCompleted {
		return s.bookings.GetByReservationID(ctx, res.ID)
	}
	if res.Terminal() {
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrAlreadyTerminal, res.Status)
	}

	if !s.authority.VerifySignature(res.GatewayOrderRef, proof.PaymentID, proof.Signature) {
		won, failErr := s.reservations.Fail(ctx, proof.OrderID, proof.PaymentID, "signature verification failed")
		if failErr != nil {
			return nil, failErr
		}
		if won {
			if relErr := s.seats.Release(ctx, res.FlightID, res.Seats); relErr != nil {
				log.Printf("reservation: release after failed payment %s: %v", res.OrderID, relErr)
			}
			s.publish(ctx, kafka.EventPaymentFailed, res, nil, "signature verification failed")
		}
		return nil, domain.ErrSignatureInvalid
	}

	booking := s.buildBooking(ctx, res)
	if err := s.reservations.Complete(ctx, proof.OrderID, proof.PaymentID, proof.Signature, booking); err != nil {
		if errors.Is(err, domain.ErrAlreadyTerminal) {
			// Lost the gate. A duplicate confirmation that lost to the first
			// one still gets the booking back; a sweep or regeneration win
			// means the money signal arrived too late.
			current, getErr := s.reservations.GetByOrderID(ctx, proof.OrderID)
			if getErr == nil && current.Status == domain.ReservationCompleted {
				return s.bookings.GetByReservationID(ctx, current.ID)
			}
			return nil, err
		}
		return nil, err
	}

	s.seats.Finalize(ctx, res.FlightID, res.Seats)
	s.publish(ctx, kafka.EventBookingConfirmed, res, booking, "")
	log.Printf("reservation: confirmed %s, booking %s", res.OrderID, booking.Reference)
	return booking, nil
}

// ConfirmCaptured resolves a reservation from a payment-captured webhook.
// The caller has already authenticated the webhook body, so no per-payment
// signature is checked; the same PENDING gate still applies.
func (s *Service) ConfirmCaptured(ctx context.Context, gatewayRef, paymentID string) (*domain.Booking, error) {
	res, err := s.reservations.GetByGatewayRef(ctx, gatewayRef)
	if err != nil {
		return nil, err
	}
	if res.Status == domain.ReservationCompleted {
		return s.bookings.GetByReservationID(ctx, res.ID)
	}
	if res.Terminal() {
		return nil, fmt.Errorf("%w: reservation is %s", domain.ErrAlreadyTerminal, res.Status)
	}

	booking := s.buildBooking(ctx, res)
	if err := s.reservations.Complete(ctx, res.OrderID, paymentID, "", booking); err != nil {
		if errors.Is(err, domain.ErrAlreadyTerminal) {
			current, getErr := s.reservations.GetByOrderID(ctx, res.OrderID)
			if getErr == nil && current.Status == domain.ReservationCompleted {
				return s.bookings.GetByReservationID(ctx, current.ID)
			}
		}
		return nil, err
	}

	s.seats.Finalize(ctx, res.FlightID, res.Seats)
	s.publish(ctx, kafka.EventBookingConfirmed, res, booking, "")
	log.Printf("reservation: confirmed %s via webhook, booking %s", res.OrderID, booking.Reference)
	return booking, nil
}

// buildBooking snapshots the flight's current data onto the booking. If the
// flight read fails the reservation's own open-time snapshot serves instead.
func (s *Service) buildBooking(ctx context.Context, res *domain.Reservation) *domain.Booking {
	b := &domain.Booking{
		Reference:      domain.NewBookingReference(),
		ReservationID:  res.ID,
		UserID:         res.UserID,
		FlightID:       res.FlightID,
		PassengerName:  res.PassengerName,
		PassengerEmail: res.PassengerEmail,
		PassengerPhone: res.PassengerPhone,
		SeatsBooked:    res.Seats,
		TotalCents:     res.AmountCents,
		DepartureCode:  res.DepartureCode,
		ArrivalCode:    res.ArrivalCode,
		DepartureTime:  res.DepartureTime,
		ArrivalTime:    res.ArrivalTime,
		FlightNumber:   res.FlightNumber,
		Airline:        res.Airline,
	}
	if flight, err := s.flights.GetByID(ctx, res.FlightID); err == nil {
		b.DepartureCode = flight.DepartureCode
		b.ArrivalCode = flight.ArrivalCode
		b.DepartureTime = flight.DepartureTime
		b.ArrivalTime = flight.ArrivalTime
		b.Airline = flight.Airline
	}
	return b
}

// ExpireStale cancels PENDING reservations older than the hold TTL and gives
// their seats back. Runs from the cleanup tick; safe to race with Confirm
// because the repository transitions through the same status gate.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	swept, err := s.reservations.CancelPendingBefore(ctx, now.Add(-s.holdTTL))
	if err != nil {
		return nil, err
	}

	for i := range swept {
		res := &swept[i]
		if err := s.seats.Release(ctx, res.FlightID, res.Seats); err != nil {
			log.Printf("reservation: release swept %s: %v", res.OrderID, err)
		}
		s.publish(ctx, kafka.EventReservationSwept, res, nil, "payment timeout")
		log.Printf("reservation: expired %s after %s", res.OrderID, s.holdTTL)
	}
	return swept, nil
}

// LegHoldsCancelled publishes cancellation notices for holds the lifecycle
// engine cut short when it regenerated a leg. The reset already restored the
// seat counter, so no inventory moves here.
func (s *Service) LegHoldsCancelled(ctx context.Context, flight domain.Flight, holds []domain.Reservation) {
	for i := range holds {
		res := &holds[i]
		s.publish(ctx, kafka.EventHoldCancelled, res, nil, "flight leg regenerated")
		log.Printf("reservation: cancelled %s, flight %s leg regenerated", res.OrderID, flight.FlightNumber)
	}
}

// CancelBooking cancels a CONFIRMED booking owned by the user and releases
// its seats. userID 0 skips the ownership check (admin path).
func (s *Service) CancelBooking(ctx context.Context, userID int64, reference, reason string) (*domain.Booking, error) {
	if userID != 0 {
		existing, err := s.bookings.GetByReference(ctx, reference)
		if err != nil {
			return nil, err
		}
		if existing.UserID != userID {
			return nil, domain.ErrNotFound
		}
	}

	booking, err := s.bookings.Cancel(ctx, reference, reason, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyTerminal) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidBooking, reference)
		}
		return nil, err
	}

	if err := s.seats.Release(ctx, booking.FlightID, booking.SeatsBooked); err != nil {
		log.Printf("reservation: release cancelled booking %s: %v", reference, err)
	}

	event := kafka.BookingEvent{
		Type:         kafka.EventBookingCancelled,
		Reference:    booking.Reference,
		FlightID:     booking.FlightID,
		FlightNumber: booking.FlightNumber,
		Route:        booking.Route(),
		Seats:        booking.SeatsBooked,
		AmountCents:  booking.TotalCents,
		Currency:     s.currency,
		Email:        booking.PassengerEmail,
		Reason:       reason,
		OccurredAt:   time.Now(),
	}
	s.publishEvent(ctx, booking.Reference, event)

	log.Printf("booking: cancelled %s (%s)", reference, reason)
	return booking, nil
}

// Refund reverses an already-completed payment. Post-hoc only: inventory is
// untouched, the booking must be cancelled separately if seats should free.
func (s *Service) Refund(ctx context.Context, orderID, reason string) (*domain.Reservation, error) {
	won, err := s.reservations.Refund(ctx, orderID, "refund: "+reason)
	if err != nil {
		return nil, err
	}
	if !won {
		res, getErr := s.reservations.GetByOrderID(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: can only refund completed payments, reservation is %s",
			domain.ErrAlreadyTerminal, res.Status)
	}
	return s.reservations.GetByOrderID(ctx, orderID)
}

func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*domain.Reservation, error) {
	return s.reservations.GetByOrderID(ctx, orderID)
}

func (s *Service) PaymentHistory(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// RecentPayments serves the reporting surface: every reservation opened
// since the given instant, regardless of owner or outcome.
func (s *Service) RecentPayments(ctx context.Context, since time.Time) ([]domain.Reservation, error) {
	return s.reservations.ListRecent(ctx, since)
}

// ConfirmedSeats reconciles the ledger against the seat counter: the sum of
// seats across CONFIRMED bookings for a flight.
func (s *Service) ConfirmedSeats(ctx context.Context, flightID int64) (int, error) {
	return s.bookings.SeatsConfirmed(ctx, flightID)
}

func (s *Service) UserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *Service) BookingByReference(ctx context.Context, userID int64, reference string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if userID != 0 && booking.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return booking, nil
}

func (s *Service) publish(ctx context.Context, eventType string, res *domain.Reservation, booking *domain.Booking, reason string) {
	event := kafka.BookingEvent{
		Type:         eventType,
		OrderID:      res.OrderID,
		FlightID:     res.FlightID,
		FlightNumber: res.FlightNumber,
		Route:        res.Route(),
		Seats:        res.Seats,
		AmountCents:  res.AmountCents,
		Currency:     res.Currency,
		Email:        res.PassengerEmail,
		Reason:       reason,
		OccurredAt:   time.Now(),
	}
	if booking != nil {
		event.Reference = booking.Reference
	}
	s.publishEvent(ctx, res.OrderID, event)
}

// publishEvent never propagates failures: notifications must not roll back
// the state transition they report.
func (s *Service) publishEvent(ctx context.Context, key string, event kafka.BookingEvent) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		log.Printf("reservation: publish %s event for %s: %v", event.Type, key, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			log.Printf("reservation: publish notification for %s: %v", key, err)
		}
	}
}

var _ Coordinator = (*Service)(nil)
