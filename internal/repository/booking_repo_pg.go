package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpetrenko/flightcycle/internal/domain"
)

type BookingRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	GetByReservationID(ctx context.Context, reservationID int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	// Cancel transitions CONFIRMED→CANCELLED behind a status gate and stamps
	// the reason. Returns domain.ErrAlreadyTerminal when the booking exists
	// but is not CONFIRMED.
	Cancel(ctx context.Context, reference, reason string, at time.Time) (*domain.Booking, error)
	// SeatsConfirmed sums seats over CONFIRMED bookings for a flight.
	SeatsConfirmed(ctx context.Context, flightID int64) (int, error)
}

const bookingColumns = `id, reference, reservation_id, user_id, flight_id,
	passenger_name, passenger_email, passenger_phone, seats_booked, total_cents, status,
	cancellation_reason, cancelled_at,
	departure_code, arrival_code, departure_time, arrival_time, flight_number, airline,
	created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Reference, &b.ReservationID, &b.UserID, &b.FlightID,
		&b.PassengerName, &b.PassengerEmail, &b.PassengerPhone, &b.SeatsBooked, &b.TotalCents, &b.Status,
		&b.CancellationReason, &b.CancelledAt,
		&b.DepartureCode, &b.ArrivalCode, &b.DepartureTime, &b.ArrivalTime, &b.FlightNumber, &b.Airline,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference)
	return scanBooking(row)
}

func (r *PGBookingRepository) GetByReservationID(ctx context.Context, reservationID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reservation_id=$1`, reservationID)
	return scanBooking(row)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) Cancel(ctx context.Context, reference, reason string, at time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET
		status='CANCELLED', cancellation_reason=$1, cancelled_at=$2, updated_at=now()
		WHERE reference=$3 AND status='CONFIRMED'
		RETURNING `+bookingColumns, reason, at, reference)
	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	// Zero rows: distinguish an unknown reference from a lost gate.
	if _, getErr := r.GetByReference(ctx, reference); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrAlreadyTerminal
}

func (r *PGBookingRepository) SeatsConfirmed(ctx context.Context, flightID int64) (int, error) {
	var seats int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(seats_booked), 0) FROM bookings
		WHERE flight_id=$1 AND status='CONFIRMED'`, flightID).Scan(&seats)
	return seats, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
