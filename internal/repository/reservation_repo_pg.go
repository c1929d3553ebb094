package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpetrenko/flightcycle/internal/domain"
)

type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Reservation, error)
	GetByGatewayRef(ctx context.Context, gatewayRef string) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	ListRecent(ctx context.Context, since time.Time) ([]domain.Reservation, error)

	// Complete transitions PENDING→COMPLETED and inserts the booking in one
	// transaction. Returns domain.ErrAlreadyTerminal when the status gate is
	// lost to a concurrent resolver.
	Complete(ctx context.Context, orderID, paymentID, signature string, b *domain.Booking) error
	// Fail transitions PENDING→FAILED; reports whether this call won the gate.
	Fail(ctx context.Context, orderID, paymentID, reason string) (bool, error)
	// Refund transitions COMPLETED→REFUNDED; reports whether this call won.
	Refund(ctx context.Context, orderID, reason string) (bool, error)
	// CancelPendingBefore sweeps PENDING reservations older than the cutoff
	// into CANCELLED and returns the ones this call transitioned.
	CancelPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error)
}

const reservationColumns = `id, order_id, gateway_order_ref, gateway_payment_id, gateway_signature,
	user_id, flight_id, flight_cycle, passenger_name, passenger_phone, passenger_email,
	seats, amount_cents, currency, status, failure_reason,
	departure_code, arrival_code, departure_time, arrival_time, flight_number, airline,
	created_at, updated_at`

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(&res.ID, &res.OrderID, &res.GatewayOrderRef, &res.GatewayPaymentID, &res.GatewaySignature,
		&res.UserID, &res.FlightID, &res.FlightCycle, &res.PassengerName, &res.PassengerPhone, &res.PassengerEmail,
		&res.Seats, &res.AmountCents, &res.Currency, &res.Status, &res.FailureReason,
		&res.DepartureCode, &res.ArrivalCode, &res.DepartureTime, &res.ArrivalTime, &res.FlightNumber, &res.Airline,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	res.Status = domain.ReservationPending
	return r.db.QueryRow(ctx, `INSERT INTO reservations
		(order_id, gateway_order_ref, user_id, flight_id, flight_cycle,
		 passenger_name, passenger_phone, passenger_email, seats, amount_cents, currency, status,
		 departure_code, arrival_code, departure_time, arrival_time, flight_number, airline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, created_at, updated_at`,
		res.OrderID, res.GatewayOrderRef, res.UserID, res.FlightID, res.FlightCycle,
		res.PassengerName, res.PassengerPhone, res.PassengerEmail, res.Seats, res.AmountCents, res.Currency, res.Status,
		res.DepartureCode, res.ArrivalCode, res.DepartureTime, res.ArrivalTime, res.FlightNumber, res.Airline).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *PGReservationRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE order_id=$1`, orderID)
	return scanReservation(row)
}

func (r *PGReservationRepository) GetByGatewayRef(ctx context.Context, gatewayRef string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE gateway_order_ref=$1`, gatewayRef)
	return scanReservation(row)
}

func (r *PGReservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *PGReservationRepository) ListRecent(ctx context.Context, since time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE created_at >= $1 ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	defer rows.Close()
	out := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *PGReservationRepository) Complete(ctx context.Context, orderID, paymentID, signature string, b *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The status gate is the atomic guarantee: whoever flips PENDING first
	// performs the whole effect, everybody else sees zero rows.
	ct, err := tx.Exec(ctx, `UPDATE reservations SET
		status='COMPLETED', gateway_payment_id=$1, gateway_signature=$2, updated_at=now()
		WHERE order_id=$3 AND status='PENDING'`, paymentID, signature, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrAlreadyTerminal
	}

	b.Status = domain.BookingConfirmed
	err = tx.QueryRow(ctx, `INSERT INTO bookings
		(reference, reservation_id, user_id, flight_id,
		 passenger_name, passenger_email, passenger_phone, seats_booked, total_cents, status,
		 departure_code, arrival_code, departure_time, arrival_time, flight_number, airline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.ReservationID, b.UserID, b.FlightID,
		b.PassengerName, b.PassengerEmail, b.PassengerPhone, b.SeatsBooked, b.TotalCents, b.Status,
		b.DepartureCode, b.ArrivalCode, b.DepartureTime, b.ArrivalTime, b.FlightNumber, b.Airline).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGReservationRepository) Fail(ctx context.Context, orderID, paymentID, reason string) (bool, error) {
	ct, err := r.db.Exec(ctx, `UPDATE reservations SET
		status='FAILED', gateway_payment_id=$1, failure_reason=$2, updated_at=now()
		WHERE order_id=$3 AND status='PENDING'`, paymentID, reason, orderID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PGReservationRepository) Refund(ctx context.Context, orderID, reason string) (bool, error) {
	ct, err := r.db.Exec(ctx, `UPDATE reservations SET
		status='REFUNDED', failure_reason=$1, updated_at=now()
		WHERE order_id=$2 AND status='COMPLETED'`, reason, orderID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *PGReservationRepository) CancelPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `UPDATE reservations SET
		status='CANCELLED', failure_reason='payment timeout', updated_at=now()
		WHERE status='PENDING' AND created_at <= $1
		RETURNING `+reservationColumns, cutoff)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
