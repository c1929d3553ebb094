package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpetrenko/flightcycle/internal/domain"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, departureCode, arrivalCode string, from, to time.Time) ([]domain.Flight, error)
	Create(ctx context.Context, f *domain.Flight) error
	SetStatus(ctx context.Context, id int64, status domain.FlightStatus) error

	// Lifecycle engine path. Regenerate returns the pending holds it
	// cancelled so the caller can notify their owners.
	ListActive(ctx context.Context) ([]domain.Flight, error)
	SaveAdvanced(ctx context.Context, f domain.Flight) error
	Regenerate(ctx context.Context, f domain.Flight) ([]domain.Reservation, error)

	// Seat counter path. Both are single conditional statements so that
	// concurrent calls on the same flight serialize inside the database.
	ReserveSeats(ctx context.Context, flightID int64, n int) error
	ReleaseSeats(ctx context.Context, flightID int64, n int) error
}

const flightColumns = `id, flight_number, airline, departure_code, arrival_code,
	original_departure_code, original_arrival_code, departure_time, arrival_time,
	price_cents, total_seats, available_seats, status, cycle_count, last_cycle_reset,
	duration_minutes, ground_minutes, next_departure_time, route_reversed, created_at, updated_at`

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	var durationMin, groundMin int64
	err := row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.DepartureCode, &f.ArrivalCode,
		&f.OriginalDeparture, &f.OriginalArrival, &f.DepartureTime, &f.ArrivalTime,
		&f.PriceCents, &f.TotalSeats, &f.AvailableSeats, &f.Status, &f.CycleCount, &f.LastCycleReset,
		&durationMin, &groundMin, &f.NextDeparture, &f.RouteReversed, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	f.FlightDuration = time.Duration(durationMin) * time.Minute
	f.GroundTime = time.Duration(groundMin) * time.Minute
	return &f, nil
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	defer rows.Close()
	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	return collectFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	return scanFlight(row)
}

func (r *PGFlightRepository) Search(ctx context.Context, departureCode, arrivalCode string, from, to time.Time) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE departure_code=$1 AND arrival_code=$2
		AND departure_time >= $3 AND departure_time < $4
		AND status IN ('SCHEDULED', 'FLYING')
		ORDER BY departure_time`, departureCode, arrivalCode, from, to)
	if err != nil {
		return nil, err
	}
	return collectFlights(rows)
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights
		(flight_number, airline, departure_code, arrival_code, original_departure_code, original_arrival_code,
		 departure_time, arrival_time, price_cents, total_seats, available_seats, status,
		 cycle_count, last_cycle_reset, duration_minutes, ground_minutes, next_departure_time, route_reversed)
		VALUES ($1,$2,$3,$4,$3,$4,$5,$6,$7,$8,$8,'SCHEDULED',0,now(),$9,$10,$5,false)
		RETURNING id, created_at, updated_at, last_cycle_reset`,
		f.FlightNumber, f.Airline, f.DepartureCode, f.ArrivalCode,
		f.DepartureTime, f.ArrivalTime, f.PriceCents, f.TotalSeats,
		int64(f.FlightDuration/time.Minute), int64(f.GroundTime/time.Minute)).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt, &f.LastCycleReset)
	if err != nil {
		return err
	}
	f.OriginalDeparture = f.DepartureCode
	f.OriginalArrival = f.ArrivalCode
	f.AvailableSeats = f.TotalSeats
	f.Status = domain.FlightScheduled
	f.NextDeparture = f.DepartureTime
	return nil
}

func (r *PGFlightRepository) SetStatus(ctx context.Context, id int64, status domain.FlightStatus) error {
	ct, err := r.db.Exec(ctx, `UPDATE flights SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGFlightRepository) ListActive(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE status IN ('SCHEDULED', 'FLYING', 'COMPLETED') ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectFlights(rows)
}

// SaveAdvanced persists a lifecycle transition that does not touch inventory
// (departure, arrival, and the 24h cycle-count reset).
func (r *PGFlightRepository) SaveAdvanced(ctx context.Context, f domain.Flight) error {
	ct, err := r.db.Exec(ctx, `UPDATE flights SET
		status=$1, cycle_count=$2, last_cycle_reset=$3, updated_at=now()
		WHERE id=$4`, f.Status, f.CycleCount, f.LastCycleReset, f.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Regenerate persists the COMPLETED→SCHEDULED turnaround as one transaction:
// any hold still pending against the finished leg is cancelled in the same
// transaction that resets the seat counter, so a late confirmation can only
// observe a terminal reservation.
func (r *PGFlightRepository) Regenerate(ctx context.Context, f domain.Flight) ([]domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `UPDATE reservations SET
		status='CANCELLED', failure_reason='flight leg regenerated', updated_at=now()
		WHERE flight_id=$1 AND status='PENDING'
		RETURNING `+reservationColumns, f.ID)
	if err != nil {
		return nil, err
	}
	cancelled, err := collectReservations(rows)
	if err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx, `UPDATE flights SET
		status=$1, departure_code=$2, arrival_code=$3, departure_time=$4, arrival_time=$5,
		next_departure_time=$6, route_reversed=$7, cycle_count=$8, last_cycle_reset=$9,
		available_seats=total_seats, updated_at=now()
		WHERE id=$10`,
		f.Status, f.DepartureCode, f.ArrivalCode, f.DepartureTime, f.ArrivalTime,
		f.NextDeparture, f.RouteReversed, f.CycleCount, f.LastCycleReset, f.ID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	return cancelled, tx.Commit(ctx)
}

func (r *PGFlightRepository) ReserveSeats(ctx context.Context, flightID int64, n int) error {
	ct, err := r.db.Exec(ctx, `UPDATE flights SET
		available_seats = available_seats - $2, updated_at = now()
		WHERE id=$1 AND available_seats >= $2`, flightID, n)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, flightID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInsufficientSeats
	}
	return nil
}

func (r *PGFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, n int) error {
	ct, err := r.db.Exec(ctx, `UPDATE flights SET
		available_seats = LEAST(available_seats + $2, total_seats), updated_at = now()
		WHERE id=$1`, flightID, n)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
