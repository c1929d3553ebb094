// Package lifecycle advances flights through their perpetual
// SCHEDULED → FLYING → COMPLETED → SCHEDULED cycle.
package lifecycle

import (
	"context"
	"log"
	"time"

	"github.com/mpetrenko/flightcycle/internal/domain"
)

type Transition string

const (
	TransitionNone        Transition = ""
	TransitionDeparted    Transition = "departed"
	TransitionArrived     Transition = "arrived"
	TransitionRegenerated Transition = "regenerated"
)

// cycleResetAfter is how long a flight's cycle count survives before it is
// zeroed, independent of which lifecycle branch fires.
const cycleResetAfter = 24 * time.Hour

// Advance computes the next state of a flight at the given instant. It is a
// pure function: the input is not mutated and no I/O happens here. The third
// return value reports whether anything changed and a persist is needed.
//
// spread staggers each regenerated departure by cycle_count×spread past the
// plain turnaround time, pushing successive legs across future dates.
func Advance(f domain.Flight, now time.Time, spread time.Duration) (domain.Flight, Transition, bool) {
	if f.Status == domain.FlightCancelled {
		return f, TransitionNone, false
	}

	changed := false
	if now.Sub(f.LastCycleReset) > cycleResetAfter {
		f.CycleCount = 0
		f.LastCycleReset = now
		changed = true
	}

	tr := TransitionNone
	switch f.Status {
	case domain.FlightScheduled:
		if !now.Before(f.DepartureTime) {
			f.Status = domain.FlightFlying
			tr = TransitionDeparted
		}
	case domain.FlightFlying:
		if !now.Before(f.ArrivalTime) {
			f.Status = domain.FlightCompleted
			tr = TransitionArrived
		}
	case domain.FlightCompleted:
		turnaround := f.ArrivalTime.Add(f.GroundTime)
		if !now.Before(turnaround) {
			f.CycleCount++
			f.DepartureCode, f.ArrivalCode = f.ArrivalCode, f.DepartureCode
			f.RouteReversed = !f.RouteReversed

			departure := turnaround.Add(time.Duration(f.CycleCount) * spread)
			f.DepartureTime = departure
			f.ArrivalTime = departure.Add(f.FlightDuration)
			f.NextDeparture = departure
			f.Status = domain.FlightScheduled
			f.AvailableSeats = f.TotalSeats
			tr = TransitionRegenerated
		}
	}

	return f, tr, changed || tr != TransitionNone
}

// FlightStore is what the engine needs from persistence. Regenerate must
// reset the seat counter and cancel leftover pending reservations in the same
// transaction it writes the new leg, returning the cancelled holds.
type FlightStore interface {
	ListActive(ctx context.Context) ([]domain.Flight, error)
	SaveAdvanced(ctx context.Context, f domain.Flight) error
	Regenerate(ctx context.Context, f domain.Flight) ([]domain.Reservation, error)
}

// HoldNotifier is told about holds a leg reset cancelled, so their owners
// hear about it the same way swept holds do.
type HoldNotifier interface {
	LegHoldsCancelled(ctx context.Context, flight domain.Flight, holds []domain.Reservation)
}

type Engine struct {
	flights FlightStore
	spread  time.Duration
	holds   HoldNotifier
}

type EngineOption func(*Engine)

func WithHoldNotifier(n HoldNotifier) EngineOption {
	return func(e *Engine) { e.holds = n }
}

func NewEngine(flights FlightStore, spread time.Duration, opts ...EngineOption) *Engine {
	e := &Engine{flights: flights, spread: spread}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick advances every active flight once. Processing is best-effort per
// flight: a failure is logged and the flight retried on the next tick, it
// never aborts the rest of the batch.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	flights, err := e.flights.ListActive(ctx)
	if err != nil {
		return err
	}

	updated := 0
	for _, f := range flights {
		next, tr, changed := Advance(f, now, e.spread)
		if !changed {
			continue
		}

		var saveErr error
		var cancelled []domain.Reservation
		if tr == TransitionRegenerated {
			cancelled, saveErr = e.flights.Regenerate(ctx, next)
		} else {
			saveErr = e.flights.SaveAdvanced(ctx, next)
		}
		if saveErr != nil {
			log.Printf("lifecycle: flight %s: %v", f.FlightNumber, saveErr)
			continue
		}

		if len(cancelled) > 0 {
			log.Printf("lifecycle: flight %s leg reset cancelled %d pending holds", next.FlightNumber, len(cancelled))
			if e.holds != nil {
				e.holds.LegHoldsCancelled(ctx, next, cancelled)
			}
		}

		updated++
		switch tr {
		case TransitionDeparted:
			log.Printf("lifecycle: flight %s departed %s", next.FlightNumber, next.Route())
		case TransitionArrived:
			log.Printf("lifecycle: flight %s arrived, %s complete", next.FlightNumber, f.Route())
		case TransitionRegenerated:
			log.Printf("lifecycle: flight %s regenerated for %s, cycle %d, departs %s",
				next.FlightNumber, next.Route(), next.CycleCount, next.DepartureTime.Format(time.RFC3339))
		}
	}

	if updated > 0 {
		log.Printf("lifecycle: updated %d of %d flights", updated, len(flights))
	}
	return nil
}
