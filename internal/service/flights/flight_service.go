// Package flights serves the read and admin surface for the flight network.
package flights

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/mpetrenko/flightcycle/internal/repository"
)

// searchWindow caps how far ahead a search range may extend.
const searchWindow = 30 * 24 * time.Hour

// FlightCache fronts the full-list read with Redis so the landing page does
// not hit Postgres on every request.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type CreateInput struct {
	FlightNumber  string
	Airline       string
	DepartureCode string
	ArrivalCode   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	PriceCents    int64
	TotalSeats    int
	GroundTime    time.Duration
}

// CycleStats reports how a single flight has moved through the network.
type CycleStats struct {
	FlightID       int64     `json:"flight_id"`
	FlightNumber   string    `json:"flight_number"`
	Route          string    `json:"route"`
	OriginalRoute  string    `json:"original_route"`
	Status         string    `json:"status"`
	CycleCount     int       `json:"cycle_count"`
	RouteReversed  bool      `json:"route_reversed"`
	LastCycleReset time.Time `json:"last_cycle_reset"`
	NextDeparture  time.Time `json:"next_departure"`
	SeatsAvailable int       `json:"seats_available"`
	SeatsTotal     int       `json:"seats_total"`
}

type Service struct {
	flights  repository.FlightRepository
	airports repository.AirportRepository
	cache    FlightCache
}

func NewService(flights repository.FlightRepository, airports repository.AirportRepository, cache FlightCache) *Service {
	return &Service{flights: flights, airports: airports, cache: cache}
}

// List returns every flight, cache-first.
func (s *Service) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			log.Printf("flights: cache read: %v", err)
		}
	}

	flights, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			log.Printf("flights: cache write: %v", err)
		}
	}
	return flights, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.flights.GetByID(ctx, id)
}

// Search finds bookable flights on a route within a date range. The range is
// clamped to the advance window so nobody pages through next year's legs.
func (s *Service) Search(ctx context.Context, departureCode, arrivalCode string, from, to time.Time) ([]domain.Flight, error) {
	departureCode = strings.ToUpper(strings.TrimSpace(departureCode))
	arrivalCode = strings.ToUpper(strings.TrimSpace(arrivalCode))
	if departureCode == "" || arrivalCode == "" {
		return nil, fmt.Errorf("departure and arrival codes are required")
	}
	if departureCode == arrivalCode {
		return nil, fmt.Errorf("departure and arrival must differ")
	}
	if to.Before(from) {
		return nil, fmt.Errorf("search range end precedes start")
	}
	if max := from.Add(searchWindow); to.After(max) {
		to = max
	}
	return s.flights.Search(ctx, departureCode, arrivalCode, from, to)
}

// Create registers a new flight leg. Both endpoints must be known airports.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Flight, error) {
	input.DepartureCode = strings.ToUpper(strings.TrimSpace(input.DepartureCode))
	input.ArrivalCode = strings.ToUpper(strings.TrimSpace(input.ArrivalCode))

	if input.FlightNumber == "" || input.Airline == "" {
		return nil, fmt.Errorf("flight number and airline are required")
	}
	if input.DepartureCode == input.ArrivalCode {
		return nil, fmt.Errorf("departure and arrival must differ")
	}
	if !input.ArrivalTime.After(input.DepartureTime) {
		return nil, fmt.Errorf("arrival must come after departure")
	}
	if input.TotalSeats < 1 {
		return nil, fmt.Errorf("flight needs at least one seat")
	}
	if input.PriceCents < 0 {
		return nil, fmt.Errorf("price cannot be negative")
	}
	for _, code := range []string{input.DepartureCode, input.ArrivalCode} {
		if _, err := s.airports.GetByCode(ctx, code); err != nil {
			return nil, fmt.Errorf("airport %s: %w", code, err)
		}
	}

	ground := input.GroundTime
	if ground <= 0 {
		ground = time.Hour
	}

	flight := &domain.Flight{
		FlightNumber:   input.FlightNumber,
		Airline:        input.Airline,
		DepartureCode:  input.DepartureCode,
		ArrivalCode:    input.ArrivalCode,
		DepartureTime:  input.DepartureTime,
		ArrivalTime:    input.ArrivalTime,
		PriceCents:     input.PriceCents,
		TotalSeats:     input.TotalSeats,
		FlightDuration: input.ArrivalTime.Sub(input.DepartureTime),
		GroundTime:     ground,
	}
	if err := s.flights.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	log.Printf("flights: created %s %s", flight.FlightNumber, flight.Route())
	return flight, nil
}

// Cancel takes a flight out of rotation. Cancelled flights never advance
// again and reject new reservations.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	flight, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if flight.Status == domain.FlightCancelled {
		return fmt.Errorf("%w: already cancelled", domain.ErrInvalidFlightState)
	}
	if err := s.flights.SetStatus(ctx, id, domain.FlightCancelled); err != nil {
		return err
	}
	s.invalidate(ctx)
	log.Printf("flights: cancelled %s %s", flight.FlightNumber, flight.Route())
	return nil
}

func (s *Service) Stats(ctx context.Context, id int64) (*CycleStats, error) {
	f, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CycleStats{
		FlightID:       f.ID,
		FlightNumber:   f.FlightNumber,
		Route:          f.Route(),
		OriginalRoute:  f.OriginalDeparture + " → " + f.OriginalArrival,
		Status:         string(f.Status),
		CycleCount:     f.CycleCount,
		RouteReversed:  f.RouteReversed,
		LastCycleReset: f.LastCycleReset,
		NextDeparture:  f.NextDeparture,
		SeatsAvailable: f.AvailableSeats,
		SeatsTotal:     f.TotalSeats,
	}, nil
}

// InvalidateCache is called by the lifecycle tick after flights advance so
// the public list does not serve stale statuses for a whole TTL.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		log.Printf("flights: cache invalidate: %v", err)
	}
}
