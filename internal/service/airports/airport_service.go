package airports

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/mpetrenko/flightcycle/internal/repository"
)

type Service struct {
	airports repository.AirportRepository
}

func NewService(airports repository.AirportRepository) *Service {
	return &Service{airports: airports}
}

func (s *Service) List(ctx context.Context) ([]domain.Airport, error) {
	return s.airports.List(ctx)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Airport, error) {
	return s.airports.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Create registers an airport. Codes are IATA-style, stored uppercase.
func (s *Service) Create(ctx context.Context, a *domain.Airport) error {
	a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
	if len(a.Code) != 3 {
		return fmt.Errorf("airport code must be 3 letters, got %q", a.Code)
	}
	if a.Name == "" {
		return fmt.Errorf("airport name is required")
	}
	return s.airports.Create(ctx, a)
}
