package inventory

import (
	"context"
	"testing"

	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSeatStore struct {
	mock.Mock
}

func (m *MockSeatStore) ReserveSeats(ctx context.Context, flightID int64, n int) error {
	args := m.Called(ctx, flightID, n)
	return args.Error(0)
}

func (m *MockSeatStore) ReleaseSeats(ctx context.Context, flightID int64, n int) error {
	args := m.Called(ctx, flightID, n)
	return args.Error(0)
}

func TestReserve_DelegatesToStore(t *testing.T) {
	store := &MockSeatStore{}
	store.On("ReserveSeats", mock.Anything, int64(5), 3).Return(nil)

	m := NewManager(store)
	assert.NoError(t, m.Reserve(context.Background(), 5, 3))
	store.AssertExpectations(t)
}

func TestReserve_RejectsNonPositiveCount(t *testing.T) {
	m := NewManager(&MockSeatStore{})

	assert.ErrorIs(t, m.Reserve(context.Background(), 5, 0), domain.ErrInsufficientSeats)
	assert.ErrorIs(t, m.Reserve(context.Background(), 5, -2), domain.ErrInsufficientSeats)
}

func TestReserve_PropagatesInsufficientSeats(t *testing.T) {
	store := &MockSeatStore{}
	store.On("ReserveSeats", mock.Anything, int64(5), 120).Return(domain.ErrInsufficientSeats)

	m := NewManager(store)
	assert.ErrorIs(t, m.Reserve(context.Background(), 5, 120), domain.ErrInsufficientSeats)
}

func TestRelease_NonPositiveIsNoop(t *testing.T) {
	store := &MockSeatStore{}

	m := NewManager(store)
	assert.NoError(t, m.Release(context.Background(), 5, 0))
	store.AssertNotCalled(t, "ReleaseSeats")
}

func TestRelease_DelegatesToStore(t *testing.T) {
	store := &MockSeatStore{}
	store.On("ReleaseSeats", mock.Anything, int64(5), 2).Return(nil)

	m := NewManager(store)
	assert.NoError(t, m.Release(context.Background(), 5, 2))
	store.AssertExpectations(t)
}
