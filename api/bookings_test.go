package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/flightcycle/internal/auth"
	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/mpetrenko/flightcycle/internal/service/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCoordinator is a mock implementation of reservation.Coordinator shared
// by the handler tests in this package.
type MockCoordinator struct {
	mock.Mock
}

func (m *MockCoordinator) Open(ctx context.Context, input reservation.OpenInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockCoordinator) Confirm(ctx context.Context, proof reservation.Proof) (*domain.Booking, error) {
	args := m.Called(ctx, proof)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCoordinator) ConfirmCaptured(ctx context.Context, gatewayRef, paymentID string) (*domain.Booking, error) {
	args := m.Called(ctx, gatewayRef, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCoordinator) ExpireStale(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockCoordinator) CancelBooking(ctx context.Context, userID int64, reference, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, userID, reference, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCoordinator) Refund(ctx context.Context, orderID, reason string) (*domain.Reservation, error) {
	args := m.Called(ctx, orderID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockCoordinator) GetByOrderID(ctx context.Context, orderID string) (*domain.Reservation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockCoordinator) PaymentHistory(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockCoordinator) RecentPayments(ctx context.Context, since time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockCoordinator) ConfirmedSeats(ctx context.Context, flightID int64) (int, error) {
	args := m.Called(ctx, flightID)
	return args.Int(0), args.Error(1)
}

func (m *MockCoordinator) UserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockCoordinator) BookingByReference(ctx context.Context, userID int64, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func authedContext(t *testing.T, userID int64) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(auth.ContextUserID, userID)
	return c, w
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockCoordinator{}
	handler := NewBookingHandler(mockService)

	c, w := authedContext(t, 11)
	c.Request = httptest.NewRequest("GET", "/bookings", nil)

	bookings := []domain.Booking{{ID: 1, Reference: "FB123456001", UserID: 11, SeatsBooked: 2}}
	mockService.On("UserBookings", c.Request.Context(), int64(11)).Return(bookings, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockCoordinator{}
	handler := NewBookingHandler(mockService)

	c, w := authedContext(t, 11)
	c.Params = gin.Params{{Key: "reference", Value: "FB000000000"}}
	c.Request = httptest.NewRequest("GET", "/bookings/FB000000000", nil)

	mockService.On("BookingByReference", c.Request.Context(), int64(11), "FB000000000").
		Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockCoordinator{}
	handler := NewBookingHandler(mockService)

	c, w := authedContext(t, 11)
	c.Params = gin.Params{{Key: "reference", Value: "FB123456001"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/FB123456001",
		strings.NewReader(`{"reason":"schedule conflict"}`))

	cancelled := &domain.Booking{ID: 1, Reference: "FB123456001", Status: domain.BookingCancelled}
	mockService.On("CancelBooking", c.Request.Context(), int64(11), "FB123456001", "schedule conflict").
		Return(cancelled, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_AlreadyCancelled(t *testing.T) {
	mockService := &MockCoordinator{}
	handler := NewBookingHandler(mockService)

	c, w := authedContext(t, 11)
	c.Params = gin.Params{{Key: "reference", Value: "FB123456001"}}
	c.Request = httptest.NewRequest("DELETE", "/bookings/FB123456001", nil)

	mockService.On("CancelBooking", c.Request.Context(), int64(11), "FB123456001", "cancelled by customer").
		Return(nil, domain.ErrInvalidBooking)

	handler.cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
