// Package inventory is the single authority over a flight's available-seat
// counter. All mutation goes through Reserve, Release and Finalize; nothing
// else in the codebase writes the counter directly. The underlying store must
// implement both operations as single conditional updates so that concurrent
// calls on one flight serialize instead of interleaving a read with a write.
package inventory

import (
	"context"
	"log"

	"github.com/mpetrenko/flightcycle/internal/domain"
)

// SeatStore is the subset of the flight repository the manager needs.
type SeatStore interface {
	ReserveSeats(ctx context.Context, flightID int64, n int) error
	ReleaseSeats(ctx context.Context, flightID int64, n int) error
}

type Manager struct {
	store SeatStore
}

func NewManager(store SeatStore) *Manager {
	return &Manager{store: store}
}

// Reserve atomically checks and decrements the counter. Returns
// domain.ErrInsufficientSeats when fewer than n seats remain and
// domain.ErrNotFound for an unknown flight.
func (m *Manager) Reserve(ctx context.Context, flightID int64, n int) error {
	if n <= 0 {
		return domain.ErrInsufficientSeats
	}
	return m.store.ReserveSeats(ctx, flightID, n)
}

// Release returns n seats to the counter. The store caps the result at
// total_seats so a double release cannot corrupt inventory past capacity.
func (m *Manager) Release(ctx context.Context, flightID int64, n int) error {
	if n <= 0 {
		return nil
	}
	return m.store.ReleaseSeats(ctx, flightID, n)
}

// Finalize marks a hold permanent. The seats were already decremented at
// reserve time, so the counter is untouched; the named transition exists so
// the audit trail distinguishes a finalized hold from one never resolved.
func (m *Manager) Finalize(ctx context.Context, flightID int64, n int) {
	log.Printf("inventory: finalized hold of %d seats on flight %d", n, flightID)
}
