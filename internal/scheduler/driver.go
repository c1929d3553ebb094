// Package scheduler drives the periodic work: the lifecycle tick that moves
// flights through their states and the cleanup tick that sweeps stale
// payment holds.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mpetrenko/flightcycle/internal/domain"
)

// Lifecycle advances the flight network to the given instant.
type Lifecycle interface {
	Tick(ctx context.Context, now time.Time) error
}

// Sweeper cancels reservations whose payment hold has lapsed.
type Sweeper interface {
	ExpireStale(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

type Driver struct {
	scheduler gocron.Scheduler
}

// NewDriver wires both jobs onto a gocron scheduler. Jobs run in singleton
// mode so a slow tick is skipped rather than stacked.
func NewDriver(lifecycle Lifecycle, sweeper Sweeper, lifecycleEvery, cleanupEvery time.Duration) (*Driver, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(lifecycleEvery),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), lifecycleEvery)
			defer cancel()
			if err := lifecycle.Tick(ctx, time.Now()); err != nil {
				log.Printf("scheduler: lifecycle tick: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("flight-lifecycle"),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cleanupEvery),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cleanupEvery)
			defer cancel()
			swept, err := sweeper.ExpireStale(ctx, time.Now())
			if err != nil {
				log.Printf("scheduler: reservation sweep: %v", err)
			} else if len(swept) > 0 {
				log.Printf("scheduler: swept %d stale reservations", len(swept))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("reservation-sweep"),
	)
	if err != nil {
		return nil, err
	}

	return &Driver{scheduler: sched}, nil
}

func (d *Driver) Start() {
	d.scheduler.Start()
	log.Println("scheduler: started")
}

func (d *Driver) Stop() error {
	return d.scheduler.Shutdown()
}
