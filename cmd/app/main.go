package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpetrenko/flightcycle/api"
	"github.com/mpetrenko/flightcycle/config"
	"github.com/mpetrenko/flightcycle/internal/bootstrap"
	"github.com/mpetrenko/flightcycle/internal/cache"
	"github.com/mpetrenko/flightcycle/internal/inventory"
	"github.com/mpetrenko/flightcycle/internal/kafka"
	"github.com/mpetrenko/flightcycle/internal/payment"
	"github.com/mpetrenko/flightcycle/internal/repository"
	"github.com/mpetrenko/flightcycle/internal/service/airports"
	"github.com/mpetrenko/flightcycle/internal/service/flights"
	"github.com/mpetrenko/flightcycle/internal/service/reservation"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	airportRepo := repository.NewAirportRepository(pool)

	seats := inventory.NewManager(flightRepo)
	gateway := payment.NewGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.WebhookSecret)

	flightService := flights.NewService(flightRepo, airportRepo, redisCache)
	airportService := airports.NewService(airportRepo)
	reservationService := reservation.NewService(
		reservationRepo,
		bookingRepo,
		flightRepo,
		seats,
		gateway,
		producer,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		time.Duration(cfg.Booking.AdvanceWindowDays)*24*time.Hour,
		cfg.Payment.Currency,
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	router := bootstrap.NewRouter(cfg, bootstrap.Handlers{
		Flights:      api.NewFlightHandler(flightService),
		Airports:     api.NewAirportHandler(airportService),
		Reservations: api.NewReservationHandler(reservationService),
		Bookings:     api.NewBookingHandler(reservationService),
		Webhooks:     api.NewWebhookHandler(gateway, reservationService),
	})

	log.Printf("listening on %s", cfg.HTTP.Address)
	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
