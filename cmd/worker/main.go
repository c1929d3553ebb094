package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/mpetrenko/flightcycle/config"
	"github.com/mpetrenko/flightcycle/internal/cache"
	"github.com/mpetrenko/flightcycle/internal/email"
	"github.com/mpetrenko/flightcycle/internal/inventory"
	"github.com/mpetrenko/flightcycle/internal/kafka"
	"github.com/mpetrenko/flightcycle/internal/lifecycle"
	"github.com/mpetrenko/flightcycle/internal/payment"
	"github.com/mpetrenko/flightcycle/internal/repository"
	"github.com/mpetrenko/flightcycle/internal/scheduler"
	"github.com/mpetrenko/flightcycle/internal/service/reservation"
)

// lifecycleWithCache drops the cached flight list after any tick that may
// have advanced flights, so readers do not see stale statuses for a TTL.
type lifecycleWithCache struct {
	engine *lifecycle.Engine
	cache  *cache.RedisCache
}

func (l lifecycleWithCache) Tick(ctx context.Context, now time.Time) error {
	err := l.engine.Tick(ctx, now)
	if cacheErr := l.cache.InvalidateFlights(ctx); cacheErr != nil {
		log.Printf("worker: cache invalidate after tick: %v", cacheErr)
	}
	return err
}

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

	seats := inventory.NewManager(flightRepo)
	gateway := payment.NewGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.WebhookSecret)
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

	engine := lifecycle.NewEngine(flightRepo, time.Duration(cfg.Scheduler.SpreadHours)*time.Hour,
		lifecycle.WithHoldNotifier(reservationService))
	driver, err := scheduler.NewDriver(
		lifecycleWithCache{engine: engine, cache: redisCache},
		reservationService,
		time.Duration(cfg.Scheduler.LifecycleIntervalMinutes)*time.Minute,
		time.Duration(cfg.Scheduler.CleanupIntervalMinutes)*time.Minute,
	)
	if err != nil {
		log.Fatalf("create scheduler: %v", err)
	}
	driver.Start()
	defer func() {
		if err := driver.Stop(); err != nil {
			log.Printf("worker: scheduler shutdown: %v", err)
		}
	}()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender(cfg.SMTP)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("worker: decode event: %v", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("worker: consumer stopped: %v", err)
		}
	}()

	log.Println("worker running")
	<-ctx.Done()
	log.Println("worker shutting down")
}
