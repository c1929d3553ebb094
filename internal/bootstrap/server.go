// Package bootstrap assembles the HTTP router and runs the server.
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/flightcycle/api"
	"github.com/mpetrenko/flightcycle/config"
	"github.com/mpetrenko/flightcycle/internal/auth"
)

type Handlers struct {
	Flights      *api.FlightHandler
	Airports     *api.AirportHandler
	Reservations *api.ReservationHandler
	Bookings     *api.BookingHandler
	Webhooks     *api.WebhookHandler
}

// NewRouter mounts the public, authenticated and admin route groups.
func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	h.Flights.Register(v1.Group("/flights"))
	h.Airports.Register(v1.Group("/airports"))
	h.Webhooks.Register(v1.Group("/webhooks"))

	authed := v1.Group("/", auth.Middleware(cfg.Auth.JWTSecret))
	h.Reservations.Register(authed.Group("/payments"))
	h.Bookings.Register(authed.Group("/bookings"))

	admin := v1.Group("/admin", auth.Middleware(cfg.Auth.JWTSecret), auth.RequireAdmin())
	h.Flights.RegisterAdmin(admin.Group("/flights"))
	h.Airports.RegisterAdmin(admin.Group("/airports"))
	h.Reservations.RegisterAdmin(admin.Group("/payments"))

	return router
}

// Run serves the router and blocks until the context is cancelled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, router *gin.Engine) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
