package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/flightcycle/internal/auth"
	"github.com/mpetrenko/flightcycle/internal/service/reservation"
)

type BookingHandler struct {
	service reservation.Coordinator
}

func NewBookingHandler(service reservation.Coordinator) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:reference", h.get)
	router.DELETE("/:reference", h.cancel)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.UserBookings(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.BookingByReference(c.Request.Context(), auth.UserID(c), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), auth.UserID(c), c.Param("reference"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
