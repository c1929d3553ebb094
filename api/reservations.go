package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/flightcycle/internal/auth"
	"github.com/mpetrenko/flightcycle/internal/service/reservation"
)

type ReservationHandler struct {
	service reservation.Coordinator
}

func NewReservationHandler(service reservation.Coordinator) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.open)
	router.POST("/verify", h.verify)
	router.GET("/history", h.history)
	router.GET("/:orderID", h.get)
}

// RegisterAdmin mounts the reporting and refund surface.
func (h *ReservationHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/recent", h.recent)
	router.POST("/:orderID/refund", h.refund)
	router.GET("/flights/:id/confirmed-seats", h.confirmedSeats)
}

type openReservationRequest struct {
	FlightID       int64  `json:"flight_id" binding:"required"`
	Seats          int    `json:"seats" binding:"required"`
	PassengerName  string `json:"passenger_name" binding:"required"`
	PassengerPhone string `json:"passenger_phone"`
	PassengerEmail string `json:"passenger_email"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

func (h *ReservationHandler) open(c *gin.Context) {
	var req openReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Open(c.Request.Context(), reservation.OpenInput{
		UserID:         auth.UserID(c),
		FlightID:       req.FlightID,
		Seats:          req.Seats,
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		PassengerEmail: req.PassengerEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) verify(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.Confirm(c.Request.Context(), reservation.Proof{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *ReservationHandler) history(c *gin.Context) {
	history, err := h.service.PaymentHistory(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *ReservationHandler) recent(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours"})
		return
	}

	recent, err := h.service.RecentPayments(c.Request.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recent)
}

type refundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *ReservationHandler) refund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Refund(c.Request.Context(), c.Param("orderID"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) confirmedSeats(c *gin.Context) {
	flightID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	seats, err := h.service.ConfirmedSeats(c.Request.Context(), flightID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": flightID, "confirmed_seats": seats})
}

func (h *ReservationHandler) get(c *gin.Context) {
	res, err := h.service.GetByOrderID(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if res.UserID != auth.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	c.JSON(http.StatusOK, res)
}
