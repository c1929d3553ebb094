package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpetrenko/flightcycle/internal/domain"
	"github.com/mpetrenko/flightcycle/internal/payment"
	"github.com/mpetrenko/flightcycle/internal/service/reservation"
)

// WebhookHandler receives payment gateway callbacks. It authenticates the
// raw body with the shared webhook secret before touching any state.
type WebhookHandler struct {
	gateway *payment.Gateway
	service reservation.Coordinator
}

func NewWebhookHandler(gateway *payment.Gateway, service reservation.Coordinator) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, service: service}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/payment", h.payment)
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (h *WebhookHandler) payment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if !h.gateway.VerifyWebhook(body, c.GetHeader("X-Webhook-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "webhook signature mismatch"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	switch event.Event {
	case "payment.captured":
		entity := event.Payload.Payment.Entity
		_, err := h.service.ConfirmCaptured(c.Request.Context(), entity.OrderID, entity.ID)
		if err != nil && !errors.Is(err, domain.ErrAlreadyTerminal) && !errors.Is(err, domain.ErrNotFound) {
			// Non-2xx makes the gateway retry; terminal and unknown orders
			// must not be retried forever.
			respondError(c, err)
			return
		}
		if err != nil {
			log.Printf("webhook: payment.captured for %s dropped: %v", entity.OrderID, err)
		}
	default:
		log.Printf("webhook: ignoring event %s", event.Event)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
