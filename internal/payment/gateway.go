// Package payment talks to the external payment authority. The authority is
// treated abstractly: it issues an opaque order reference for an amount and
// later supplies a proof (payment id + signature) that we verify against the
// order reference with an HMAC rule.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Authority is the interface the reservation coordinator consumes.
type Authority interface {
	// CreateOrder registers an order with the authority and returns its
	// opaque order reference.
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error)
	// VerifySignature checks the proof submitted for an order.
	VerifySignature(orderRef, paymentID, signature string) bool
}

// Gateway implements Authority with the HMAC-SHA256 scheme used by
// Razorpay-style processors: the signature is the hex HMAC of
// "<order_ref>|<payment_id>" under the key secret.
type Gateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewGateway(keyID, keySecret, webhookSecret string) *Gateway {
	return &Gateway{keyID: keyID, keySecret: keySecret, webhookSecret: webhookSecret}
}

func (g *Gateway) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("order amount must be positive, got %d", amountCents)
	}
	// The sandbox authority derives order references locally; a hosted
	// deployment swaps this struct for a client of the processor's API.
	return fmt.Sprintf("order_%s", uuid.NewString()), nil
}

func (g *Gateway) VerifySignature(orderRef, paymentID, signature string) bool {
	expected := signHMAC(orderRef+"|"+paymentID, g.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhook checks the body signature a webhook carries, under the
// dedicated webhook secret.
func (g *Gateway) VerifyWebhook(body []byte, signature string) bool {
	expected := signHMAC(string(body), g.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func signHMAC(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign produces the signature the authority would attach to a payment. Used
// by the sandbox flow and by tests.
func Sign(orderRef, paymentID, secret string) string {
	return signHMAC(orderRef+"|"+paymentID, secret)
}

var _ Authority = (*Gateway)(nil)
