package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_ReturnsOpaqueReference(t *testing.T) {
	g := NewGateway("key", "secret", "hook")

	ref, err := g.CreateOrder(context.Background(), 450000, "INR", "ORDER_123456")
	require.NoError(t, err)
	assert.Contains(t, ref, "order_")

	other, err := g.CreateOrder(context.Background(), 450000, "INR", "ORDER_123457")
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	g := NewGateway("key", "secret", "hook")

	_, err := g.CreateOrder(context.Background(), 0, "INR", "ORDER_123456")
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	g := NewGateway("key", "secret", "hook")

	sig := Sign("order_abc", "pay_1", "secret")
	assert.True(t, g.VerifySignature("order_abc", "pay_1", sig))

	assert.False(t, g.VerifySignature("order_abc", "pay_1", "forged"))
	assert.False(t, g.VerifySignature("order_abc", "pay_2", sig))
	assert.False(t, g.VerifySignature("order_xyz", "pay_1", sig))
}

func TestVerifyWebhook_UsesWebhookSecret(t *testing.T) {
	g := NewGateway("key", "secret", "hook")
	body := []byte(`{"event":"payment.captured"}`)

	valid := signHMAC(string(body), "hook")
	assert.True(t, g.VerifyWebhook(body, valid))

	// A signature under the payment key secret must not pass.
	wrongKey := signHMAC(string(body), "secret")
	assert.False(t, g.VerifyWebhook(body, wrongKey))
}
