package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestProcessor(t *testing.T) *Processor {
	p, err := New(&Config{
		SecretKey:     "sk_test_x",
		WebhookSecret: "whsec_test_x",
	})
	assert.NoError(t, err)
	return p
}

func TestNewRequiresSecretKey(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)

	p := newTestProcessor(t)
	assert.Equal(t, []string{"card"}, p.c.PaymentMethodTypes)
}

func TestTrimSecret(t *testing.T) {
	assert.Equal(t, "pi_123", trimSecret("pi_123_secret_abcdef"))
	assert.Equal(t, "pi_123", trimSecret("pi_123"))
}

// signPayload builds a Stripe-Signature header the way Stripe does: an HMAC
// of "timestamp.payload" with the webhook secret.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhookSucceeded(t *testing.T) {
	p := newTestProcessor(t)
	payload := []byte(`{
		"id": "evt_1",
		"api_version": "2024-06-20",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "metadata": {"registration_uuid": "reg-1"}}}
	}`)

	event, err := p.ParseWebhook(payload, signPayload(payload, "whsec_test_x"))
	assert.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, event.Kind)
	assert.Equal(t, "reg-1", event.RegistrationUUID)
	assert.Equal(t, "pi_123", event.PaymentRef)
}

func TestParseWebhookFailed(t *testing.T) {
	p := newTestProcessor(t)
	payload := []byte(`{
		"id": "evt_2",
		"api_version": "2024-06-20",
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_456", "metadata": {"registration_uuid": "reg-2"}}}
	}`)

	event, err := p.ParseWebhook(payload, signPayload(payload, "whsec_test_x"))
	assert.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, event.Kind)
	assert.Equal(t, "reg-2", event.RegistrationUUID)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	p := newTestProcessor(t)
	payload := []byte(`{
		"id": "evt_3",
		"api_version": "2024-06-20",
		"type": "payment_intent.created",
		"data": {"object": {"id": "pi_789"}}
	}`)

	event, err := p.ParseWebhook(payload, signPayload(payload, "whsec_test_x"))
	assert.NoError(t, err)
	assert.Equal(t, EventIgnored, event.Kind)
}

func TestParseWebhookBadSignature(t *testing.T) {
	p := newTestProcessor(t)
	payload := []byte(`{"id": "evt_4", "type": "payment_intent.succeeded"}`)

	_, err := p.ParseWebhook(payload, signPayload(payload, "whsec_wrong"))
	assert.Error(t, err)
}

func TestParseWebhookMissingMetadata(t *testing.T) {
	p := newTestProcessor(t)
	payload := []byte(`{
		"id": "evt_5",
		"api_version": "2024-06-20",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_000", "metadata": {}}}
	}`)

	_, err := p.ParseWebhook(payload, signPayload(payload, "whsec_test_x"))
	assert.Error(t, err)
}
