package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// EventKind classifies the webhook events the service acts on.
type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventIgnored          EventKind = "ignored"
)

// PaymentEvent is a verified webhook delivery translated into domain terms.
type PaymentEvent struct {
	Kind             EventKind
	RegistrationUUID string
	PaymentRef       string
}

// ParseWebhook verifies the webhook signature and translates the event.
// Event types the service does not act on come back as EventIgnored with no
// error, so the handler can acknowledge them. Delivery is at-least-once;
// idempotency is the store's problem, not ours.
func (p *Processor) ParseWebhook(payload []byte, sigHeader string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.c.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return &PaymentEvent{Kind: EventIgnored}, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("can't unmarshal payment intent: %w", err)
	}

	regUUID := pi.Metadata["registration_uuid"]
	if regUUID == "" {
		return nil, fmt.Errorf("payment intent %s has no registration_uuid metadata", pi.ID)
	}

	kind := EventPaymentSucceeded
	if event.Type == "payment_intent.payment_failed" {
		kind = EventPaymentFailed
	}

	return &PaymentEvent{
		Kind:             kind,
		RegistrationUUID: regUUID,
		PaymentRef:       pi.ID,
	}, nil
}
