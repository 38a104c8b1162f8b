// Package stripe implements the payment collaborator on Stripe
// PaymentIntents. The client secret of the intent is the checkout handle
// handed to the frontend; webhook events come back keyed by the
// registration public id stored in the intent metadata.
package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/klubben/events-manager/internal/entity"
)

type Config struct {
	SecretKey          string   `mapstructure:"secret_key"`
	PubKey             string   `mapstructure:"pub_key"`
	WebhookSecret      string   `mapstructure:"webhook_secret"`
	PaymentMethodTypes []string `mapstructure:"payment_method_types"`
}

type Processor struct {
	c *Config
}

func New(c *Config) (*Processor, error) {
	if c.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is empty")
	}
	stripe.Key = c.SecretKey

	methods := c.PaymentMethodTypes
	if len(methods) == 0 {
		methods = []string{"card"}
	}
	return &Processor{
		c: &Config{
			SecretKey:          c.SecretKey,
			PubKey:             c.PubKey,
			WebhookSecret:      c.WebhookSecret,
			PaymentMethodTypes: methods,
		},
	}, nil
}

// CreateCheckout creates a PaymentIntent for a pending registration and
// returns its client secret as the checkout reference.
func (p *Processor) CreateCheckout(ctx context.Context, reg *entity.Registration, offering *entity.Offering) (string, error) {
	// Amount in the smallest currency unit.
	amountCents := offering.Price.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(strings.ToLower(offering.Currency)),
		PaymentMethodTypes: stripe.StringSlice(p.c.PaymentMethodTypes),
		ReceiptEmail:       stripe.String(reg.MemberEmail),
		Description:        stripe.String(fmt.Sprintf("registration #%s", reg.UUID)),
		Metadata: map[string]string{
			"registration_uuid": reg.UUID,
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create PaymentIntent: %w", err)
	}

	return pi.ClientSecret, nil
}

// CancelCheckout cancels the PaymentIntent behind a checkout reference.
func (p *Processor) CancelCheckout(ctx context.Context, checkoutRef string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := paymentintent.Cancel(trimSecret(checkoutRef), params); err != nil {
		return fmt.Errorf("unable to cancel payment intent: %w", err)
	}
	return nil
}

// trimSecret turns a client secret back into the PaymentIntent id.
func trimSecret(s string) string {
	index := strings.Index(s, "_secret_")
	if index == -1 {
		return s
	}
	return s[:index]
}
