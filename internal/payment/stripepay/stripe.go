// Package stripepay implements payment.Driver on Stripe Payment Links and
// signed webhooks.
package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/brainforcegit/vin-bot/internal/payment"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentlink"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Config holds the Stripe account settings used by the driver.
type Config struct {
	SecretKey     string
	WebhookSecret string
	// PriceSingle is charged for one credit or one paid report.
	PriceSingle string
	// PriceBundle is charged for the three credit bundle.
	PriceBundle string
	// RedirectURL is where the user lands after paying, usually the bot link.
	RedirectURL string
}

type linkCreator interface {
	New(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
}

type StripeDriver struct {
	links         linkCreator
	webhookSecret string
	prices        map[int]string
	redirectURL   string
}

func NewStripeDriver(cfg Config) *StripeDriver {
	return newStripeDriver(cfg, &paymentlink.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: cfg.SecretKey,
	})
}

func newStripeDriver(cfg Config, links linkCreator) *StripeDriver {
	return &StripeDriver{
		links:         links,
		webhookSecret: cfg.WebhookSecret,
		prices: map[int]string{
			1: cfg.PriceSingle,
			3: cfg.PriceBundle,
		},
		redirectURL: cfg.RedirectURL,
	}
}

func (d *StripeDriver) CreateLink(ctx context.Context, req payment.LinkRequest) (string, error) {
	if req.TelegramUserID == "" {
		return "", errors.New("missing telegram user id")
	}

	quantity := req.Quantity
	if req.VIN != "" {
		quantity = 1
	}
	price, ok := d.prices[quantity]
	if !ok {
		return "", fmt.Errorf("%w: %d", payment.ErrUnsupportedPlan, req.Quantity)
	}
	if price == "" {
		return "", fmt.Errorf("no price configured for quantity %d", quantity)
	}

	params := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(price),
				Quantity: stripe.Int64(1),
			},
		},
	}
	if d.redirectURL != "" {
		params.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String("redirect"),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(d.redirectURL),
			},
		}
	}
	params.Context = ctx
	params.AddMetadata(payment.MetaTelegramUserID, req.TelegramUserID)
	if req.VIN != "" {
		params.AddMetadata(payment.MetaVIN, req.VIN)
	} else {
		params.AddMetadata(payment.MetaQuantity, strconv.Itoa(quantity))
	}

	link, err := d.links.New(params)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

type checkoutSession struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

func (d *StripeDriver) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if d.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", payment.ErrSignatureInvalid)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, d.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrTooOld) {
			return nil, fmt.Errorf("%w: %v", payment.ErrSignatureInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", payment.ErrPayloadInvalid, err)
	}

	out := &payment.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if out.Type != payment.EventTypeCheckoutCompleted {
		return out, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: missing data object", payment.ErrPayloadInvalid)
	}
	var session checkoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrPayloadInvalid, err)
	}
	out.Metadata = session.Metadata
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out, nil
}
