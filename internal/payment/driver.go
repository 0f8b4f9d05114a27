package payment

import "context"

// EventTypeCheckoutCompleted is the only event type that carries business logic.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// Metadata keys attached to payment links and read back from completion events.
const (
	MetaTelegramUserID = "telegram_user_id"
	MetaVIN            = "vin"
	MetaQuantity       = "quantity"
)

// LinkRequest describes a payment link. Exactly one of VIN or Quantity is set.
type LinkRequest struct {
	TelegramUserID string
	Quantity       int
	VIN            string
}

// Event is a verified processor notification.
type Event struct {
	ID       string
	Type     string
	Metadata map[string]string
}

// Driver is the interface that all payment drivers must implement
type Driver interface {
	// CreateLink returns a URL the user opens to pay
	CreateLink(ctx context.Context, req LinkRequest) (string, error)

	// ParseEvent verifies signature against the raw payload and decodes it.
	// It returns ErrSignatureInvalid or ErrPayloadInvalid on failure.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
