package services

import (
	"errors"

	"github.com/brainforcegit/vin-bot/internal/payment"
)

var (
	ErrInvalidInput        = errors.New("invalid VIN")
	ErrUpstreamUnavailable = errors.New("vin decoder unavailable")
	ErrStorage             = errors.New("storage failure")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrDuplicateEvent      = errors.New("payment event already processed")

	// Webhook authenticity failures come from the payment driver.
	ErrSignatureInvalid = payment.ErrSignatureInvalid
	ErrPayloadInvalid   = payment.ErrPayloadInvalid
)
