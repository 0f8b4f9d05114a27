package payment

import "errors"

var (
	ErrSignatureInvalid = errors.New("invalid signature")
	ErrPayloadInvalid   = errors.New("invalid payload")
	ErrUnsupportedPlan  = errors.New("unsupported quantity")
)
