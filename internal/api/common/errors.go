package common

import (
	"errors"
	"net/http"

	"github.com/brainforcegit/vin-bot/internal/services"
	"github.com/brainforcegit/vin-bot/internal/utils"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a service error to its HTTP status. Each failure kind
// keeps a distinct code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrSignatureInvalid),
		errors.Is(err, services.ErrPayloadInvalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err in the standard error envelope. Internal failures
// get a generic message.
func WriteError(c *gin.Context, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, utils.NewErrorResponse(status, message))
}
