package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/brainforcegit/vin-bot/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: too short", services.ErrInvalidInput), http.StatusBadRequest},
		{services.ErrInvalidQuantity, http.StatusBadRequest},
		{services.ErrSignatureInvalid, http.StatusBadRequest},
		{services.ErrPayloadInvalid, http.StatusBadRequest},
		{fmt.Errorf("%w: timeout", services.ErrUpstreamUnavailable), http.StatusBadGateway},
		{fmt.Errorf("%w: disk full", services.ErrStorage), http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
