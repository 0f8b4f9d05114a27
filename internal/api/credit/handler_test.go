package credit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brainforcegit/vin-bot/internal/api/credit"
	"github.com/brainforcegit/vin-bot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeCredits map[string]int

func (f fakeCredits) Balance(_ context.Context, userID string) (int, error) {
	if userID == "broken" {
		return 0, errors.Join(services.ErrStorage, errors.New("connection reset"))
	}
	return f[userID], nil
}

func TestBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	credit.RegisterRoutes(r, credit.NewHandler(fakeCredits{"7": 4}))

	tests := []struct {
		path string
		want int
		body string
	}{
		{"/credits/7", http.StatusOK, `{"user_id":"7","credits":4}`},
		{"/credits/8", http.StatusOK, `{"user_id":"8","credits":0}`},
		{"/credits/broken", http.StatusInternalServerError, `{"status":500,"message":"Internal server error","data":null}`},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, tt.want, w.Code, tt.path)
		assert.JSONEq(t, tt.body, w.Body.String(), tt.path)
	}
}
