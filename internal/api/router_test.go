package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubServices struct{}

func (stubServices) Lookup(context.Context, string, models.Identity) (*models.Report, error) {
	return &models.Report{VIN: "1HGCM82633A004352"}, nil
}

func (stubServices) History(context.Context, string) ([]services.HistoryEntry, error) {
	return nil, nil
}

func (stubServices) HandleWebhook(context.Context, []byte, string) error { return nil }

func (stubServices) CreateCreditLink(context.Context, string, int) (string, error) {
	return "https://pay.example", nil
}

func (stubServices) CreateReportLink(context.Context, string, string) (string, error) {
	return "https://pay.example", nil
}

func (stubServices) Balance(context.Context, string) (int, error) { return 0, nil }

func newTestRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := stubServices{}
	return NewRouter(Deps{Lookups: s, Payments: s, Credits: s, AllowOrigins: origins, Log: zap.NewNop()})
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/history/42", http.StatusOK},
		{http.MethodGet, "/credits/42", http.StatusOK},
		{http.MethodPost, "/stripe/webhook", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, tt.path)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	r := newTestRouter([]string{"https://app.example"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
