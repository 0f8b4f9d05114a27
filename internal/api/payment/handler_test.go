package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apipayment "github.com/brainforcegit/vin-bot/internal/api/payment"
	"github.com/brainforcegit/vin-bot/internal/decoder"
	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/payment/stripepay"
	"github.com/brainforcegit/vin-bot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const webhookSecret = "whsec_test"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []int64
	credits []int
}

func (n *recordingNotifier) DeliverReport(_ context.Context, chatID int64, _ *models.Report) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, chatID)
	return nil
}

func (n *recordingNotifier) NotifyCredits(_ context.Context, _ int64, _, balance int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.credits = append(n.credits, balance)
	return nil
}

type webhookFixture struct {
	router   *gin.Engine
	db       *gorm.DB
	notifier *recordingNotifier
	credits  *services.CreditService
}

func setupWebhook(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	lookup := services.NewLookupService(db, decoder.Stub{}, zap.NewNop())
	credits := services.NewCreditService(db, "test-secret", zap.NewNop())
	driver := stripepay.NewStripeDriver(stripepay.Config{WebhookSecret: webhookSecret})
	payments := services.NewPaymentService(db, driver, lookup, credits, notifier, nil, zap.NewNop())

	r := gin.New()
	apipayment.RegisterRoutes(r, apipayment.NewHandler(payments))
	return &webhookFixture{router: r, db: db, notifier: notifier, credits: credits}
}

func checkoutEvent(id string, metadata map[string]string) []byte {
	meta, _ := json.Marshal(metadata)
	return []byte(fmt.Sprintf(`{
  "id": %q,
  "object": "event",
  "api_version": "2023-10-16",
  "type": "checkout.session.completed",
  "data": {"object": {"id": "cs_test_1", "object": "checkout.session", "metadata": %s}}
}`, id, meta))
}

func (f *webhookFixture) post(payload []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(apipayment.SignatureHeader, signature)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestWebhookPaidReport(t *testing.T) {
	f := setupWebhook(t)
	payload := checkoutEvent("evt_report", map[string]string{"telegram_user_id": "7", "vin": "1HGCM82633A004352"})

	w := f.post(payload, stripepay.SignatureHeader(payload, webhookSecret, time.Now()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success"}`, w.Body.String())

	var logs []models.VINLog
	f.db.Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "paid:7", logs[0].UserID)
	assert.Equal(t, []int64{7}, f.notifier.reports)
}

func TestWebhookCreditTopUp(t *testing.T) {
	f := setupWebhook(t)
	payload := checkoutEvent("evt_credits", map[string]string{"telegram_user_id": "7", "quantity": "3"})
	sig := stripepay.SignatureHeader(payload, webhookSecret, time.Now())

	require.Equal(t, http.StatusOK, f.post(payload, sig).Code)
	require.Equal(t, http.StatusOK, f.post(payload, sig).Code)

	balance, err := f.credits.Balance(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
	assert.Equal(t, []int{3}, f.notifier.credits)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := setupWebhook(t)
	payload := checkoutEvent("evt_forged", map[string]string{"telegram_user_id": "7", "vin": "1HGCM82633A004352"})

	tests := []struct {
		name string
		sig  string
	}{
		{"missing header", ""},
		{"wrong secret", stripepay.SignatureHeader(payload, "whsec_other", time.Now())},
		{"garbage", "not-a-signature"},
		{"stale", stripepay.SignatureHeader(payload, webhookSecret, time.Now().Add(-time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post(payload, tt.sig)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	var n int64
	f.db.Model(&models.VINLog{}).Count(&n)
	assert.Equal(t, int64(0), n)
	assert.Empty(t, f.notifier.reports)
}

func TestWebhookTamperedBody(t *testing.T) {
	f := setupWebhook(t)
	payload := checkoutEvent("evt_q", map[string]string{"telegram_user_id": "7", "quantity": "1"})
	sig := stripepay.SignatureHeader(payload, webhookSecret, time.Now())

	tampered := checkoutEvent("evt_q", map[string]string{"telegram_user_id": "7", "quantity": "3"})
	assert.Equal(t, http.StatusBadRequest, f.post(tampered, sig).Code)

	balance, _ := f.credits.Balance(context.Background(), "7")
	assert.Equal(t, 0, balance)
}

type fakePayments struct {
	credit []int
	vins   []string
}

func (f *fakePayments) HandleWebhook(context.Context, []byte, string) error { return nil }

func (f *fakePayments) CreateCreditLink(_ context.Context, _ string, quantity int) (string, error) {
	if !services.IsCreditPlan(quantity) {
		return "", services.ErrInvalidQuantity
	}
	f.credit = append(f.credit, quantity)
	return "https://pay.example/credits", nil
}

func (f *fakePayments) CreateReportLink(_ context.Context, _ string, vin string) (string, error) {
	f.vins = append(f.vins, vin)
	return "https://pay.example/report", nil
}

func TestCreatePaymentLink(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		body    string
		want    int
		wantURL string
	}{
		{"credits", `{"telegram_user_id":"7","quantity":3}`, http.StatusOK, "https://pay.example/credits"},
		{"report", `{"telegram_user_id":"7","vin":"1HGCM82633A004352"}`, http.StatusOK, "https://pay.example/report"},
		{"bad quantity", `{"telegram_user_id":"7","quantity":2}`, http.StatusBadRequest, ""},
		{"neither", `{"telegram_user_id":"7"}`, http.StatusBadRequest, ""},
		{"both", `{"telegram_user_id":"7","quantity":1,"vin":"1HGCM82633A004352"}`, http.StatusBadRequest, ""},
		{"missing user", `{"quantity":1}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			apipayment.RegisterRoutes(r, apipayment.NewHandler(&fakePayments{}))

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/payment-link", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.wantURL != "" {
				var resp apipayment.PaymentLinkResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantURL, resp.URL)
			}
		})
	}
}
