package payment

import (
	"context"
	"net/http"

	"github.com/brainforcegit/vin-bot/internal/api/common"
	"github.com/brainforcegit/vin-bot/internal/utils"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the processor's signature over the raw body.
const SignatureHeader = "Stripe-Signature"

// maxWebhookBody matches the limit Stripe documents for event payloads.
const maxWebhookBody = 65536

type Payments interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	CreateCreditLink(ctx context.Context, telegramUserID string, quantity int) (string, error)
	CreateReportLink(ctx context.Context, telegramUserID, vin string) (string, error)
}

type Handler struct {
	payments Payments
}

func NewHandler(payments Payments) *Handler {
	return &Handler{payments: payments}
}

// Webhook godoc
// @Summary Payment processor webhook
// @Description Verifies the Stripe-Signature header against the raw body and applies
// completed checkouts. Any verified event is acknowledged.
// @Tags payment
// @Accept  json
// @Produce  json
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} utils.Response
// @Router /stripe/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Failed to read request body"))
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(SignatureHeader)); err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{Status: "success"})
}

// CreateLink godoc
// @Summary Create a payment link
// @Description Returns a payment link for 1 or 3 credits, or for one paid report on a VIN.
// @Tags payment
// @Accept  json
// @Produce  json
// @Param   input  body  PaymentLinkRequest  true  "Purchase"
// @Success 200 {object} PaymentLinkResponse
// @Failure 400 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /payment-link [post]
func (h *Handler) CreateLink(c *gin.Context) {
	var req PaymentLinkRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.VIN != "" && req.Quantity != 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Specify either vin or quantity, not both"))
		return
	}

	var (
		url string
		err error
	)
	if req.VIN != "" {
		url, err = h.payments.CreateReportLink(c.Request.Context(), req.TelegramUserID, req.VIN)
	} else {
		url, err = h.payments.CreateCreditLink(c.Request.Context(), req.TelegramUserID, req.Quantity)
	}
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaymentLinkResponse{URL: url})
}
