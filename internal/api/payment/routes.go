package payment

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler) {
	// Called by Stripe, authenticated by the signature header.
	r.POST("/stripe/webhook", h.Webhook)

	r.POST("/payment-link", h.CreateLink)
}
