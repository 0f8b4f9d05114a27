package payment

// PaymentLinkRequest asks for either a credit bundle (quantity) or a single
// paid report (vin).
type PaymentLinkRequest struct {
	TelegramUserID string `json:"telegram_user_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required_without=VIN"`
	VIN            string `json:"vin" binding:"required_without=Quantity"`
}

type PaymentLinkResponse struct {
	URL string `json:"url"`
}

type WebhookResponse struct {
	Status string `json:"status"`
}
