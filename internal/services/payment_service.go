package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/payment"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreditPlans are the credit quantities that can be bought.
var CreditPlans = []int{1, 3}

// IsCreditPlan reports whether quantity is one of CreditPlans.
func IsCreditPlan(quantity int) bool {
	for _, q := range CreditPlans {
		if q == quantity {
			return true
		}
	}
	return false
}

// Purchase is the business meaning of a completed checkout, decoded from
// its metadata. It is either a ReportPurchase or a CreditPurchase.
type Purchase interface {
	buyer() string
}

// ReportPurchase pays for one report that is delivered immediately.
type ReportPurchase struct {
	TelegramUserID string
	VIN            string
}

// CreditPurchase adds credits to the buyer's balance.
type CreditPurchase struct {
	TelegramUserID string
	Quantity       int
}

func (p ReportPurchase) buyer() string { return p.TelegramUserID }
func (p CreditPurchase) buyer() string { return p.TelegramUserID }

// ParsePurchase picks the purchase variant from which metadata keys are present.
func ParsePurchase(meta map[string]string) (Purchase, error) {
	tgID := meta[payment.MetaTelegramUserID]
	if tgID == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrPayloadInvalid, payment.MetaTelegramUserID)
	}

	vin, hasVIN := meta[payment.MetaVIN]
	qty, hasQty := meta[payment.MetaQuantity]
	switch {
	case hasVIN && hasQty:
		return nil, fmt.Errorf("%w: both %s and %s present", ErrPayloadInvalid, payment.MetaVIN, payment.MetaQuantity)
	case hasVIN:
		return ReportPurchase{TelegramUserID: tgID, VIN: vin}, nil
	case hasQty:
		n, err := strconv.Atoi(qty)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: bad quantity %q", ErrPayloadInvalid, qty)
		}
		return CreditPurchase{TelegramUserID: tgID, Quantity: n}, nil
	}
	return nil, fmt.Errorf("%w: neither %s nor %s present", ErrPayloadInvalid, payment.MetaVIN, payment.MetaQuantity)
}

type PaymentService struct {
	db       *gorm.DB
	driver   payment.Driver
	lookup   *LookupService
	credits  *CreditService
	notifier Notifier
	queue    *DeliveryQueue
	log      *zap.Logger
}

func NewPaymentService(db *gorm.DB, driver payment.Driver, lookup *LookupService, credits *CreditService, notifier Notifier, queue *DeliveryQueue, log *zap.Logger) *PaymentService {
	return &PaymentService{
		db:       db,
		driver:   driver,
		lookup:   lookup,
		credits:  credits,
		notifier: notifier,
		queue:    queue,
		log:      log,
	}
}

// CreateCreditLink returns a payment link for quantity credits.
func (s *PaymentService) CreateCreditLink(ctx context.Context, telegramUserID string, quantity int) (string, error) {
	if !IsCreditPlan(quantity) {
		return "", fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	return s.createLink(ctx, payment.LinkRequest{TelegramUserID: telegramUserID, Quantity: quantity})
}

// CreateReportLink returns a payment link for a single report on vin.
func (s *PaymentService) CreateReportLink(ctx context.Context, telegramUserID, vin string) (string, error) {
	vin = models.NormalizeVIN(vin)
	if err := models.ValidateVIN(vin); err != nil {
		return "", fmt.Errorf("%w: must be %d letters or digits", ErrInvalidInput, models.VINLength)
	}
	return s.createLink(ctx, payment.LinkRequest{TelegramUserID: telegramUserID, VIN: vin})
}

func (s *PaymentService) createLink(ctx context.Context, req payment.LinkRequest) (string, error) {
	url, err := s.driver.CreateLink(ctx, req)
	if err != nil {
		s.log.Error("failed to create payment link", zap.String("telegram_user_id", req.TelegramUserID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return url, nil
}

// HandleWebhook verifies and applies one processor event. It only returns
// ErrSignatureInvalid or ErrPayloadInvalid; once the event is verified
// every downstream failure is logged and swallowed, because an error reply
// makes the processor redeliver.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.driver.ParseEvent(payload, signature)
	if err != nil {
		s.log.Warn("rejected payment webhook", zap.Error(err))
		return err
	}

	if event.Type != payment.EventTypeCheckoutCompleted {
		s.log.Debug("ignoring payment event", zap.String("event_id", event.ID), zap.String("type", event.Type))
		return nil
	}

	purchase, err := ParsePurchase(event.Metadata)
	if err != nil {
		s.log.Error("completed checkout without usable metadata", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	// The processor only waits for the acknowledgement.
	ctx = context.WithoutCancel(ctx)

	switch p := purchase.(type) {
	case ReportPurchase:
		s.fulfilReport(ctx, event, p)
	case CreditPurchase:
		s.fulfilCredits(ctx, event, p)
	}
	return nil
}

func (s *PaymentService) fulfilReport(ctx context.Context, event *payment.Event, p ReportPurchase) {
	log := s.log.With(zap.String("event_id", event.ID), zap.String("telegram_user_id", p.TelegramUserID), zap.String("vin", p.VIN))

	chatID, err := strconv.ParseInt(p.TelegramUserID, 10, 64)
	if err != nil {
		log.Error("paid report for non numeric telegram user", zap.Error(err))
		return
	}

	if event.ID != "" {
		if err := markEvent(s.db.WithContext(ctx), event.ID, models.PaymentEventReport, p.TelegramUserID, event.Metadata); err != nil {
			if errors.Is(err, ErrDuplicateEvent) {
				log.Info("payment event already processed")
				return
			}
			log.Error("failed to record payment event", zap.Error(err))
			return
		}
	}

	who := models.PaidUser(p.TelegramUserID)
	delivery := Delivery{ChatID: chatID, VIN: p.VIN, UserKey: who.Key(), EventID: event.ID}

	report, err := s.lookup.Lookup(ctx, p.VIN, who)
	if err != nil {
		log.Error("paid lookup failed", zap.Error(err))
		if errors.Is(err, ErrInvalidInput) {
			return
		}
		s.retry(ctx, log, delivery)
		return
	}
	delivery.Report = report

	if err := s.notifier.DeliverReport(ctx, chatID, report); err != nil {
		log.Error("paid report delivery failed", zap.Error(err))
		s.retry(ctx, log, delivery)
		return
	}
	log.Info("paid report delivered")
}

func (s *PaymentService) fulfilCredits(ctx context.Context, event *payment.Event, p CreditPurchase) {
	log := s.log.With(zap.String("event_id", event.ID), zap.String("telegram_user_id", p.TelegramUserID))

	balance, err := s.credits.TopUp(ctx, TopUpRequest{
		UserID:   p.TelegramUserID,
		Quantity: p.Quantity,
		EventID:  event.ID,
		Metadata: event.Metadata,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			log.Info("payment event already processed")
			return
		}
		log.Error("credit top-up failed", zap.Int("quantity", p.Quantity), zap.Error(err))
		return
	}

	chatID, err := strconv.ParseInt(p.TelegramUserID, 10, 64)
	if err != nil {
		return
	}
	if err := s.notifier.NotifyCredits(ctx, chatID, p.Quantity, balance); err != nil {
		log.Warn("credit notice not delivered", zap.Error(err))
	}
}

func (s *PaymentService) retry(ctx context.Context, log *zap.Logger, d Delivery) {
	if err := s.queue.Enqueue(ctx, d); err != nil {
		log.Error("paid report lost, retry queue unavailable", zap.Error(err))
	}
}
