package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brainforcegit/vin-bot/internal/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var returningCredits = clause.Returning{Columns: []clause.Column{{Name: "credits"}}}

// TopUpRequest describes a credit purchase. EventID, when set, makes the
// top-up idempotent per payment event.
type TopUpRequest struct {
	UserID   string
	Quantity int
	EventID  string
	Metadata map[string]string
}

type CreditService struct {
	db     *gorm.DB
	log    *zap.Logger
	secret string
	now    func() time.Time
}

func NewCreditService(db *gorm.DB, ledgerSecret string, log *zap.Logger) *CreditService {
	return &CreditService{db: db, log: log, secret: ledgerSecret, now: time.Now}
}

// TopUp adds quantity credits to the user, creating the balance row on
// first use. It returns the new balance.
func (s *CreditService) TopUp(ctx context.Context, req TopUpRequest) (int, error) {
	if req.UserID == "" || req.Quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	var after int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.EventID != "" {
			if err := markEvent(tx, req.EventID, models.PaymentEventCredits, req.UserID, req.Metadata); err != nil {
				return err
			}
		}

		reason := fmt.Sprintf("Top-up of %d credits", req.Quantity)
		if req.EventID != "" {
			reason += fmt.Sprintf(" (payment %s)", req.EventID)
		}

		var err error
		after, err = s.add(tx, req.UserID, req.Quantity, models.CreditTransactionTopup, reason, req.EventID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.log.Info("credits topped up",
		zap.String("user_id", req.UserID),
		zap.Int("quantity", req.Quantity),
		zap.Int("balance", after),
		zap.String("event_id", req.EventID),
	)
	return after, nil
}

// Refund returns one credit taken by Consume for a lookup that failed.
func (s *CreditService) Refund(ctx context.Context, userID, reason string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.add(tx, userID, 1, models.CreditTransactionRefund, reason, "")
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.log.Info("credit refunded", zap.String("user_id", userID), zap.String("reason", reason))
	return nil
}

func (s *CreditService) add(tx *gorm.DB, userID string, quantity int, typ models.CreditTransactionType, reason, eventID string) (int, error) {
	// RETURNING reports the row as this statement left it, so before/after
	// stay exact when another top-up commits concurrently.
	balance := models.CreditBalance{UserID: userID, Credits: quantity}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"credits": gorm.Expr("vin_credits.credits + ?", quantity),
		}),
	}, returningCredits).Create(&balance).Error
	if err != nil {
		return 0, err
	}

	after := balance.Credits
	return after, s.record(tx, userID, quantity, after-quantity, after, typ, reason, eventID)
}

// Consume spends one credit. It returns false, without touching the
// balance, when the user has none left.
func (s *CreditService) Consume(ctx context.Context, userID string) (bool, error) {
	consumed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The predicate makes check and decrement a single statement, so two
		// concurrent calls can never both spend the last credit.
		var balance models.CreditBalance
		result := tx.Model(&balance).
			Clauses(returningCredits).
			Where("user_id = ? AND credits > 0", userID).
			Update("credits", gorm.Expr("credits - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		consumed = true

		after := balance.Credits
		return s.record(tx, userID, -1, after+1, after, models.CreditTransactionConsume, "Paid VIN lookup", "")
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if consumed {
		s.log.Info("credit consumed", zap.String("user_id", userID))
	}
	return consumed, nil
}

// Balance returns the user's credits; users without a row have zero.
func (s *CreditService) Balance(ctx context.Context, userID string) (int, error) {
	credits, err := balanceOf(s.db.WithContext(ctx), userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return credits, nil
}

// Transactions lists the user's ledger rows, newest first.
func (s *CreditService) Transactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	var rows []models.CreditTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return rows, nil
}

func (s *CreditService) record(tx *gorm.DB, userID string, amount, before, after int, typ models.CreditTransactionType, reason, eventID string) error {
	t := models.CreditTransaction{
		CreatedAt:     s.now(),
		UserID:        userID,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        reason,
		Type:          typ,
		EventID:       eventID,
	}
	t.Hash = t.GenerateHash(s.secret)
	return tx.Create(&t).Error
}

func balanceOf(db *gorm.DB, userID string) (int, error) {
	var balance models.CreditBalance
	err := db.Where("user_id = ?", userID).Limit(1).Find(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance.Credits, nil
}

// markEvent inserts the processed-event row, or returns ErrDuplicateEvent
// when eventID was seen before.
func markEvent(tx *gorm.DB, eventID string, kind models.PaymentEventKind, telegramUserID string, metadata map[string]string) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PaymentEvent{
		EventID:        eventID,
		Kind:           kind,
		TelegramUserID: telegramUserID,
		Metadata:       datatypes.JSON(raw),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateEvent
	}
	return nil
}
