package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CreditBalance holds the paid lookups a Telegram user can still spend.
// A user without a row has zero credits.
type CreditBalance struct {
	ID      uint   `gorm:"primarykey"`
	UserID  string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Credits int    `gorm:"not null;default:0"`
}

func (CreditBalance) TableName() string {
	return "vin_credits"
}

type CreditTransactionType string

const (
	CreditTransactionTopup   CreditTransactionType = "topup"
	CreditTransactionConsume CreditTransactionType = "consume"
	CreditTransactionRefund  CreditTransactionType = "refund"
)

// CreditTransaction is the audit row written with every balance change.
type CreditTransaction struct {
	ID            uint                  `gorm:"primarykey"`
	CreatedAt     time.Time             `gorm:"precision:3"`
	UserID        string                `gorm:"type:varchar(50);index;not null"`
	Amount        int                   `gorm:"not null"`
	BalanceBefore int                   `gorm:"not null"`
	BalanceAfter  int                   `gorm:"not null"`
	Reason        string                `gorm:"type:text"`
	Type          CreditTransactionType `gorm:"type:varchar(20);index;not null"`
	EventID       string                `gorm:"type:varchar(255);index;default:''"`
	Hash          string                `gorm:"type:varchar(64);default:''"` // HMAC SHA256
}

// GenerateHash generates a tamper-proof hash for the transaction
func (t *CreditTransaction) GenerateHash(secret string) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d|%s|%s|%s",
		t.UserID, t.CreatedAt.UnixNano(), t.Amount, t.BalanceBefore, t.BalanceAfter,
		t.Reason, t.Type, t.EventID)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
