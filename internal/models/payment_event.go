package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentEventKind string

const (
	PaymentEventCredits PaymentEventKind = "credits"
	PaymentEventReport  PaymentEventKind = "report"
)

// PaymentEvent marks a processor event as handled. EventID is unique so a
// redelivered event is applied at most once.
type PaymentEvent struct {
	ID             uint             `gorm:"primarykey"`
	EventID        string           `gorm:"type:varchar(255);uniqueIndex;not null"`
	Kind           PaymentEventKind `gorm:"type:varchar(20);not null"`
	TelegramUserID string           `gorm:"type:varchar(50);index"`
	Metadata       datatypes.JSON   `gorm:"type:json"`
	CreatedAt      time.Time
}

// All lists every table the service migrates.
func All() []interface{} {
	return []interface{}{&VINLog{}, &CreditBalance{}, &CreditTransaction{}, &PaymentEvent{}}
}
