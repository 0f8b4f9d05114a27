package bot

import (
	"context"
	"fmt"

	"github.com/brainforcegit/vin-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger delivers payment results to a chat. It implements
// services.Notifier.
type Messenger struct {
	api Sender
}

func NewMessenger(api Sender) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) DeliverReport(_ context.Context, chatID int64, report *models.Report) error {
	msg := tgbotapi.NewMessage(chatID, "✅ Payment received.\n\n"+RenderReport(report))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("failed to deliver report for %s: %w", report.VIN, err)
	}
	return nil
}

func (m *Messenger) NotifyCredits(_ context.Context, chatID int64, added, balance int) error {
	text := fmt.Sprintf("✅ Payment received: %d %s added. Balance: %d.\nUse /report <VIN> to spend one.",
		added, plural(added, "check", "checks"), balance)
	if _, err := m.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send credit notice: %w", err)
	}
	return nil
}
