package services

import (
	"context"
	"errors"

	"github.com/brainforcegit/vin-bot/internal/models"

	"go.uber.org/zap"
)

var errNoTransport = errors.New("chat transport not configured")

// LogNotifier stands in for the chat transport when no bot token is set.
// Reports fail to deliver so they stay in the retry queue.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) DeliverReport(_ context.Context, chatID int64, report *models.Report) error {
	n.Log.Warn("report not delivered", zap.Int64("chat_id", chatID), zap.String("vin", report.VIN), zap.Error(errNoTransport))
	return errNoTransport
}

func (n LogNotifier) NotifyCredits(_ context.Context, chatID int64, added, balance int) error {
	n.Log.Warn("credit notice not delivered", zap.Int64("chat_id", chatID), zap.Int("added", added), zap.Int("balance", balance))
	return errNoTransport
}
