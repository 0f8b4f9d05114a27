package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleStart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, startText)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = MainKeyboard()
	b.send(msg)
}

func (b *Bot) handleVIN(ctx context.Context, chatID int64, userID, text string) {
	vin := models.NormalizeVIN(strings.TrimSpace(text))
	if !models.IsVINShape(vin) {
		b.reply(chatID, invalidVINText, false)
		return
	}

	b.reply(chatID, fmt.Sprintf("🔎 Checking VIN %s ...", vin), false)

	report, err := b.lookups.Lookup(ctx, vin, models.FreeUser(userID))
	if err != nil {
		b.apologize(chatID, "lookup", err)
		return
	}
	b.reply(chatID, RenderReport(report), true)
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, userID string) {
	entries, err := b.lookups.AccountHistory(ctx, userID)
	if err != nil {
		b.apologize(chatID, "history", err)
		return
	}
	if len(entries) == 0 {
		b.reply(chatID, emptyHistoryText, false)
		return
	}
	b.reply(chatID, RenderHistory(entries), true)
}

func (b *Bot) handleBuy(ctx context.Context, chatID int64, userID, args string) {
	quantity := 1
	if arg := strings.TrimSpace(args); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || !services.IsCreditPlan(n) {
			b.reply(chatID, buyUsageText, false)
			return
		}
		quantity = n
	}

	url, err := b.links.CreateCreditLink(ctx, userID, quantity)
	if err != nil {
		b.apologize(chatID, "buy", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("💳 Pay for %d %s here: %s", quantity, plural(quantity, "check", "checks"), url), false)
}

func (b *Bot) handleBalance(ctx context.Context, chatID int64, userID string) {
	credits, err := b.credits.Balance(ctx, userID)
	if err != nil {
		b.apologize(chatID, "balance", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("💰 You have %d paid %s left.", credits, plural(credits, "check", "checks")), false)
}

// handleReport spends one credit on a paid lookup and gives it back when
// the lookup fails.
func (b *Bot) handleReport(ctx context.Context, chatID int64, userID, args string) {
	vin := models.NormalizeVIN(strings.TrimSpace(args))
	if !models.IsVINShape(vin) {
		b.reply(chatID, reportUsageText, false)
		return
	}

	ok, err := b.credits.Consume(ctx, userID)
	if err != nil {
		b.apologize(chatID, "consume", err)
		return
	}
	if !ok {
		b.reply(chatID, noCreditsText, false)
		return
	}

	report, err := b.lookups.Lookup(ctx, vin, models.PaidUser(userID))
	if err != nil {
		reason := "lookup failed"
		if errors.Is(err, services.ErrUpstreamUnavailable) {
			reason = "decoder unavailable"
		}
		if rerr := b.credits.Refund(context.WithoutCancel(ctx), userID, reason); rerr != nil {
			b.log.Error("credit refund failed", zap.String("user_id", userID), zap.Error(rerr))
		}
		b.apologize(chatID, "paid lookup", err)
		return
	}
	b.reply(chatID, RenderReport(report), true)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
