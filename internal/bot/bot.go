package bot

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// RequestTimeout bounds every backend call made for one chat message.
const RequestTimeout = 20 * time.Second

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Lookups interface {
	Lookup(ctx context.Context, vin string, who models.Identity) (*models.Report, error)
	AccountHistory(ctx context.Context, telegramUserID string) ([]services.HistoryEntry, error)
}

type Credits interface {
	Consume(ctx context.Context, userID string) (bool, error)
	Refund(ctx context.Context, userID, reason string) error
	Balance(ctx context.Context, userID string) (int, error)
}

type Links interface {
	CreateCreditLink(ctx context.Context, telegramUserID string, quantity int) (string, error)
}

// Bot maps chat messages to lookup, history, credit and payment-link calls.
type Bot struct {
	api      Sender
	lookups  Lookups
	credits  Credits
	links    Links
	log      *zap.Logger
	timeout  time.Duration
	inflight sync.WaitGroup
}

func New(api Sender, lookups Lookups, credits Credits, links Links, log *zap.Logger) *Bot {
	return &Bot{
		api:     api,
		lookups: lookups,
		credits: credits,
		links:   links,
		log:     log,
		timeout: RequestTimeout,
	}
}

// Run handles updates, one goroutine each, until ctx is done or updates is
// closed. It waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.inflight.Add(1)
			go func() {
				defer b.inflight.Done()
				b.HandleUpdate(ctx, upd)
			}()
		}
	}
}

// HandleUpdate processes a single update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.handleStart(chatID)
		case "history":
			b.handleHistory(ctx, chatID, userID)
		case "buy":
			b.handleBuy(ctx, chatID, userID, msg.CommandArguments())
		case "balance":
			b.handleBalance(ctx, chatID, userID)
		case "report":
			b.handleReport(ctx, chatID, userID, msg.CommandArguments())
		default:
			b.reply(chatID, unknownCommandText, false)
		}
		return
	}

	text := msg.Text
	if text == CheckVINButton {
		b.reply(chatID, vinPromptText, false)
		return
	}
	if text == "" {
		return
	}
	b.handleVIN(ctx, chatID, userID, text)
}

func (b *Bot) reply(chatID int64, text string, html bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("telegram send failed", zap.Error(err))
	}
}

// apologize is the single reply for every backend failure.
func (b *Bot) apologize(chatID int64, op string, err error) {
	b.log.Error("bot request failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	b.reply(chatID, apologyText, false)
}
