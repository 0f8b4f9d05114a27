package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brainforcegit/vin-bot/config"
	"github.com/brainforcegit/vin-bot/internal/api"
	"github.com/brainforcegit/vin-bot/internal/bot"
	"github.com/brainforcegit/vin-bot/internal/database"
	"github.com/brainforcegit/vin-bot/internal/decoder"
	"github.com/brainforcegit/vin-bot/internal/payment/stripepay"
	"github.com/brainforcegit/vin-bot/internal/services"
	"github.com/brainforcegit/vin-bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// app owns every handle the commands share.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
	rdb *redis.Client
	tg  *tgbotapi.BotAPI

	lookup   *services.LookupService
	credits  *services.CreditService
	payments *services.PaymentService
	queue    *services.DeliveryQueue

	// background loops started by Serve and RunBot
	bg sync.WaitGroup
}

// openStorage loads config, sets up logging and opens the migrated database.
func openStorage() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Service:    cfg.ServiceName,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return cfg, db, nil
}

func runMigrate() error {
	_, db, err := openStorage()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Log.Info("database migrated")
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

func newApp() (*app, error) {
	cfg, db, err := openStorage()
	if err != nil {
		return nil, err
	}
	log := logger.Log

	a := &app{cfg: cfg, log: log, db: db}

	if cfg.RedisEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if a.rdb, err = database.ConnectRedis(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
	} else {
		log.Warn("REDIS_HOST not set, failed paid deliveries will not be retried")
	}

	var notifier services.Notifier = services.LogNotifier{Log: log}
	if cfg.TelegramToken != "" {
		if a.tg, err = tgbotapi.NewBotAPI(cfg.TelegramToken); err != nil {
			return nil, fmt.Errorf("failed to init telegram bot: %w", err)
		}
		notifier = bot.NewMessenger(a.tg)
	} else {
		log.Warn("TELEGRAM_TOKEN not set, chat delivery disabled")
	}

	dec, err := newDecoder(cfg, log)
	if err != nil {
		return nil, err
	}

	a.lookup = services.NewLookupService(db, dec, log).WithDecodeTimeout(cfg.DecoderTimeout)
	a.credits = services.NewCreditService(db, cfg.LedgerSecret, log)
	if a.rdb != nil {
		a.queue = services.NewDeliveryQueue(a.rdb, a.lookup, notifier, log)
	}

	driver := stripepay.NewStripeDriver(stripepay.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceSingle:   cfg.StripePriceSingle,
		PriceBundle:   cfg.StripePriceBundle,
		RedirectURL:   cfg.BotURL,
	})
	a.payments = services.NewPaymentService(db, driver, a.lookup, a.credits, notifier, a.queue, log)

	return a, nil
}

func newDecoder(cfg *config.Config, log *zap.Logger) (services.Decoder, error) {
	switch cfg.DecoderMode {
	case "vpic":
		return decoder.NewVPIC(cfg.DecoderURL, cfg.DecoderTimeout, log), nil
	case "stub":
		return decoder.Stub{}, nil
	case "stub-history":
		return decoder.Stub{History: true}, nil
	}
	return nil, fmt.Errorf("unknown DECODER_MODE %q", cfg.DecoderMode)
}

// Serve runs the HTTP API and the delivery worker until SIGINT or SIGTERM.
func (a *app) Serve(withBot bool) error {
	if withBot && a.tg == nil {
		return errors.New("--bot needs TELEGRAM_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer a.drain(stop)

	if a.queue != nil {
		a.background(func() { a.queue.Run(ctx) })
	}
	if withBot {
		a.background(func() { a.poll(ctx) })
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Deps{
		Lookups:      a.lookup,
		Payments:     a.payments,
		Credits:      a.credits,
		AllowOrigins: a.cfg.AllowOrigins,
		Log:          a.log,
	})

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening",
			zap.String("addr", srv.Addr),
			zap.String("webhook_url", a.cfg.WebhookURL()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// RunBot polls Telegram until SIGINT or SIGTERM.
func (a *app) RunBot() error {
	if a.tg == nil {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer a.drain(stop)

	if a.queue != nil {
		a.background(func() { a.queue.Run(ctx) })
	}
	a.poll(ctx)
	return nil
}

// background runs fn on its own goroutine and tracks it for drain.
func (a *app) background(fn func()) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		fn()
	}()
}

// drain cancels the background loops and waits for them to return, giving
// up after shutdownTimeout. Close must only run after drain.
func (a *app) drain(cancel context.CancelFunc) {
	cancel()

	done := make(chan struct{})
	go func() {
		a.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		a.log.Warn("background workers did not stop in time")
	}
}

func (a *app) poll(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.tg.GetUpdatesChan(u)
	defer a.tg.StopReceivingUpdates()

	a.log.Info("bot started", zap.String("username", a.tg.Self.UserName))
	bot.New(a.tg, a.lookup, a.credits, a.payments, a.log).Run(ctx, updates)
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
}
