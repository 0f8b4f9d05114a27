package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brainforcegit/vin-bot/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	DeliveryQueueKey       = "delivery_retry_queue"
	DefaultDeliveryRetries = 5
)

// Notifier sends purchase results to the buyer's chat.
type Notifier interface {
	DeliverReport(ctx context.Context, chatID int64, report *models.Report) error
	NotifyCredits(ctx context.Context, chatID int64, added, balance int) error
}

// Delivery is a paid report that has not reached the user yet. Report is
// nil when the lookup itself failed and must be repeated.
type Delivery struct {
	ChatID   int64          `json:"chat_id"`
	VIN      string         `json:"vin"`
	UserKey  string         `json:"user_key"`
	EventID  string         `json:"event_id"`
	Report   *models.Report `json:"report,omitempty"`
	Attempts int            `json:"attempts"`
}

// DeliveryQueue keeps failed paid deliveries in a Redis list and retries
// them from a worker. Exhausted deliveries are logged at error level.
type DeliveryQueue struct {
	rdb         *redis.Client
	lookup      *LookupService
	notifier    Notifier
	log         *zap.Logger
	MaxAttempts int
	Backoff     time.Duration
}

func NewDeliveryQueue(rdb *redis.Client, lookup *LookupService, notifier Notifier, log *zap.Logger) *DeliveryQueue {
	return &DeliveryQueue{
		rdb:         rdb,
		lookup:      lookup,
		notifier:    notifier,
		log:         log,
		MaxAttempts: DefaultDeliveryRetries,
		Backoff:     2 * time.Second,
	}
}

// Enqueue stores d for a later attempt.
func (q *DeliveryQueue) Enqueue(ctx context.Context, d Delivery) error {
	if q == nil || q.rdb == nil {
		return errors.New("delivery queue not configured")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, DeliveryQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push delivery to redis: %w", err)
	}
	q.log.Info("delivery queued", zap.Int64("chat_id", d.ChatID), zap.String("vin", d.VIN), zap.Int("attempts", d.Attempts))
	return nil
}

// Len returns the number of deliveries waiting.
func (q *DeliveryQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, DeliveryQueueKey).Result()
}

// Run drains the queue until ctx is done.
func (q *DeliveryQueue) Run(ctx context.Context) {
	q.log.Info("delivery worker started")
	for {
		if ctx.Err() != nil {
			q.log.Info("delivery worker stopped")
			return
		}

		if _, err := q.ProcessNext(ctx, time.Second); err != nil && ctx.Err() == nil {
			q.log.Warn("delivery attempt failed", zap.Error(err))
			q.sleep(ctx, q.Backoff)
		}
	}
}

// ProcessNext waits up to wait for one delivery and attempts it. It reports
// whether a delivery was taken off the queue.
func (q *DeliveryQueue) ProcessNext(ctx context.Context, wait time.Duration) (bool, error) {
	result, err := q.rdb.BLPop(ctx, wait, DeliveryQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	// result[0] is the key, result[1] is the value
	var d Delivery
	if err := json.Unmarshal([]byte(result[1]), &d); err != nil {
		q.log.Error("dropping undecodable delivery", zap.String("raw", result[1]), zap.Error(err))
		return true, nil
	}

	if err := q.attempt(ctx, &d); err != nil {
		d.Attempts++
		if d.Attempts >= q.MaxAttempts {
			q.log.Error("paid report not delivered, giving up",
				zap.Int64("chat_id", d.ChatID),
				zap.String("vin", d.VIN),
				zap.String("event_id", d.EventID),
				zap.Int("attempts", d.Attempts),
				zap.Error(err),
			)
			return true, nil
		}
		if qerr := q.Enqueue(ctx, d); qerr != nil {
			q.log.Error("failed to requeue delivery", zap.String("event_id", d.EventID), zap.Error(qerr))
		}
		return true, err
	}

	q.log.Info("queued delivery sent", zap.Int64("chat_id", d.ChatID), zap.String("vin", d.VIN))
	return true, nil
}

func (q *DeliveryQueue) attempt(ctx context.Context, d *Delivery) error {
	if d.Report == nil {
		report, err := q.lookup.Lookup(ctx, d.VIN, models.ParseIdentity(d.UserKey))
		if err != nil {
			return err
		}
		d.Report = report
	}
	return q.notifier.DeliverReport(ctx, d.ChatID, d.Report)
}

func (q *DeliveryQueue) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
