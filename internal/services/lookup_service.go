package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brainforcegit/vin-bot/internal/decoder"
	"github.com/brainforcegit/vin-bot/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HistoryLimit bounds every history query.
const HistoryLimit = 10

// DefaultDecodeTimeout bounds a single call to the external decoder.
const DefaultDecodeTimeout = 10 * time.Second

// Decoder is the external VIN decoding service.
type Decoder interface {
	Decode(ctx context.Context, vin string) ([]decoder.Attribute, error)
}

// HistoryEntry is one stored lookup as returned by History.
type HistoryEntry struct {
	VIN       string
	UserID    string
	Timestamp time.Time
	Report    models.Report
}

type LookupService struct {
	db            *gorm.DB
	decoder       Decoder
	log           *zap.Logger
	decodeTimeout time.Duration
	now           func() time.Time
}

func NewLookupService(db *gorm.DB, d Decoder, log *zap.Logger) *LookupService {
	return &LookupService{
		db:            db,
		decoder:       d,
		log:           log,
		decodeTimeout: DefaultDecodeTimeout,
		now:           time.Now,
	}
}

// WithDecodeTimeout overrides DefaultDecodeTimeout.
func (s *LookupService) WithDecodeTimeout(d time.Duration) *LookupService {
	if d > 0 {
		s.decodeTimeout = d
	}
	return s
}

// Lookup validates vin, decodes it and stores exactly one VINLog for who.
// Nothing is written when validation or decoding fails.
func (s *LookupService) Lookup(ctx context.Context, vin string, who models.Identity) (*models.Report, error) {
	vin = models.NormalizeVIN(vin)
	if err := models.ValidateVIN(vin); err != nil {
		return nil, fmt.Errorf("%w: must be %d letters or digits", ErrInvalidInput, models.VINLength)
	}

	decodeCtx, cancel := context.WithTimeout(ctx, s.decodeTimeout)
	defer cancel()

	attrs, err := s.decoder.Decode(decodeCtx, vin)
	if err != nil {
		s.log.Warn("vin decode failed", zap.String("vin", vin), zap.String("user_id", who.Key()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	report := Normalize(vin, attrs)

	record := models.VINLog{
		ID:        strings.ReplaceAll(uuid.New().String(), "-", ""),
		VIN:       vin,
		UserID:    who.Key(),
		Timestamp: s.now().UTC(),
		Report:    report,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.log.Error("failed to store vin log", zap.String("vin", vin), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.log.Info("vin decoded",
		zap.String("vin", vin),
		zap.String("user_id", who.Key()),
		zap.String("record_id", record.ID),
	)
	return &report, nil
}

// History returns the newest HistoryLimit lookups stored under exactly
// userKey. "42" and "paid:42" are separate buckets.
func (s *LookupService) History(ctx context.Context, userKey string) ([]HistoryEntry, error) {
	return s.history(ctx, []string{userKey})
}

// AccountHistory merges the free and paid buckets of one Telegram user.
func (s *LookupService) AccountHistory(ctx context.Context, telegramUserID string) ([]HistoryEntry, error) {
	return s.history(ctx, []string{
		models.FreeUser(telegramUserID).Key(),
		models.PaidUser(telegramUserID).Key(),
	})
}

func (s *LookupService) history(ctx context.Context, keys []string) ([]HistoryEntry, error) {
	var logs []models.VINLog
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", keys).
		Order("timestamp desc").
		Limit(HistoryLimit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	entries := make([]HistoryEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, HistoryEntry{
			VIN:       l.VIN,
			UserID:    l.UserID,
			Timestamp: l.Timestamp,
			Report:    l.Report,
		})
	}
	return entries, nil
}
