package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/brainforcegit/vin-bot/internal/decoder"
	"github.com/brainforcegit/vin-bot/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

var hondaAttrs = []decoder.Attribute{
	{Name: "Make", Value: "Honda"},
	{Name: "Model", Value: "Accord"},
	{Name: "Model Year", Value: "2003"},
	{Name: "Vehicle Type", Value: "PASSENGER CAR"},
	{Name: "Plant Country", Value: "UNITED STATES (USA)"},
	{Name: "Body Class", Value: "Coupe"},
}

type fakeDecoder struct {
	mu    sync.Mutex
	attrs []decoder.Attribute
	err   error
	calls []string
}

func (f *fakeDecoder) Decode(ctx context.Context, vin string) ([]decoder.Attribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, vin)
	if f.err != nil {
		return nil, f.err
	}
	return f.attrs, nil
}

type sentReport struct {
	ChatID int64
	Report *models.Report
}

type fakeNotifier struct {
	mu      sync.Mutex
	err     error
	reports []sentReport
	credits []int
}

func (f *fakeNotifier) DeliverReport(ctx context.Context, chatID int64, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, sentReport{ChatID: chatID, Report: report})
	return f.err
}

func (f *fakeNotifier) NotifyCredits(ctx context.Context, chatID int64, added, balance int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits = append(f.credits, balance)
	return f.err
}

var errTransport = errors.New("telegram unreachable")

func countLogs(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	db.Model(&models.VINLog{}).Count(&n)
	return n
}

func newLookup(db *gorm.DB, d Decoder) *LookupService {
	return NewLookupService(db, d, zap.NewNop())
}
