package retention

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quotora/go-quote-backend/internal/config"
	"github.com/quotora/go-quote-backend/internal/domain"
	"github.com/quotora/go-quote-backend/internal/repo"
)

func newSweeperDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("sweeper_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedQuote(t *testing.T, db *gorm.DB, fp string, age time.Duration) *domain.Quote {
	t.Helper()
	q := &domain.Quote{
		Fingerprint: fp,
		Data:        domain.Snapshot{"k": "v"},
		TotalPrice:  100,
		Currency:    "EUR",
		CreatedAt:   time.Now().UTC().Add(-age),
	}
	if err := repo.CreateQuote(context.Background(), db, q); err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	return q
}

func TestSweeper_RetiresAndPurges(t *testing.T) {
	db := newSweeperDB(t)

	seedQuote(t, db, "fp-ancient", 100*24*time.Hour)
	fresh := seedQuote(t, db, "fp-fresh", time.Hour)

	s := NewSweeper(db, config.RetentionConfig{
		MaxAge:        30 * 24 * time.Hour,
		PurgeGrace:    90 * 24 * time.Hour,
		SweepInterval: time.Hour,
	})
	s.sweep()

	ctx := context.Background()
	if _, err := repo.GetQuote(ctx, db, fresh.ID); err != nil {
		t.Fatalf("fresh quote must survive the sweep: %v", err)
	}
	n, err := repo.CountQuotes(ctx, db, "")
	if err != nil || n != 1 {
		t.Fatalf("expected only the fresh quote to remain visible: n=%d err=%v", n, err)
	}

	// The retired row still exists physically until the grace period passes.
	var raw int64
	if err := db.Unscoped().Model(&domain.Quote{}).Count(&raw).Error; err != nil || raw != 2 {
		t.Fatalf("retired row purged too early: raw=%d err=%v", raw, err)
	}
}

func TestSweeper_PurgeAfterGrace(t *testing.T) {
	db := newSweeperDB(t)
	ctx := context.Background()

	old := seedQuote(t, db, "fp-old", 48*time.Hour)
	if _, err := repo.SoftDeleteQuotesBefore(ctx, db, time.Now().UTC()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// Backdate the tombstone beyond the grace period.
	if err := db.Unscoped().Model(&domain.Quote{}).Where("id = ?", old.ID).
		Update("deleted_at", time.Now().UTC().Add(-10*24*time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	s := NewSweeper(db, config.RetentionConfig{
		MaxAge:        30 * 24 * time.Hour,
		PurgeGrace:    7 * 24 * time.Hour,
		SweepInterval: time.Hour,
	})
	s.sweep()

	var raw int64
	if err := db.Unscoped().Model(&domain.Quote{}).Count(&raw).Error; err != nil || raw != 0 {
		t.Fatalf("expected purge, raw=%d err=%v", raw, err)
	}
}

func TestSweeper_StartStop(t *testing.T) {
	db := newSweeperDB(t)

	s := NewSweeper(db, config.RetentionConfig{
		MaxAge:        30 * 24 * time.Hour,
		PurgeGrace:    90 * 24 * time.Hour,
		SweepInterval: 10 * time.Millisecond,
	})
	s.Start()
	time.Sleep(30 * time.Millisecond)
	s.Stop() // must not hang or panic

	// Stopping twice is safe.
	s.Stop()
}

func TestSweeper_DisabledInterval(t *testing.T) {
	s := NewSweeper(newSweeperDB(t), config.RetentionConfig{})
	s.Start()
	s.Stop() // returns immediately
}
