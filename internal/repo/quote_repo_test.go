package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quotora/go-quote-backend/internal/domain"
)

func newQuoteRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("quote_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func testQuote(fp string) *domain.Quote {
	return &domain.Quote{
		Fingerprint: fp,
		Data:        domain.Snapshot{"serviceTier": "express"},
		TotalPrice:  44900,
		Currency:    "EUR",
		Breakdown:   domain.Breakdown{"base": 44900},
	}
}

func TestCreateQuote_SetsDefaults(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})

	q := testQuote("fp-defaults")
	start := time.Now().UTC().Add(-time.Minute)
	if err := CreateQuote(context.Background(), db, q); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	if q.ID == 0 {
		t.Fatalf("ID not assigned")
	}
	if q.Status != domain.StatusNew {
		t.Fatalf("status = %q, want %q", q.Status, domain.StatusNew)
	}
	if q.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset: %v", q.CreatedAt)
	}
}

func TestCreateQuote_DuplicateFingerprint(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})

	if err := CreateQuote(context.Background(), db, testQuote("fp-dup")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := CreateQuote(context.Background(), db, testQuote("fp-dup"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Only one row persisted.
	total, err := CountQuotes(context.Background(), db, "")
	if err != nil || total != 1 {
		t.Fatalf("count = %d err=%v, want 1 row", total, err)
	}
}

func TestCreateQuote_Error_NoTable(t *testing.T) {
	db := newQuoteRepoDB(t /* no migrations */)
	if err := CreateQuote(context.Background(), db, testQuote("fp")); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestGetQuoteByFingerprint(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})

	q := testQuote("fp-lookup")
	if err := CreateQuote(context.Background(), db, q); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}

	got, err := GetQuoteByFingerprint(context.Background(), db, "fp-lookup")
	if err != nil {
		t.Fatalf("GetQuoteByFingerprint: %v", err)
	}
	if got.ID != q.ID || got.TotalPrice != 44900 {
		t.Fatalf("unexpected quote: %+v", got)
	}
	if got.Data["serviceTier"] != "express" {
		t.Fatalf("snapshot column did not round-trip: %v", got.Data)
	}

	if _, err := GetQuoteByFingerprint(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetQuoteByFingerprint_FindsSoftDeleted(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})
	ctx := context.Background()

	q := testQuote("fp-tombstone")
	if err := CreateQuote(ctx, db, q); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	if _, err := SoftDeleteQuotesBefore(ctx, db, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("SoftDeleteQuotesBefore: %v", err)
	}

	// The tombstone still holds the unique index, so dedup must resolve to it.
	got, err := GetQuoteByFingerprint(ctx, db, "fp-tombstone")
	if err != nil {
		t.Fatalf("GetQuoteByFingerprint after soft delete: %v", err)
	}
	if got.ID != q.ID {
		t.Fatalf("resolved id = %d, want %d", got.ID, q.ID)
	}
	if !got.DeletedAt.Valid {
		t.Fatalf("expected the tombstone, got a live row: %+v", got)
	}
}

func TestGetQuote(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})
	q := testQuote("fp-get")
	if err := CreateQuote(context.Background(), db, q); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	got, err := GetQuote(context.Background(), db, q.ID)
	if err != nil || got.Fingerprint != "fp-get" {
		t.Fatalf("GetQuote: %+v err=%v", got, err)
	}
	if _, err := GetQuote(context.Background(), db, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestListQuotesPage_FilterAndOrder(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q := testQuote(fmt.Sprintf("fp-%d", i))
		q.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if i%2 == 0 {
			q.Status = domain.StatusContacted
		}
		if err := CreateQuote(ctx, db, q); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	all, err := ListQuotesPage(ctx, db, "", 0, 10)
	if err != nil || len(all) != 5 {
		t.Fatalf("list all: n=%d err=%v", len(all), err)
	}
	// Newest first.
	if all[0].Fingerprint != "fp-4" {
		t.Fatalf("expected newest first, got %s", all[0].Fingerprint)
	}

	contacted, err := ListQuotesPage(ctx, db, domain.StatusContacted, 0, 10)
	if err != nil || len(contacted) != 3 {
		t.Fatalf("status filter: n=%d err=%v", len(contacted), err)
	}

	page2, err := ListQuotesPage(ctx, db, "", 2, 2)
	if err != nil || len(page2) != 2 {
		t.Fatalf("pagination: n=%d err=%v", len(page2), err)
	}

	n, err := CountQuotes(ctx, db, domain.StatusContacted)
	if err != nil || n != 3 {
		t.Fatalf("CountQuotes filtered: %d err=%v", n, err)
	}
}

func TestUpdateQuoteStatus(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})
	ctx := context.Background()

	q := testQuote("fp-status")
	if err := CreateQuote(ctx, db, q); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}

	if err := UpdateQuoteStatus(ctx, db, q.ID, domain.StatusConverted); err != nil {
		t.Fatalf("UpdateQuoteStatus: %v", err)
	}
	got, _ := GetQuote(ctx, db, q.ID)
	if got.Status != domain.StatusConverted {
		t.Fatalf("status not persisted: %q", got.Status)
	}

	if err := UpdateQuoteStatus(ctx, db, 9999, domain.StatusRejected); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestRetentionSweepQueries(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})
	ctx := context.Background()

	old := testQuote("fp-old")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	fresh := testQuote("fp-fresh")
	for _, q := range []*domain.Quote{old, fresh} {
		if err := CreateQuote(ctx, db, q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	retired, err := SoftDeleteQuotesBefore(ctx, db, time.Now().UTC().Add(-24*time.Hour))
	if err != nil || retired != 1 {
		t.Fatalf("soft delete: n=%d err=%v", retired, err)
	}

	// The retired quote is invisible to normal queries.
	if _, err := GetQuote(ctx, db, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("soft-deleted quote should be hidden, got %v", err)
	}

	// Grace period not yet elapsed: nothing purged.
	purged, err := PurgeQuotesDeletedBefore(ctx, db, time.Now().UTC().Add(-time.Hour))
	if err != nil || purged != 0 {
		t.Fatalf("early purge: n=%d err=%v", purged, err)
	}

	// Past the grace period the row is removed for good.
	purged, err = PurgeQuotesDeletedBefore(ctx, db, time.Now().UTC().Add(time.Hour))
	if err != nil || purged != 1 {
		t.Fatalf("purge: n=%d err=%v", purged, err)
	}

	var raw int64
	if err := db.Unscoped().Model(&domain.Quote{}).Count(&raw).Error; err != nil || raw != 1 {
		t.Fatalf("expected 1 physical row, got %d err=%v", raw, err)
	}
}
