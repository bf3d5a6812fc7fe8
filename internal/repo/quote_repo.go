// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Quote model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a quote is not found, ErrNotFound (gorm.ErrRecordNotFound) is returned.
//   - When an insert collides with an existing fingerprint, ErrDuplicate is
//     returned; the caller resolves the existing row.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quotora/go-quote-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a quote with the same fingerprint already
// exists. It is the persistence-level signal behind idempotent submissions.
var ErrDuplicate = errors.New("duplicate fingerprint")

// CreateQuote inserts a new quote row. CreatedAt is set to UTC and the
// initial status to "new" unless the caller pre-filled one.
//
// A unique violation on the fingerprint column is mapped to ErrDuplicate so
// that two racing submissions of identical content resolve to one row.
func CreateQuote(ctx context.Context, db *gorm.DB, q *domain.Quote) error {
	if q.Status == "" {
		q.Status = domain.StatusNew
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetQuoteByFingerprint returns the quote carrying the given fingerprint,
// or ErrNotFound.
//
// The lookup is unscoped on purpose: a retention tombstone still occupies the
// unique fingerprint index, so dedup must resolve to it — otherwise an
// identical resubmission during the purge-grace window would collide on
// insert with no row to fall back to.
func GetQuoteByFingerprint(ctx context.Context, db *gorm.DB, fp string) (*domain.Quote, error) {
	var q domain.Quote
	err := db.WithContext(ctx).
		Unscoped().
		Where("fingerprint = ?", fp).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuote fetches a single quote by its numeric ID, or ErrNotFound.
func GetQuote(ctx context.Context, db *gorm.DB, id uint) (*domain.Quote, error) {
	var q domain.Quote
	err := db.WithContext(ctx).First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CountQuotes returns the total number of quotes, optionally filtered by
// workflow status (empty status means all).
func CountQuotes(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Quote{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListQuotesPage returns a paginated slice of quotes ordered by creation time
// descending, optionally filtered by status. Use CountQuotes for pagination
// metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListQuotesPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.Quote, error) {
	q := db.WithContext(ctx).Model(&domain.Quote{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Quote
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateQuoteStatus moves a quote to a new workflow state. It returns
// ErrNotFound when no row was affected.
func UpdateQuoteStatus(ctx context.Context, db *gorm.DB, id uint, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDeleteQuotesBefore marks quotes created before cutoff as deleted and
// returns the number of rows affected. Already soft-deleted rows are skipped
// by GORM's default scope.
func SoftDeleteQuotesBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.Quote{})
	return res.RowsAffected, res.Error
}

// PurgeQuotesDeletedBefore permanently removes quotes whose soft-delete
// timestamp is older than cutoff and returns the number of rows removed.
func PurgeQuotesDeletedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&domain.Quote{})
	return res.RowsAffected, res.Error
}
