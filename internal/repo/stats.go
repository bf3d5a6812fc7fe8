// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the admin endpoints and for conditional responses (ETag generation).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/quotora/go-quote-backend/internal/domain"
)

// QuoteStats returns aggregate metadata over the quotes table: the total row
// count, per-status counts, and the greatest UpdatedAt among all rows (nil
// when the table is empty).
func QuoteStats(ctx context.Context, db *gorm.DB) (total int64, byStatus map[string]int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Quote{})

	if err = q.Count(&total).Error; err != nil {
		return 0, nil, nil, err
	}
	byStatus = make(map[string]int64)
	if total == 0 {
		return 0, byStatus, nil, nil
	}

	var rows []struct {
		Status string
		N      int64
	}
	if err = db.WithContext(ctx).Model(&domain.Quote{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return 0, nil, nil, err
	}
	for _, r := range rows {
		byStatus[r.Status] = r.N
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Quote{}).
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, nil, err
	}
	return total, byStatus, &row.UpdatedAt, nil
}
