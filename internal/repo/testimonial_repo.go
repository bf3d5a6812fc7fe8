// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Testimonial
// model, a plain CRUD table with no derived invariants.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotora/go-quote-backend/internal/domain"
)

// CreateTestimonial inserts a new testimonial row with a UUID primary key.
// New entries always start unapproved.
func CreateTestimonial(ctx context.Context, db *gorm.DB, author, body string, rating int) (*domain.Testimonial, error) {
	t := &domain.Testimonial{
		ID:        uuid.NewString(),
		Author:    author,
		Body:      body,
		Rating:    rating,
		Approved:  false,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// ListApprovedTestimonials returns the approved entries, newest first.
func ListApprovedTestimonials(ctx context.Context, db *gorm.DB, limit int) ([]domain.Testimonial, error) {
	var out []domain.Testimonial
	q := db.WithContext(ctx).
		Where("approved = ?", true).
		Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ApproveTestimonial flips the approved flag on an entry.
// Returns ErrNotFound when the row does not exist.
func ApproveTestimonial(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Testimonial{}).
		Where("id = ?", id).
		Update("approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
