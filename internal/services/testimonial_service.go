// Package services – TestimonialService
//
// Thin use-case wrapper over the testimonial repository: input validation and
// normalization only, no workflow.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/quotora/go-quote-backend/internal/domain"
	"github.com/quotora/go-quote-backend/internal/repo"
)

// TestimonialService manages the testimonial CRUD records.
type TestimonialService struct {
	DB *gorm.DB
}

// Create validates and stores a new, unapproved testimonial.
func (s *TestimonialService) Create(ctx context.Context, author, body string, rating int) (*domain.Testimonial, error) {
	author = strings.TrimSpace(author)
	body = strings.TrimSpace(body)
	if author == "" || body == "" || rating < 1 || rating > 5 {
		return nil, ErrInvalidTestimonial
	}
	return repo.CreateTestimonial(ctx, s.DB, author, body, rating)
}

// ListApproved returns up to limit approved testimonials, newest first.
func (s *TestimonialService) ListApproved(ctx context.Context, limit int) ([]domain.Testimonial, error) {
	return repo.ListApprovedTestimonials(ctx, s.DB, limit)
}

// Approve publishes a testimonial. Missing rows map to repo.ErrNotFound for
// the handler to translate.
func (s *TestimonialService) Approve(ctx context.Context, id string) error {
	if err := repo.ApproveTestimonial(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		return err
	}
	return nil
}
