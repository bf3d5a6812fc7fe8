package services

import (
	"context"
	"errors"
	"testing"

	"github.com/quotora/go-quote-backend/internal/repo"
)

func TestTestimonialService_CreateValidation(t *testing.T) {
	svc := &TestimonialService{DB: newServiceDB(t)}
	ctx := context.Background()

	cases := []struct {
		author string
		body   string
		rating int
	}{
		{"", "body", 5},
		{"Ada", "", 5},
		{"Ada", "body", 0},
		{"Ada", "body", 6},
	}
	for _, c := range cases {
		if _, err := svc.Create(ctx, c.author, c.body, c.rating); !errors.Is(err, ErrInvalidTestimonial) {
			t.Fatalf("Create(%q,%q,%d): expected ErrInvalidTestimonial, got %v", c.author, c.body, c.rating, err)
		}
	}

	got, err := svc.Create(ctx, "Ada", "Smooth move.", 5)
	if err != nil || got.ID == "" || got.Approved {
		t.Fatalf("valid create: %+v err=%v", got, err)
	}
}

func TestTestimonialService_ApproveAndList(t *testing.T) {
	svc := &TestimonialService{DB: newServiceDB(t)}
	ctx := context.Background()

	created, err := svc.Create(ctx, "Ada", "Smooth move.", 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Unapproved entries stay hidden.
	out, err := svc.ListApproved(ctx, 10)
	if err != nil || len(out) != 0 {
		t.Fatalf("unapproved listed: %+v err=%v", out, err)
	}

	if err := svc.Approve(ctx, created.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	out, err = svc.ListApproved(ctx, 10)
	if err != nil || len(out) != 1 || out[0].ID != created.ID {
		t.Fatalf("approved not listed: %+v err=%v", out, err)
	}

	if err := svc.Approve(ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
