package repo

import (
	"context"
	"testing"

	"github.com/quotora/go-quote-backend/internal/domain"
)

func TestQuoteStats_Empty(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})

	total, byStatus, latest, err := QuoteStats(context.Background(), db)
	if err != nil {
		t.Fatalf("QuoteStats: %v", err)
	}
	if total != 0 || len(byStatus) != 0 || latest != nil {
		t.Fatalf("empty table stats: total=%d byStatus=%v latest=%v", total, byStatus, latest)
	}
}

func TestQuoteStats_CountsByStatus(t *testing.T) {
	db := newQuoteRepoDB(t, &domain.Quote{})
	ctx := context.Background()

	seed := []string{domain.StatusNew, domain.StatusNew, domain.StatusContacted}
	for i, status := range seed {
		q := testQuote("fp-stats-" + string(rune('a'+i)))
		q.Status = status
		if err := CreateQuote(ctx, db, q); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	total, byStatus, latest, err := QuoteStats(ctx, db)
	if err != nil {
		t.Fatalf("QuoteStats: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if byStatus[domain.StatusNew] != 2 || byStatus[domain.StatusContacted] != 1 {
		t.Fatalf("byStatus = %v", byStatus)
	}
	if latest == nil || latest.IsZero() {
		t.Fatalf("latest updated_at should be set, got %v", latest)
	}
}
