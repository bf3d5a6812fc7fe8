// Package services – QuoteService
//
// This file implements QuoteService, the application-level component that owns
// the quote submission flow: validate, deduplicate by content fingerprint,
// enrich, persist, and finally dispatch best-effort notifications. The flow is
// strictly ordered; the first failing stage terminates the request, and the
// notification stage can never fail it because it runs after the response is
// already decided.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// quote identifiers and the duplicate outcome.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"

	"github.com/quotora/go-quote-backend/internal/domain"
	"github.com/quotora/go-quote-backend/internal/enrich"
	"github.com/quotora/go-quote-backend/internal/fingerprint"
	"github.com/quotora/go-quote-backend/internal/notify"
	"github.com/quotora/go-quote-backend/internal/repo"
)

var (
	quotesSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotes_saved_total",
		Help: "Total number of newly persisted quote submissions.",
	})
	quotesDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotes_duplicate_total",
		Help: "Total number of submissions resolved to an existing fingerprint.",
	})
)

func init() {
	prometheus.MustRegister(quotesSaved, quotesDuplicate)
}

// Submission is the validated service-level input for one calculator
// submission. Handlers populate it from the request payload; the enrichment
// visitor is collected from transport headers before the call.
type Submission struct {
	Data       map[string]any
	TotalPrice int64
	Breakdown  domain.Breakdown
	Currency   string

	Name     string
	Email    string
	Phone    string
	Language string

	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	GCLID       string
}

// QuoteService coordinates quote persistence, deduplication, and the two
// post-persistence notification dispatches.
type QuoteService struct {
	DB       *gorm.DB
	Currency string // default currency when the submission carries none

	// Notification targets; either may be nil (disabled).
	Email   notify.EmailSender
	Webhook *notify.CRMWebhook

	// NotifyTimeout bounds each dispatch individually.
	NotifyTimeout time.Duration

	// wg tracks in-flight fire-and-forget dispatches so tests and shutdown
	// can wait for them.
	wg sync.WaitGroup
}

// Submit runs the submission flow for sub and the request's enrichment
// visitor. It returns the persisted (or pre-existing) quote and a duplicate
// flag.
//
// Semantics:
//   - Validation failures (negative total, breakdown/total mismatch, empty
//     snapshot) are returned before any storage access.
//   - A fingerprint hit short-circuits with duplicate=true and zero writes.
//     Retention-tombstoned rows count as hits too: they still hold the unique
//     fingerprint index until purged.
//   - A unique-index violation during insert is resolved the same way,
//     covering two identical submissions racing each other.
//   - Insert failure is fatal; no notification is attempted without a row.
//   - Notifications are fire-and-forget with a bounded per-dispatch timeout;
//     their failure is logged and counted, never surfaced.
func (s *QuoteService) Submit(ctx context.Context, sub Submission, visitor enrich.Visitor) (*domain.Quote, bool, error) {
	tr := otel.Tracer("services/QuoteService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.Int64("quote.total_price", sub.TotalPrice)),
	)
	defer span.End()

	// Validating
	if len(sub.Data) == 0 {
		return nil, false, ErrEmptySnapshot
	}
	if sub.TotalPrice < 0 {
		return nil, false, ErrNegativeTotal
	}
	if len(sub.Breakdown) > 0 && sub.Breakdown.Sum() != sub.TotalPrice {
		return nil, false, ErrBreakdownMismatch
	}

	// Deduplicating
	fp := fingerprint.Compute(sub.Data, sub.TotalPrice)
	span.SetAttributes(attribute.String("quote.fingerprint", fp[:12]))

	existing, err := repo.GetQuoteByFingerprint(ctx, s.DB, fp)
	switch {
	case err == nil:
		quotesDuplicate.Inc()
		span.SetAttributes(attribute.Bool("quote.duplicate", true))
		return existing, true, nil
	case !errors.Is(err, repo.ErrNotFound):
		return nil, false, err
	}

	// Enriching + Persisting
	q := &domain.Quote{
		Fingerprint: fp,
		Data:        domain.Snapshot(sub.Data),
		TotalPrice:  sub.TotalPrice,
		Breakdown:   sub.Breakdown,
		Currency:    s.currencyOr(sub.Currency),

		Name:     strings.TrimSpace(sub.Name),
		Email:    strings.TrimSpace(strings.ToLower(sub.Email)),
		Phone:    strings.TrimSpace(sub.Phone),
		Language: normalizeLanguage(sub.Language),

		IP:        visitor.IP,
		IPHash:    visitor.IPHash,
		Country:   visitor.Country,
		Device:    visitor.Device,
		UserAgent: visitor.UserAgent,

		UTMSource:   sub.UTMSource,
		UTMMedium:   sub.UTMMedium,
		UTMCampaign: sub.UTMCampaign,
		UTMTerm:     sub.UTMTerm,
		UTMContent:  sub.UTMContent,
		GCLID:       sub.GCLID,
	}

	if err := repo.CreateQuote(ctx, s.DB, q); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost the race against an identical submission; serve its row.
			if winner, ferr := repo.GetQuoteByFingerprint(ctx, s.DB, fp); ferr == nil {
				quotesDuplicate.Inc()
				return winner, true, nil
			}
		}
		return nil, false, err
	}
	quotesSaved.Inc()
	span.SetAttributes(attribute.Int("quote.id", int(q.ID)))

	// NotifyingBestEffort: detached from the request context on purpose —
	// the response depends on persistence alone.
	s.dispatchNotifications(q)

	return q, false, nil
}

// dispatchNotifications launches the confirmation email and the CRM webhook
// as independent goroutines, each with its own timeout.
func (s *QuoteService) dispatchNotifications(q *domain.Quote) {
	summary := notify.QuoteSummary{
		ID:         q.ID,
		Name:       q.Name,
		Email:      q.Email,
		TotalPrice: q.TotalPrice,
		Currency:   q.Currency,
		Language:   q.Language,
	}
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	if s.Email != nil && summary.Email != "" {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := s.Email.Send(ctx, notify.ConfirmationMessage(summary)); err != nil {
				notify.RecordFailure(notify.KindEmail)
				log.Warn().Err(err).Uint("quote_id", summary.ID).Msg("confirmation email failed")
			}
		}()
	}

	if s.Webhook != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := s.Webhook.NotifyNewQuote(ctx, summary); err != nil {
				notify.RecordFailure(notify.KindWebhook)
				log.Warn().Err(err).Uint("quote_id", summary.ID).Msg("crm webhook failed")
			}
		}()
	}
}

// WaitNotifications blocks until all in-flight dispatches have finished.
// Used by graceful shutdown and by tests asserting dispatch behavior.
func (s *QuoteService) WaitNotifications() { s.wg.Wait() }

// Get fetches a quote by ID, mapping missing rows to ErrQuoteNotFound.
func (s *QuoteService) Get(ctx context.Context, id uint) (*domain.Quote, error) {
	q, err := repo.GetQuote(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListPage returns a page of quotes for the admin view and the total count.
func (s *QuoteService) ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.Quote, int64, error) {
	tr := otel.Tracer("services/QuoteService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("filter.status", status),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountQuotes(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Quote{}, 0, nil
	}

	items, err := repo.ListQuotesPage(ctx, s.DB, status, offset, pageSize)
	return items, total, err
}

// UpdateStatus performs an administrative status sync on a quote.
func (s *QuoteService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := repo.UpdateQuoteStatus(ctx, s.DB, id, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrQuoteNotFound
		}
		return err
	}
	return nil
}

// Stats aggregates intake numbers for the admin dashboard.
func (s *QuoteService) Stats(ctx context.Context) (int64, map[string]int64, *time.Time, error) {
	ctx, span := otel.Tracer("services/QuoteService").Start(ctx, "Stats")
	defer span.End()
	return repo.QuoteStats(ctx, s.DB)
}

// currencyOr returns the submission currency when set, else the configured
// default.
func (s *QuoteService) currencyOr(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) == 3 {
		return c
	}
	if s.Currency != "" {
		return s.Currency
	}
	return "EUR"
}

// normalizeLanguage parses a BCP-47 tag and returns its canonical form, or
// "" when the tag is unparseable. Unknown languages are tolerated.
func normalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil || t == language.Und {
		return ""
	}
	return t.String()
}
