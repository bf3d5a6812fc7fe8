// Package notify dispatches the two best-effort notifications that follow a
// persisted quote: a customer confirmation email and an admin CRM webhook.
//
// Both dispatchers share the same contract: a bounded timeout, an error
// return for the caller to log, and no influence whatsoever on the already
// committed submission. The orchestrating service runs them fire-and-forget.
package notify

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch kinds used for metrics labels.
const (
	KindEmail   = "email"
	KindWebhook = "webhook"
)

var notifyFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of failed best-effort notification dispatches.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(notifyFailures)
}

// RecordFailure bumps the failure counter for a dispatch kind. Called by the
// orchestrating flow when a dispatcher returns an error.
func RecordFailure(kind string) {
	notifyFailures.WithLabelValues(kind).Inc()
}

// Message is a rendered notification ready to hand to a sender.
type Message struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers a rendered message to a recipient address.
// Implementations must honor ctx for cancellation and timeouts.
type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// QuoteSummary is the notification-facing view of a saved quote. It carries
// only what message assembly needs, so the package stays decoupled from the
// persistence model.
type QuoteSummary struct {
	ID         uint
	Name       string
	Email      string
	TotalPrice int64
	Currency   string
	Language   string
}

// ConfirmationMessage renders the customer confirmation for a saved quote.
// Formatting is deliberately minimal; the original product's HTML templates
// are out of scope.
func ConfirmationMessage(q QuoteSummary) Message {
	name := q.Name
	if name == "" {
		name = "there"
	}
	return Message{
		To:      q.Email,
		Subject: fmt.Sprintf("Your quote #%d", q.ID),
		Body: fmt.Sprintf(
			"Hi %s,\n\nThanks for your request. Your quote #%d comes to %s.\nWe will be in touch shortly.\n",
			name, q.ID, FormatAmount(q.TotalPrice, q.Currency),
		),
	}
}

// FormatAmount renders a minor-unit amount as "123.45 EUR".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
