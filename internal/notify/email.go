// SendGrid-backed EmailSender. Dispatch is disabled cleanly when no API key
// is configured, so development environments run without outbound mail.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/quotora/go-quote-backend/internal/config"
)

// SendGridSender sends plain-text confirmations through the SendGrid v3 API.
type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender builds a sender from the email configuration. It returns
// nil when no API key is configured; callers treat a nil sender as "email
// disabled".
func NewSendGridSender(cfg config.EmailConfig) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// Send delivers msg via SendGrid. Non-2xx API responses are reported as
// errors so the caller can log and count them.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("empty recipient")
	}

	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail("", msg.To)
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sendgrid responded %d", resp.StatusCode)
	}
	return nil
}
