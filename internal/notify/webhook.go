// CRM webhook dispatcher: the admin-facing counterpart to the confirmation
// email. Posts a compact JSON payload describing the new quote to the
// configured endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quotora/go-quote-backend/internal/config"
)

// CRMWebhook posts new-quote events to an external CRM endpoint.
type CRMWebhook struct {
	url    string
	token  string
	client *http.Client
}

// NewCRMWebhook builds a webhook dispatcher. It returns nil when no URL is
// configured; callers treat a nil dispatcher as "webhook disabled".
func NewCRMWebhook(cfg config.CRMConfig) *CRMWebhook {
	if cfg.WebhookURL == "" {
		return nil
	}
	return &CRMWebhook{
		url:    cfg.WebhookURL,
		token:  cfg.Token,
		client: &http.Client{},
	}
}

// webhookPayload is the wire shape posted to the CRM.
type webhookPayload struct {
	Event      string `json:"event"`
	QuoteID    uint   `json:"quote_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Language   string `json:"language,omitempty"`
}

// NotifyNewQuote posts a "quote.created" event. The request inherits its
// deadline from ctx; any non-2xx status is an error for the caller to log.
func (w *CRMWebhook) NotifyNewQuote(ctx context.Context, q QuoteSummary) error {
	body, err := json.Marshal(webhookPayload{
		Event:      "quote.created",
		QuoteID:    q.ID,
		Name:       q.Name,
		Email:      q.Email,
		TotalPrice: q.TotalPrice,
		Currency:   q.Currency,
		Language:   q.Language,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("crm webhook responded %d", resp.StatusCode)
	}
	return nil
}
