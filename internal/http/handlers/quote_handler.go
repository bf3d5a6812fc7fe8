// quote_handler.go implements the public quote endpoints: price calculation,
// per-step validation, quote submission, and sanitized quote lookup.
package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotora/go-quote-backend/internal/config"
	"github.com/quotora/go-quote-backend/internal/domain"
	"github.com/quotora/go-quote-backend/internal/enrich"
	"github.com/quotora/go-quote-backend/internal/pricing"
	"github.com/quotora/go-quote-backend/internal/services"
)

// Field length ceilings for contact and attribution input.
const (
	maxNameLen     = 200
	maxEmailLen    = 320
	maxPhoneLen    = 50
	maxLanguageLen = 35
	maxUTMLen      = 255
)

// QuoteHandler bundles the dependencies of the public quote endpoints.
type QuoteHandler struct {
	Service *services.QuoteService
	Privacy config.PrivacyConfig
}

// NewQuoteHandler wires a handler around the submission service.
func NewQuoteHandler(svc *services.QuoteService, privacy config.PrivacyConfig) *QuoteHandler {
	return &QuoteHandler{Service: svc, Privacy: privacy}
}

// calculateRequest is the body of POST /api/calculate.
type calculateRequest struct {
	Step     int            `json:"step"`
	Data     map[string]any `json:"data"`
	Language string         `json:"language"`
}

// Calculate validates the submitted step and, when valid, returns the priced
// result for the snapshot accumulated so far.
//
//	POST /api/calculate  {step, data, language?} → {success, result:{totalPrice, currency, breakdown}}
func (h *QuoteHandler) Calculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest)
		return
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}
	if errs := pricing.ValidateStep(req.Step, req.Data); len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	res := pricing.Calculate(req.Data, h.Service.Currency)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  res,
	})
}

// validateRequest is the body of POST /api/validate.
type validateRequest struct {
	Step int            `json:"step"`
	Data map[string]any `json:"data"`
}

// Validate checks a step's data and always answers 200: validity is a result,
// not an error.
//
//	POST /api/validate  {step, data} → {success, isValid, errors}
func (h *QuoteHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest)
		return
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}

	errs := pricing.ValidateStep(req.Step, req.Data)
	if errs == nil {
		errs = []pricing.FieldError{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"isValid": len(errs) == 0,
		"errors":  errs,
	})
}

// saveQuoteRequest is the body of POST /api/save-quote.
type saveQuoteRequest struct {
	Data       map[string]any   `json:"data"`
	TotalPrice *int64           `json:"totalPrice"`
	Breakdown  domain.Breakdown `json:"breakdown"`
	Currency   string           `json:"currency"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone"`
	Language   string           `json:"language"`
	UTMSource  string           `json:"utm_source"`
	UTMMedium  string           `json:"utm_medium"`
	UTMTerm    string           `json:"utm_term"`
	UTMContent string           `json:"utm_content"`
	UTMCamp    string           `json:"utm_campaign"`
	GCLID      string           `json:"gclid"`
}

// validate performs the schema checks on a submission and returns the list of
// violations, empty when the request is acceptable.
func (r *saveQuoteRequest) validate() []pricing.FieldError {
	var errs []pricing.FieldError

	if len(r.Data) == 0 {
		errs = append(errs, pricing.FieldError{Field: "data", Message: "snapshot is required"})
	}
	switch {
	case r.TotalPrice == nil:
		errs = append(errs, pricing.FieldError{Field: "totalPrice", Message: "totalPrice is required"})
	case *r.TotalPrice < 0:
		errs = append(errs, pricing.FieldError{Field: "totalPrice", Message: "totalPrice must not be negative"})
	}
	if r.Currency != "" && len(r.Currency) != 3 {
		errs = append(errs, pricing.FieldError{Field: "currency", Message: "currency must be a 3-letter code"})
	}
	if len(r.Name) > maxNameLen {
		errs = append(errs, pricing.FieldError{Field: "name", Message: "name is too long"})
	}
	if r.Email != "" {
		if len(r.Email) > maxEmailLen {
			errs = append(errs, pricing.FieldError{Field: "email", Message: "email is too long"})
		} else if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
			errs = append(errs, pricing.FieldError{Field: "email", Message: "email is not a valid address"})
		}
	}
	if len(r.Phone) > maxPhoneLen {
		errs = append(errs, pricing.FieldError{Field: "phone", Message: "phone is too long"})
	}
	if len(r.Language) > maxLanguageLen {
		errs = append(errs, pricing.FieldError{Field: "language", Message: "language tag is too long"})
	}
	for _, f := range []struct{ name, val string }{
		{"utm_source", r.UTMSource},
		{"utm_medium", r.UTMMedium},
		{"utm_campaign", r.UTMCamp},
		{"utm_term", r.UTMTerm},
		{"utm_content", r.UTMContent},
		{"gclid", r.GCLID},
	} {
		if len(f.val) > maxUTMLen {
			errs = append(errs, pricing.FieldError{Field: f.name, Message: f.name + " is too long"})
		}
	}
	return errs
}

// Save accepts a completed quote: schema validation, dedup by fingerprint,
// enrichment, persistence, and best-effort notifications all live in the
// submission service; the handler only shapes the envelope.
//
//	POST /api/save-quote → {success, quoteId, duplicate?, message}
func (h *QuoteHandler) Save(c *gin.Context) {
	var req saveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest)
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		failValidation(c, errs)
		return
	}

	visitor := enrich.Collect(c.Request, h.Privacy)

	sub := services.Submission{
		Data:        req.Data,
		TotalPrice:  *req.TotalPrice,
		Breakdown:   req.Breakdown,
		Currency:    req.Currency,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Language:    req.Language,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCamp,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		GCLID:       req.GCLID,
	}

	quote, duplicate, err := h.Service.Submit(c.Request.Context(), sub, visitor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptySnapshot):
			failValidation(c, []pricing.FieldError{{Field: "data", Message: "snapshot is required"}})
		case errors.Is(err, services.ErrNegativeTotal):
			failValidation(c, []pricing.FieldError{{Field: "totalPrice", Message: "totalPrice must not be negative"}})
		case errors.Is(err, services.ErrBreakdownMismatch):
			failValidation(c, []pricing.FieldError{{Field: "breakdown", Message: "breakdown does not sum to totalPrice"}})
		default:
			failInternal(c, err, "quote submission failed")
		}
		return
	}

	body := gin.H{
		"success": true,
		"quoteId": quote.ID,
		"message": "quote saved",
	}
	if duplicate {
		body["duplicate"] = true
		body["message"] = "quote already exists"
	}
	c.JSON(http.StatusOK, body)
}

// quoteSummary is the sanitized public view of a stored quote. Contact,
// attribution, and enrichment fields are deliberately absent.
type quoteSummary struct {
	ID         uint             `json:"id"`
	Data       domain.Snapshot  `json:"data"`
	TotalPrice int64            `json:"totalPrice"`
	Currency   string           `json:"currency"`
	Breakdown  domain.Breakdown `json:"breakdown,omitempty"`
	Language   string           `json:"language,omitempty"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Get returns the sanitized summary of a stored quote.
//
//	GET /api/quotes/:id → {success, quote} or 404
func (h *QuoteHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusNotFound, CodeNotFound)
		return
	}

	quote, err := h.Service.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrQuoteNotFound) {
			fail(c, http.StatusNotFound, CodeNotFound)
			return
		}
		failInternal(c, err, "quote lookup failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"quote": quoteSummary{
			ID:         quote.ID,
			Data:       quote.Data,
			TotalPrice: quote.TotalPrice,
			Currency:   quote.Currency,
			Breakdown:  quote.Breakdown,
			Language:   quote.Language,
			Status:     quote.Status,
			CreatedAt:  quote.CreatedAt,
		},
	})
}
