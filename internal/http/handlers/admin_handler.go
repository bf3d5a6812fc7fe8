// admin_handler.go implements the admin surface: paginated quote listing,
// status synchronisation, and aggregate stats. All routes sit behind a shared
// secret supplied in the X-Admin-Token header.
package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotora/go-quote-backend/internal/domain"
	"github.com/quotora/go-quote-backend/internal/pricing"
	"github.com/quotora/go-quote-backend/internal/services"
	"github.com/quotora/go-quote-backend/internal/utils"
)

// adminTokenHeader carries the shared admin secret.
const adminTokenHeader = "X-Admin-Token"

// AdminAuth gates a route group on the configured admin token. An empty
// configured token disables the whole admin surface rather than opening it.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(adminTokenHeader)
		if token == "" || presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			fail(c, http.StatusUnauthorized, CodeUnauthorized)
			return
		}
		c.Next()
	}
}

// AdminHandler bundles the dependencies of the admin endpoints.
type AdminHandler struct {
	Quotes       *services.QuoteService
	Testimonials *services.TestimonialService
}

// NewAdminHandler wires the admin endpoints.
func NewAdminHandler(q *services.QuoteService, t *services.TestimonialService) *AdminHandler {
	return &AdminHandler{Quotes: q, Testimonials: t}
}

// adminQuote is the admin-facing projection of a quote. Unlike the public
// summary it exposes contact, attribution and (hashed) enrichment data.
type adminQuote struct {
	ID          uint             `json:"id"`
	Fingerprint string           `json:"fingerprint"`
	Data        domain.Snapshot  `json:"data"`
	TotalPrice  int64            `json:"totalPrice"`
	Currency    string           `json:"currency"`
	Breakdown   domain.Breakdown `json:"breakdown,omitempty"`
	Name        string           `json:"name,omitempty"`
	Email       string           `json:"email,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	Language    string           `json:"language,omitempty"`
	IPHash      string           `json:"ipHash,omitempty"`
	Country     string           `json:"country,omitempty"`
	Device      string           `json:"device,omitempty"`
	UTMSource   string           `json:"utm_source,omitempty"`
	UTMMedium   string           `json:"utm_medium,omitempty"`
	UTMCampaign string           `json:"utm_campaign,omitempty"`
	UTMTerm     string           `json:"utm_term,omitempty"`
	UTMContent  string           `json:"utm_content,omitempty"`
	GCLID       string           `json:"gclid,omitempty"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toAdminQuote(q *domain.Quote) adminQuote {
	return adminQuote{
		ID:          q.ID,
		Fingerprint: q.Fingerprint,
		Data:        q.Data,
		TotalPrice:  q.TotalPrice,
		Currency:    q.Currency,
		Breakdown:   q.Breakdown,
		Name:        q.Name,
		Email:       q.Email,
		Phone:       q.Phone,
		Language:    q.Language,
		IPHash:      q.IPHash,
		Country:     q.Country,
		Device:      q.Device,
		UTMSource:   q.UTMSource,
		UTMMedium:   q.UTMMedium,
		UTMCampaign: q.UTMCampaign,
		UTMTerm:     q.UTMTerm,
		UTMContent:  q.UTMContent,
		GCLID:       q.GCLID,
		Status:      q.Status,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

// ListQuotes returns one page of quotes, newest first, optionally filtered by
// status.
//
//	GET /api/admin/quotes?page=&pageSize=&status=
func (h *AdminHandler) ListQuotes(c *gin.Context) {
	page, pageSize := utils.Pagination(
		c.Query("page"), c.Query("pageSize"),
	)
	status := c.Query("status")
	if status != "" && !domain.ValidStatus(status) {
		failValidation(c, []pricing.FieldError{{Field: "status", Message: "unknown status"}})
		return
	}

	quotes, total, err := h.Quotes.ListPage(c.Request.Context(), status, page, pageSize)
	if err != nil {
		failInternal(c, err, "quote listing failed")
		return
	}

	items := make([]adminQuote, 0, len(quotes))
	for i := range quotes {
		items = append(items, toAdminQuote(&quotes[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"quotes":   items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// statusUpdateRequest is the body of PUT /api/admin/quotes/:id/status.
type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus transitions a quote through the review pipeline.
//
//	PUT /api/admin/quotes/:id/status  {status}
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusNotFound, CodeNotFound)
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest)
		return
	}

	if err := h.Quotes.UpdateStatus(c.Request.Context(), uint(id), req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			failValidation(c, []pricing.FieldError{{Field: "status", Message: "unknown status"}})
		case errors.Is(err, services.ErrQuoteNotFound):
			fail(c, http.StatusNotFound, CodeNotFound)
		default:
			failInternal(c, err, "status update failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"quoteId": uint(id),
		"status":  req.Status,
	})
}

// Stats reports aggregate intake numbers for dashboards.
//
//	GET /api/admin/quotes/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	total, byStatus, latest, err := h.Quotes.Stats(c.Request.Context())
	if err != nil {
		failInternal(c, err, "stats query failed")
		return
	}

	body := gin.H{
		"success":  true,
		"total":    total,
		"byStatus": byStatus,
	}
	if latest != nil {
		body["lastUpdatedAt"] = latest
	}
	c.JSON(http.StatusOK, body)
}
