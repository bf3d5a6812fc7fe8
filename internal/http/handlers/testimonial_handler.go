// testimonial_handler.go serves customer testimonials: a public read of
// approved entries plus admin-only creation and approval.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotora/go-quote-backend/internal/domain"
	"github.com/quotora/go-quote-backend/internal/pricing"
	"github.com/quotora/go-quote-backend/internal/repo"
	"github.com/quotora/go-quote-backend/internal/services"
	"github.com/quotora/go-quote-backend/internal/utils"
)

// defaultTestimonialLimit bounds the public listing.
const (
	defaultTestimonialLimit = 20
	maxTestimonialLimit     = 50
)

// TestimonialHandler bundles the testimonial endpoints.
type TestimonialHandler struct {
	Service *services.TestimonialService
}

// NewTestimonialHandler wires the testimonial endpoints.
func NewTestimonialHandler(svc *services.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{Service: svc}
}

// testimonialView is the public wire form of a testimonial.
type testimonialView struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTestimonialView(t *domain.Testimonial) testimonialView {
	return testimonialView{
		ID:        t.ID,
		Author:    t.Author,
		Body:      t.Body,
		Rating:    t.Rating,
		CreatedAt: t.CreatedAt,
	}
}

// ListApproved returns approved testimonials, newest first.
//
//	GET /api/testimonials?limit=
func (h *TestimonialHandler) ListApproved(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), defaultTestimonialLimit)
	if limit < 1 || limit > maxTestimonialLimit {
		limit = defaultTestimonialLimit
	}

	items, err := h.Service.ListApproved(c.Request.Context(), limit)
	if err != nil {
		failInternal(c, err, "testimonial listing failed")
		return
	}

	views := make([]testimonialView, 0, len(items))
	for i := range items {
		views = append(views, toTestimonialView(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"testimonials": views,
	})
}

// createTestimonialRequest is the body of POST /api/admin/testimonials.
type createTestimonialRequest struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Rating int    `json:"rating"`
}

// Create stores a new, unapproved testimonial.
//
//	POST /api/admin/testimonials  {author, body, rating}
func (h *TestimonialHandler) Create(c *gin.Context) {
	var req createTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest)
		return
	}

	t, err := h.Service.Create(c.Request.Context(), req.Author, req.Body, req.Rating)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTestimonial) {
			failValidation(c, []pricing.FieldError{
				{Field: "testimonial", Message: "author and body are required; rating must be 1-5"},
			})
			return
		}
		failInternal(c, err, "testimonial creation failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"testimonial": toTestimonialView(t),
	})
}

// Approve publishes a testimonial.
//
//	PUT /api/admin/testimonials/:id/approve
func (h *TestimonialHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.Approve(c.Request.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, CodeNotFound)
			return
		}
		failInternal(c, err, "testimonial approval failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
