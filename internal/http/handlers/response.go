// response.go centralises the JSON envelopes all endpoints emit.
//
// Success responses always carry "success": true plus endpoint-specific
// fields. Failure responses share one shape:
//
//	{ "success": false, "error": "<code>", "errorId": "<correlation id>", "details": [...] }
//
// where details is present only for validation failures. Internal details
// never leak: a 500 exposes nothing but the correlation ID, which operators
// can match against server logs.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotora/go-quote-backend/internal/http/middleware"
	"github.com/quotora/go-quote-backend/internal/pricing"
)

// errorBody is the wire form of every failure response.
type errorBody struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	ErrorID string               `json:"errorId"`
	Details []pricing.FieldError `json:"details,omitempty"`
}

// fail aborts the request with the standard failure envelope.
func fail(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, errorBody{
		Success: false,
		Error:   code,
		ErrorID: middleware.CorrelationID(c),
	})
}

// failValidation aborts with 400 and a per-field error list.
func failValidation(c *gin.Context, details []pricing.FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
		Success: false,
		Error:   CodeValidation,
		ErrorID: middleware.CorrelationID(c),
		Details: details,
	})
}

// failInternal logs the underlying error with the request-scoped logger and
// responds 500 with only the correlation ID.
func failInternal(c *gin.Context, err error, msg string) {
	middleware.LoggerFrom(c).Error().Err(err).Msg(msg)
	fail(c, http.StatusInternalServerError, CodeInternal)
}
