// sizeguard.go rejects oversized request bodies before they are read.
//
// The check is intentionally based on the declared Content-Length header: it
// is a cheap first line of defence that avoids buffering a large body only to
// discard it. Requests without a usable header pass through (chunked uploads,
// proxies that strip the header); the JSON decoder's own limits still bound
// what handlers will actually read.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxPayload returns middleware that rejects requests whose declared
// Content-Length exceeds maxBytes with 413 and the standard error envelope.
// A missing or non-numeric Content-Length is logged and allowed through.
func MaxPayload(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		declared := c.Request.ContentLength
		if raw := c.GetHeader("Content-Length"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				LoggerFrom(c).Warn().Str("content_length", raw).Msg("size guard: unparseable Content-Length, allowing")
				c.Next()
				return
			}
			declared = n
		}
		if declared < 0 {
			// Chunked upload or a proxy that stripped the header.
			if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
				LoggerFrom(c).Debug().Msg("size guard: no declared length, allowing")
			}
			c.Next()
			return
		}

		if declared > maxBytes {
			LoggerFrom(c).Warn().
				Int64("declared", declared).
				Int64("limit", maxBytes).
				Msg("size guard: payload too large")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   "payload_too_large",
				"errorId": CorrelationID(c),
			})
			return
		}
		c.Next()
	}
}
