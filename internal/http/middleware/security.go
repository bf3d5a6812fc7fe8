// security.go sets conservative security response headers on every response.
package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/quotora/go-quote-backend/internal/config"
)

// SecurityHeaders applies a baseline set of hardening headers. HSTS is only
// emitted when enabled in configuration, since it is harmful behind plain
// HTTP development setups.
func SecurityHeaders(cfg config.SecurityConfig) gin.HandlerFunc {
	var hsts string
	if cfg.EnableHSTS {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(cfg.HSTSMaxAge.Seconds()))
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// NoStore marks responses as non-cacheable. Every quote API route uses it:
// calculation results and submission outcomes are per-visitor and must never
// be served from shared caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Cache-Control", "no-store")
		c.Next()
	}
}
