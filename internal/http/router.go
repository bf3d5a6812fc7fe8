// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// payload size guarding, rate limiting, CORS, and security headers.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/quotora/go-quote-backend/internal/config"
	"github.com/quotora/go-quote-backend/internal/http/handlers"
	"github.com/quotora/go-quote-backend/internal/http/middleware"
	"github.com/quotora/go-quote-backend/internal/notify"
	"github.com/quotora/go-quote-backend/internal/services"
)

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine and returns the quote service so the caller can drain in-flight
// notification dispatches at shutdown.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Payload size guard (declared Content-Length)
//  6. Metrics
//  7. CORS and security headers
//
// The per-visitor rate limiter and Cache-Control: no-store apply to the /api
// group only; /health and /metrics stay unthrottled for probes and scrapes.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb redis.Cmdable, cfg config.Config) *services.QuoteService {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with contact-data redaction
	r.Use(middleware.RedactingLogger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Declared-size guard before any body is read
	r.Use(middleware.MaxPayload(cfg.MaxPayloadBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", middleware.MetricsHandler())

	// 7) CORS grants come from the configured allow-list only. With no
	// origins configured the middleware is skipped entirely, so no
	// cross-origin grant is ever issued (default closed).
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Retry-After", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled)
	r.Use(middleware.SecurityHeaders(cfg.Security))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   handlers.CodeNotFound,
			"errorId": middleware.CorrelationID(c),
		})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"success": false,
			"error":   handlers.CodeMethodNotAllowed,
			"errorId": middleware.CorrelationID(c),
		})
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/notification channels
	quoteSvc := &services.QuoteService{
		DB:            db,
		Currency:      cfg.Currency,
		NotifyTimeout: cfg.NotifyTimeout,
	}
	if sender := notify.NewSendGridSender(cfg.Email); sender != nil {
		quoteSvc.Email = sender
	}
	if hook := notify.NewCRMWebhook(cfg.CRM); hook != nil {
		quoteSvc.Webhook = hook
	}
	testimonialSvc := &services.TestimonialService{DB: db}

	qh := handlers.NewQuoteHandler(quoteSvc, cfg.Privacy)
	th := handlers.NewTestimonialHandler(testimonialSvc)
	ah := handlers.NewAdminHandler(quoteSvc, testimonialSvc)

	rl := middleware.NewRateLimiter(rdb, cfg.RateLimit)

	// Public API
	api := r.Group("/api")
	api.Use(middleware.NoStore())
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	api.Use(rl.Handler())
	{
		api.POST("/calculate", qh.Calculate)
		api.POST("/validate", qh.Validate)
		api.POST("/save-quote", qh.Save)
		api.GET("/quotes/:id", qh.Get)
		api.GET("/testimonials", th.ListApproved)
	}

	// Admin API behind the shared token; not visitor-rate-limited.
	admin := r.Group("/api/admin")
	admin.Use(middleware.NoStore())
	admin.Use(handlers.AdminAuth(cfg.AdminToken))
	{
		admin.GET("/quotes", ah.ListQuotes)
		admin.PUT("/quotes/:id/status", ah.UpdateStatus)
		admin.GET("/quotes/stats", ah.Stats)
		admin.POST("/testimonials", th.Create)
		admin.PUT("/testimonials/:id/approve", th.Approve)
	}

	return quoteSvc
}
