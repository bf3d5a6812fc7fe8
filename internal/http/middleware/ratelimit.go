// ratelimit.go throttles quote submissions per visitor.
//
// Visitors are keyed by a SHA-256 hash of client IP and User-Agent, so the
// raw address never appears in the limiter store. Two backends exist:
//
//   - a Redis fixed-window counter (INCR + EXPIRE) shared across instances,
//     used whenever a Redis client is configured;
//   - an in-process token-bucket fallback for single-instance deployments
//     and tests.
//
// The limiter fails open: a Redis outage must never take down quote intake,
// so store errors are logged and the request is allowed through. Requests
// whose client IP cannot be determined are likewise allowed with a warning.
package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/quotora/go-quote-backend/internal/config"
	"github.com/quotora/go-quote-backend/internal/enrich"
)

// keyPrefix namespaces limiter counters in Redis.
const keyPrefix = "rl:quote:"

// RateLimiter throttles requests per visitor key. When store is nil the
// limiter runs entirely in process.
type RateLimiter struct {
	store  redis.Cmdable
	max    int
	window time.Duration

	mu      sync.Mutex
	local   map[string]*localVisitor
	lastGC  time.Time
	nowFunc func() time.Time
}

type localVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter from configuration. Pass a nil store to use
// the in-process fallback.
func NewRateLimiter(store redis.Cmdable, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store:   store,
		max:     cfg.MaxRequests,
		window:  cfg.Window,
		local:   make(map[string]*localVisitor),
		nowFunc: time.Now,
	}
}

// VisitorKey derives the limiter key for a client: hex(sha256(ip + "|" + ua)).
// Having the User-Agent in the key keeps distinct clients behind one NAT from
// starving each other while still bounding any single client.
func VisitorKey(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// Handler returns the Gin middleware enforcing the limit. Rejected requests
// receive 429 with a Retry-After header and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.max <= 0 || rl.window <= 0 {
			c.Next()
			return
		}

		ip := enrich.ClientIP(c.Request)
		if ip == "" {
			LoggerFrom(c).Warn().Msg("rate limiter: client IP unknown, allowing")
			c.Next()
			return
		}

		key := VisitorKey(ip, c.Request.UserAgent())
		allowed, retryAfter := rl.allow(c, key)
		if allowed {
			c.Next()
			return
		}

		LoggerFrom(c).Warn().Str("visitor", key[:12]).Msg("rate limit exceeded")
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   "rate_limited",
			"errorId": CorrelationID(c),
		})
	}
}

// allow reports whether the visitor may proceed and, when denied, how many
// seconds to wait before retrying.
func (rl *RateLimiter) allow(c *gin.Context, key string) (bool, int) {
	if rl.store == nil {
		return rl.allowLocal(key)
	}

	ctx := c.Request.Context()
	full := keyPrefix + key

	count, err := rl.store.Incr(ctx, full).Result()
	if err != nil {
		LoggerFrom(c).Warn().Err(err).Msg("rate limiter: store error, failing open")
		return true, 0
	}
	if count == 1 {
		// First hit of the window starts its expiry clock. If that fails the
		// counter would outlive its window and deny the visitor forever, so
		// drop it and fail open instead.
		if err := rl.store.Expire(ctx, full, rl.window).Err(); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("rate limiter: expire failed, dropping counter")
			if derr := rl.store.Del(ctx, full).Err(); derr != nil {
				LoggerFrom(c).Warn().Err(derr).Msg("rate limiter: counter cleanup failed")
			}
			return true, 0
		}
	}
	if count <= int64(rl.max) {
		return true, 0
	}

	retry := int(math.Ceil(rl.window.Seconds()))
	if ttl, err := rl.store.TTL(ctx, full).Result(); err == nil {
		if ttl > 0 {
			retry = int(math.Ceil(ttl.Seconds()))
		} else {
			// Counter without expiry, leaked by an earlier failed EXPIRE;
			// re-arm the window so the denial stays bounded.
			_ = rl.store.Expire(ctx, full, rl.window).Err()
		}
	}
	return false, retry
}

// allowLocal serves the in-process fallback: one token bucket per visitor,
// refilling at max/window with a burst of max.
func (rl *RateLimiter) allowLocal(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	rl.gcLocked(now)

	v, ok := rl.local[key]
	if !ok {
		perSecond := rate.Limit(float64(rl.max) / rl.window.Seconds())
		v = &localVisitor{limiter: rate.NewLimiter(perSecond, rl.max)}
		rl.local[key] = v
	}
	v.lastSeen = now

	if v.limiter.Allow() {
		return true, 0
	}
	return false, int(math.Ceil(rl.window.Seconds()))
}

// gcLocked evicts visitors idle for more than three windows. Called with
// rl.mu held, at most once per window.
func (rl *RateLimiter) gcLocked(now time.Time) {
	if now.Sub(rl.lastGC) < rl.window {
		return
	}
	rl.lastGC = now
	idle := 3 * rl.window
	for k, v := range rl.local {
		if now.Sub(v.lastSeen) > idle {
			delete(rl.local, k)
		}
	}
}
