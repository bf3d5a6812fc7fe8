// redact_logger.go implements a privacy-aware variant of the access logger.
//
// Quote submissions carry personal data (names, e-mail addresses, phone
// numbers, client IPs). RedactingLogger scrubs such values from the query
// string and masks sensitive headers before anything reaches the log stream,
// so operators get useful access logs without contact data leaking into them.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// sensitiveParams lists query parameter names whose values are replaced with
// redactedValue. Matching is case-insensitive.
var sensitiveParams = map[string]struct{}{
	"email":    {},
	"phone":    {},
	"name":     {},
	"token":    {},
	"apikey":   {},
	"api_key":  {},
	"password": {},
}

// sensitiveHeaders lists request headers that are masked in logs.
var sensitiveHeaders = []string{
	"Authorization",
	"X-Admin-Token",
	"Cookie",
}

const redactedValue = "[REDACTED]"

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{6,}\d`)
)

// RedactQuery rewrites a raw query string, masking the values of sensitive
// parameters and any free-form values that look like an e-mail address or a
// phone number. Malformed query strings are passed through scrubbed as a
// whole rather than parsed.
func RedactQuery(raw string) string {
	if raw == "" {
		return raw
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return scrubPII(raw)
	}
	for key, vals := range values {
		if _, hit := sensitiveParams[strings.ToLower(key)]; hit {
			for i := range vals {
				vals[i] = redactedValue
			}
			continue
		}
		for i := range vals {
			vals[i] = scrubPII(vals[i])
		}
	}
	return values.Encode()
}

// scrubPII masks e-mail addresses and phone-shaped digit runs inside s.
func scrubPII(s string) string {
	s = emailPattern.ReplaceAllString(s, redactedValue)
	s = phonePattern.ReplaceAllString(s, redactedValue)
	return s
}

// maskedHeader returns the loggable form of a header value: empty stays
// empty, anything else is fully masked.
func maskedHeader(v string) string {
	if v == "" {
		return ""
	}
	return redactedValue
}

// RedactingLogger behaves like Logger but scrubs personal data from the query
// string and masks credential-bearing headers. The quote API always uses this
// variant; the plain Logger exists for internal tooling.
func RedactingLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ctxLog := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(RedactQuery(c.Request.URL.RawQuery), maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength)

		for _, h := range sensitiveHeaders {
			if v := maskedHeader(c.GetHeader(h)); v != "" {
				ctxLog = ctxLog.Str("hdr_"+strings.ToLower(h), v)
			}
		}

		l := ctxLog.Logger()
		c.Set("logger", &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ev := l.With().
			Int("status", status).
			Dur("latency", latency).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", scrubPII(c.Errors.String())).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}
