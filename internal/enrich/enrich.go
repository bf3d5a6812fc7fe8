// Package enrich attaches request metadata to a first-time quote submission:
// client IP (subject to the privacy settings), a one-way IP hash, coarse
// device class, and the country reported by the trusted edge.
//
// Everything here is best effort. Unknown or missing values degrade to empty
// fields; enrichment never fails a submission.
package enrich

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/quotora/go-quote-backend/internal/config"
)

// Device classes derived from the User-Agent string.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// Visitor is the enrichment result attached to a quote on first submission.
// IP is nil unless raw storage is explicitly enabled.
type Visitor struct {
	IP        *string
	IPHash    string
	Country   string
	Device    string
	UserAgent string
}

// ClientIP extracts the client address from forwarding headers in first-hop
// priority order: CF-Connecting-IP, X-Real-IP, the first X-Forwarded-For
// entry, then the socket address. It returns "" when no candidate parses as
// an IP, which callers treat as "unknown client".
func ClientIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}

// HashIP computes the deterministic one-way hash stored instead of (or next
// to) the raw address. The salt prevents trivial dictionary reversal of the
// small IPv4 space.
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:])
}

// DeviceClass buckets a User-Agent into mobile, tablet, desktop, or unknown.
// Tablet tokens are checked before mobile ones because Android tablets also
// advertise "Android".
func DeviceClass(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return DeviceUnknown
	}
	low := strings.ToLower(ua)
	switch {
	case strings.Contains(low, "ipad"),
		strings.Contains(low, "tablet"),
		strings.Contains(low, "kindle"),
		strings.Contains(low, "android") && !strings.Contains(low, "mobile"):
		return DeviceTablet
	case strings.Contains(low, "mobi"),
		strings.Contains(low, "iphone"),
		strings.Contains(low, "android"):
		return DeviceMobile
	case strings.Contains(low, "windows"),
		strings.Contains(low, "macintosh"),
		strings.Contains(low, "x11"),
		strings.Contains(low, "linux"):
		return DeviceDesktop
	}
	return DeviceUnknown
}

// Collect builds the enrichment for a request under the given privacy policy.
// With anonymization on, only the hash is retained; the raw address is
// additionally stored only when StoreRawIP is set and anonymization is off.
func Collect(r *http.Request, p config.PrivacyConfig) Visitor {
	ip := ClientIP(r)
	ua := r.UserAgent()

	v := Visitor{
		IPHash:    HashIP(ip, p.IPHashSalt),
		Device:    DeviceClass(ua),
		UserAgent: truncate(ua, 512),
	}

	if country := strings.ToUpper(strings.TrimSpace(r.Header.Get(p.CountryHeader))); len(country) == 2 {
		v.Country = country
	}

	if ip != "" && !p.AnonymizeIP && p.StoreRawIP {
		v.IP = &ip
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
