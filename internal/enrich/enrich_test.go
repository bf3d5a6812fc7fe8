package enrich

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quotora/go-quote-backend/internal/config"
)

func TestClientIP_HeaderPriority(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	r.Header.Set("X-Real-IP", "198.51.100.4")
	r.Header.Set("CF-Connecting-IP", "192.0.2.9")

	if got := ClientIP(r); got != "192.0.2.9" {
		t.Fatalf("CF-Connecting-IP should win, got %q", got)
	}

	r.Header.Del("CF-Connecting-IP")
	if got := ClientIP(r); got != "198.51.100.4" {
		t.Fatalf("X-Real-IP should be next, got %q", got)
	}

	r.Header.Del("X-Real-IP")
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Fatalf("first X-Forwarded-For entry should be used, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Fatalf("socket address should be the fallback, got %q", got)
	}
}

func TestClientIP_GarbageHeadersSkipped(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("CF-Connecting-IP", "not-an-ip")
	r.Header.Set("X-Forwarded-For", "also garbage")

	if got := ClientIP(r); got != "10.0.0.1" {
		t.Fatalf("unparseable headers should fall through to socket addr, got %q", got)
	}
}

func TestClientIP_Unknown(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "garbage"
	if got := ClientIP(r); got != "" {
		t.Fatalf("expected unknown client, got %q", got)
	}
}

func TestHashIP(t *testing.T) {
	a := HashIP("192.0.2.9", "s1")
	if a == "" || len(a) != 64 {
		t.Fatalf("unexpected hash %q", a)
	}
	if a != HashIP("192.0.2.9", "s1") {
		t.Fatalf("hash not deterministic")
	}
	if a == HashIP("192.0.2.9", "s2") {
		t.Fatalf("salt should change the hash")
	}
	if a == HashIP("192.0.2.10", "s1") {
		t.Fatalf("different IPs should hash differently")
	}
	if HashIP("", "s1") != "" {
		t.Fatalf("empty IP must not produce a hash")
	}
}

func TestDeviceClass(t *testing.T) {
	cases := map[string]string{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)":       DeviceMobile,
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari":       DeviceMobile,
		"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)":                DeviceTablet,
		"Mozilla/5.0 (Linux; Android 14; SM-X710) Safari":              DeviceTablet,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)":                    DeviceDesktop,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)":                 DeviceDesktop,
		"Mozilla/5.0 (X11; Linux x86_64)":                              DeviceDesktop,
		"curl/8.4.0":                                                   DeviceUnknown,
		"": DeviceUnknown,
	}
	for ua, want := range cases {
		if got := DeviceClass(ua); got != want {
			t.Fatalf("DeviceClass(%q) = %q, want %q", ua, got, want)
		}
	}
}

func TestCollect_AnonymizedByDefault(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "192.0.2.9:4711"
	r.Header.Set("User-Agent", "Mozilla/5.0 (iPhone) Mobile")
	r.Header.Set("CF-IPCountry", "de")

	p := config.PrivacyConfig{
		AnonymizeIP:   true,
		StoreRawIP:    false,
		IPHashSalt:    "salt",
		CountryHeader: "CF-IPCountry",
	}
	v := Collect(r, p)

	if v.IP != nil {
		t.Fatalf("raw IP must not be stored when anonymizing: %v", *v.IP)
	}
	if v.IPHash != HashIP("192.0.2.9", "salt") {
		t.Fatalf("unexpected IP hash %q", v.IPHash)
	}
	if v.Country != "DE" {
		t.Fatalf("country should be uppercased two-letter code, got %q", v.Country)
	}
	if v.Device != DeviceMobile {
		t.Fatalf("device = %q", v.Device)
	}
}

func TestCollect_RawIPOnlyWhenExplicitlyEnabled(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "192.0.2.9:4711"

	v := Collect(r, config.PrivacyConfig{AnonymizeIP: false, StoreRawIP: true, IPHashSalt: "s", CountryHeader: "CF-IPCountry"})
	if v.IP == nil || *v.IP != "192.0.2.9" {
		t.Fatalf("raw IP should be stored when configured: %v", v.IP)
	}

	// StoreRawIP alone is not enough while anonymization is on.
	v = Collect(r, config.PrivacyConfig{AnonymizeIP: true, StoreRawIP: true, IPHashSalt: "s", CountryHeader: "CF-IPCountry"})
	if v.IP != nil {
		t.Fatalf("anonymization must override raw storage")
	}
}

func TestCollect_BadCountryIgnored(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "192.0.2.9:4711"
	r.Header.Set("CF-IPCountry", "Germany")

	v := Collect(r, config.PrivacyConfig{CountryHeader: "CF-IPCountry"})
	if v.Country != "" {
		t.Fatalf("non-ISO country value should be dropped, got %q", v.Country)
	}
}

func TestCollect_LongUserAgentTruncated(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "192.0.2.9:4711"
	r.Header.Set("User-Agent", strings.Repeat("a", 1024))

	v := Collect(r, config.PrivacyConfig{CountryHeader: "CF-IPCountry"})
	if len(v.UserAgent) != 512 {
		t.Fatalf("user agent should be capped at 512 bytes, got %d", len(v.UserAgent))
	}
}
