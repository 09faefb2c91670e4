package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(opt SecurityOptions, prep func(*http.Request), preset map[string]string) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		for k, v := range preset {
			c.Header(k, v)
		}
		c.Next()
	})
	r.Use(SecurityHeaders(opt))
	r.GET("/api/requests", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
	if prep != nil {
		prep(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecurity(SecurityOptions{}, nil, nil)

	for k, want := range map[string]string{
		"X-Content-Type-Options":            "nosniff",
		"X-Frame-Options":                   "DENY",
		"Referrer-Policy":                   "no-referrer",
		"Permissions-Policy":                "",
		"X-Permitted-Cross-Domain-Policies": "",
		"Cache-Control":                     "",
		"Strict-Transport-Security":         "",
		"Access-Control-Expose-Headers":     "X-Request-ID, ETag, Idempotency-Replayed",
	} {
		if got := h.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestSecurityHeaders_ExposeMerge(t *testing.T) {
	cases := map[string]struct{ preset, want string }{
		"appends":       {"Foo", "Foo, X-Request-ID, ETag, Idempotency-Replayed"},
		"no duplicates": {"x-request-id, ETag", "x-request-id, ETag, Idempotency-Replayed"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := serveSecurity(SecurityOptions{}, nil, map[string]string{"Access-Control-Expose-Headers": tc.preset})
			if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_Optional(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, NoStore: true, EnablePolicy: true}

	h := serveSecurity(opt, func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, nil)
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers missing: %v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}

	// default max-age over a proxy-terminated connection
	h = serveSecurity(SecurityOptions{EnableHSTS: true}, func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") }, nil)
	if got := h.Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("HSTS via proxy = %q", got)
	}

	// never over plain HTTP
	if h := serveSecurity(SecurityOptions{EnableHSTS: true}, nil, nil); h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over http")
	}
}
