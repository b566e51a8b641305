package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests only.
	EnableHSTS bool
	HSTSMaxAge time.Duration // default 180 days
	// NoStore marks every response uncacheable.
	NoStore bool
	// NoStorePrefixes marks responses under these path prefixes uncacheable,
	// for endpoints that echo credentials or private transcripts.
	NoStorePrefixes []string
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
}

// SecurityHeaders hardens JSON responses: nosniff, frame denial, no referrer,
// optional HSTS and cache suppression.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore || hasAnyPrefix(c.Request.URL.Path, opt.NoStorePrefixes) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			const expose = "Access-Control-Expose-Headers"
			switch cur := h.Get(expose); {
			case cur == "":
				h.Set(expose, requestIDHeader)
			case !strings.Contains(cur, requestIDHeader):
				h.Set(expose, cur+", "+requestIDHeader)
			}
		}
		c.Next()
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// isHTTPS reports TLS termination at this process or at a proxy that set
// X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
