package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds headers whose values are replaced wholesale.
// Authorization, Cookie and Set-Cookie are always masked.
type RedactOptions struct {
	MaskHeaders []string
}

// Scrub patterns. Order matters: ids and keys first, then emails, then the
// loose phone pattern, which would otherwise eat digit runs inside UUIDs.
var (
	uuidRE   = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	apiKeyRE = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}`)
	emailRE  = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE  = regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?\b\d{3,5}[ .-]?\d{3,5}(?:[ .-]?\d{2,5})?\b`)
)

func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = apiKeyRE.ReplaceAllString(s, "[REDACTED:key]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger writes one access log line per request and attaches a
// request-scoped logger carrying the request id and caller. Bodies are never
// logged; query strings and header values are scrubbed of UUIDs, model API
// keys, emails and phone numbers.
//
// Level: error for 5xx or recorded gin errors, warn for 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		who := CallerFrom(c)

		scoped := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("user_id", who.UserID).
			Str("role", who.Role).
			Logger()
		if who.DealerID != "" {
			scoped = scoped.With().Str("dealer_id", who.DealerID).Logger()
		}
		attachLogger(c, &scoped)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		status := c.Writer.Status()
		ev := scoped.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = scoped.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = scoped.Warn()
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", route).
			Str("query", truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
