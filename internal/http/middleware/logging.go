// Package middleware contains the Gin middleware shared by every route:
// correlation ids, caller identity, access logging with PII scrubbing,
// panic recovery, metrics, idempotency, rate limiting and security headers.
//
// Recommended order (see httpapi.RegisterRoutes):
//
//	RequestID → Identity → RedactingLogger → Recovery → Metrics →
//	IdempotencyValidator → RateLimiter → SecurityHeaders
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// maxRequestIDLen bounds client-supplied correlation ids.
	maxRequestIDLen = 128
	// maxQueryLogLength caps the raw query string written to logs.
	maxQueryLogLength = 2048
)

// RequestID reuses a well-formed X-Request-ID from the client or mints a
// UUID, then echoes it on the response and stores it in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// validRequestID accepts short printable ASCII ids without spaces, so a
// client cannot inject newlines or huge values into every log line.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}

// Recovery turns a panic into the standard JSON 500 envelope and logs the
// stack with the caller that triggered it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			who := CallerFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Str("role", who.Role).
				Str("route", c.FullPath()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			abort(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// attachLogger stores lg in the Gin context and in the request context, so
// services that only see a context.Context can use zerolog.Ctx.
// abort ends the request with the API error envelope.
func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}

func attachLogger(c *gin.Context, lg *zerolog.Logger) {
	c.Set(loggerKey, lg)
	c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// no access logger ran.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate cuts s to max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
