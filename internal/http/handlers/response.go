// Package handlers implements the REST endpoints of the dealer assistant:
// sessions and their transcripts, the record tables, the analytics
// dashboard, query suggestions and the model credential.
//
// Every error leaves through fail, so clients always see the same envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "session not found"
//	}
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dealer-assistant/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID, for matching a client error to server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"session not found"`
}

// fail aborts with the error envelope. 5xx responses are logged with the
// route and caller role; 4xx are the client's problem and only show up in
// the access log.
func fail(c *gin.Context, status int, code, msg string) {
	rid := middleware.RequestIDFrom(c)
	if rid == "" {
		rid = c.Writer.Header().Get("X-Request-ID")
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("route", c.FullPath()).
			Str("role", middleware.CallerFrom(c).Role).
			Msg(msg)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{RequestID: rid, Code: code, Message: msg})
}

// Fail lets the router answer NoRoute and NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// notModified sets etag on the response and answers 304 when the request's
// If-None-Match lists it (or is "*"). Weak comparison: a W/ prefix on either
// side is ignored.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	inm := c.GetHeader("If-None-Match")
	if inm == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, cand := range strings.Split(inm, ",") {
		cand = strings.TrimSpace(cand)
		if cand == "*" || strings.TrimPrefix(cand, "W/") == want {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}
