package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/http/middleware"
	"github.com/tbourn/go-dealer-assistant/internal/services"
)

const (
	// defaultMaxPromptRunes applies when Services.MaxPromptRunes is unset.
	defaultMaxPromptRunes = 4000
	// maxClientQueryIDRunes matches the varchar(128) message column.
	maxClientQueryIDRunes = 128
)

// PostMessageRequest is the body of POST /sessions/{id}/messages. Content is
// normalized (line endings, blank-line runs, surrounding space) before the
// length check.
type PostMessageRequest struct {
	// Content is the user query. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"Show pending claims in Chennai"`
	// ClientQueryID is echoed on the stored query and its reply so a client
	// with several questions in flight can match them up.
	ClientQueryID string `json:"client_query_id,omitempty" maxLength:"128" example:"q-1712345678901"`
}

// PostMessageResponse carries the assistant reply.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// ListMessagesResponse is one page of a transcript.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

var blankRunRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent turns CRLF and CR into LF, squeezes runs of blank lines to
// one and trims.
func sanitizeContent(raw string) string {
	s := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(raw)
	return strings.TrimSpace(blankRunRE.ReplaceAllString(s, "\n\n"))
}

// idempotencyKey prefers the key validated by middleware and falls back to
// the raw header.
func idempotencyKey(c *gin.Context) string {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k
	}
	return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
}

// sessionParam validates the :id path segment, failing the request when it
// is not a UUID.
func sessionParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return "", false
	}
	return id, true
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Ask the assistant
// @Description Appends the user query to the session and returns the assistant reply,
// @Description phrased for the session role. When the model is unavailable the reply is the local summary.
// @Description Retrying with the same Idempotency-Key and query returns the recorded reply with Idempotency-Replayed: true.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID that owns the session"  example(user123)
// @Param       Idempotency-Key  header  string  false "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true  "Query payload"
//
// @Success     200  {object}  handlers.PostMessageResponse  "Assistant reply"
// @Header      200  {string}  Idempotency-Replayed  "true when the reply is a replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id, empty or overlong content, malformed key"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Idempotency key reused for a different query"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Reply could not be stored"
// @Router      /sessions/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	sessionID, valid := sessionParam(c)
	if !valid {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := sanitizeContent(req.Content)
	queryID := strings.TrimSpace(req.ClientQueryID)
	tooLong := fmt.Sprintf("content too long: max %d runes", h.maxPrompt)
	switch {
	case content == "":
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	case utf8.RuneCountInString(content) > h.maxPrompt:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, tooLong)
		return
	case utf8.RuneCountInString(queryID) > maxClientQueryIDRunes:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("client_query_id too long: max %d runes", maxClientQueryIDRunes))
		return
	}

	m, replayed, err := h.msgSvc.AnswerOnce(c.Request.Context(), userID(c), sessionID,
		content, queryID, idempotencyKey(c))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	case errors.Is(err, services.ErrIdempotencyReused):
		fail(c, http.StatusUnprocessableEntity, ErrCodeIdempotencyReused, "Idempotency-Key was already used for a different query")
		return
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, tooLong)
		return
	case errors.Is(err, services.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		return
	}

	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusOK, PostMessageResponse{Message: m})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List the transcript of a session
// @Description Returns a paginated transcript, oldest first. Supports weak ETag via If-None-Match.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID that owns the session"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid session id"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	sessionID, valid := sessionParam(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// Ownership is checked by Version, so a foreign caller never sees a tag.
	if tv, isTV := h.msgSvc.(transcriptVersioner); isTV {
		if v, err := tv.Version(ctx, uid, sessionID); err == nil && notModified(c, v.ETag("messages", sessionID, page, pageSize)) {
			return
		}
	}

	items, total, err := h.msgSvc.ListPage(ctx, uid, sessionID, page, pageSize)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
	default:
		ok(c, http.StatusOK, ListMessagesResponse{Messages: items, Pagination: paginate(page, pageSize, total)})
	}
}
