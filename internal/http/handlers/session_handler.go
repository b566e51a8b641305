package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
	"github.com/tbourn/go-dealer-assistant/internal/http/middleware"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
	"github.com/tbourn/go-dealer-assistant/internal/search"
	"github.com/tbourn/go-dealer-assistant/internal/services"
	"github.com/tbourn/go-dealer-assistant/internal/utils"
)

//
// Service contracts (context-aware)
//

// SessionService defines session lifecycle operations consumed by HTTP handlers.
type SessionService interface {
	// Create opens a session and returns it with its welcome message.
	Create(ctx context.Context, userID, role, title string) (*domain.Session, *domain.Message, error)
	// ListPage returns a page of sessions for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error)
	// UpdateTitle renames a session that belongs to userID.
	UpdateTitle(ctx context.Context, userID, sessionID, title string) error
}

// MessageService defines the query/reply operations of a session.
type MessageService interface {
	// AnswerOnce appends a user query and the assistant reply atomically,
	// or replays the reply recorded under key.
	AnswerOnce(ctx context.Context, userID, sessionID, prompt, clientQueryID, key string) (*domain.Message, bool, error)
	// ListPage returns a page of the transcript and the total count.
	ListPage(ctx context.Context, userID, sessionID string, page, pageSize int) ([]domain.Message, int64, error)
}

// Services that can version a list cheaply get conditional GETs; the
// handlers probe for these with a type assertion.
type (
	sessionsVersioner interface {
		Version(ctx context.Context, userID string) (repo.ListVersion, error)
	}
	transcriptVersioner interface {
		Version(ctx context.Context, userID, sessionID string) (repo.ListVersion, error)
	}
)

// RecordsService serves the data tables.
type RecordsService interface {
	Search(ctx context.Context, kind, q string, limit int) (*services.RecordPage, error)
}

// AnalyticsService builds the dashboard summary.
type AnalyticsService interface {
	Summary(ctx context.Context, v services.Viewer) (*services.Summary, error)
}

// SettingsService manages the remote model credential.
type SettingsService interface {
	Status() services.KeyStatus
	SetKey(ctx context.Context, key string) (services.KeyStatus, error)
	ClearKey(ctx context.Context) error
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Endpoints whose service is
// nil must not be mounted.
type Services struct {
	Sessions    SessionService
	Messages    MessageService
	Records     RecordsService
	Analytics   AnalyticsService
	Settings    SettingsService
	Suggestions search.Index

	// MaxPromptRunes rejects longer queries before they reach Messages.
	// Zero means 4000.
	MaxPromptRunes int
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	sessSvc  SessionService
	msgSvc   MessageService
	recSvc   RecordsService
	anSvc    AnalyticsService
	setSvc   SettingsService
	suggests search.Index

	maxPrompt int
}

// New constructs a Handlers instance bound to the given services.
func New(s Services) *Handlers {
	if s.MaxPromptRunes <= 0 {
		s.MaxPromptRunes = defaultMaxPromptRunes
	}
	return &Handlers{
		sessSvc:  s.Sessions,
		msgSvc:   s.Messages,
		recSvc:   s.Records,
		anSvc:    s.Analytics,
		setSvc:   s.Settings,
		suggests: s.Suggestions,

		maxPrompt: s.MaxPromptRunes,
	}
}

// userID returns the caller id set by the Identity middleware (or read from
// the X-User-ID header when the middleware is absent).
func userID(c *gin.Context) string { return middleware.CallerFrom(c).UserID }

//
// DTOs
//

// CreateSessionRequest is the JSON payload for opening a session.
type CreateSessionRequest struct {
	// Title optionally sets the session title; a default is used when empty.
	Title string `json:"title" example:"Chennai stock check"`
}

// CreateSessionResponse returns the new session and its welcome message.
type CreateSessionResponse struct {
	Session *domain.Session `json:"session"`
	Welcome *domain.Message `json:"welcome"`
}

// UpdateSessionTitleRequest is the JSON payload for renaming a session.
type UpdateSessionTitleRequest struct {
	// Title is the new session name (1–255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Pending claims review"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListSessionsResponse wraps a page of sessions and pagination information.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)
}

func paginate(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// CreateSession godoc
// @ID          createSession
// @Summary     Open a new assistant session
// @Description Creates a session for the current user. The role header decides how replies are phrased. The response includes the welcome message.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID    header  string  false "User ID (demo header)"  example(user123)
// @Param       X-User-Role  header  string  false "dealer, sales_rep or admin"  example(dealer)
// @Param       body         body    handlers.CreateSessionRequest  false  "Create session payload"
//
// @Success     201  {object}  handlers.CreateSessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	who := middleware.CallerFrom(c)

	sess, welcome, err := h.sessSvc.Create(c.Request.Context(), who.UserID, who.Role, strings.TrimSpace(req.Title))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, CreateSessionResponse{Session: sess, Welcome: welcome})
}

// ListSessions godoc
// @ID          listSessions
// @Summary     List sessions (paginated)
// @Description Returns a page of the user's sessions, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSessionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	if sv, isSV := h.sessSvc.(sessionsVersioner); isSV {
		if v, err := sv.Version(ctx, uid); err == nil && notModified(c, v.ETag("sessions", uid, page, pageSize)) {
			return
		}
	}

	items, total, err := h.sessSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSessionsResponse{Sessions: items, Pagination: paginate(page, pageSize, total)})
}

// UpdateSessionTitle godoc
// @ID          updateSessionTitle
// @Summary     Rename a session
// @Description Updates the title of a session owned by the current user.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"      format(uuid)
// @Param       body       body    handlers.UpdateSessionTitleRequest  true  "New title"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions/{id}/title [put]
func (h *Handlers) UpdateSessionTitle(c *gin.Context) {
	sessionID, valid := sessionParam(c)
	if !valid {
		return
	}

	var req UpdateSessionTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	if err := h.sessSvc.UpdateTitle(c.Request.Context(), userID(c), sessionID, req.Title); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
