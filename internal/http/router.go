// Package httpapi assembles the gin engine of the dealer assistant: the
// middleware chain, the REST routes and the operational endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/docs"
	"github.com/tbourn/go-dealer-assistant/internal/assistant"
	"github.com/tbourn/go-dealer-assistant/internal/config"
	"github.com/tbourn/go-dealer-assistant/internal/http/handlers"
	"github.com/tbourn/go-dealer-assistant/internal/http/middleware"
	"github.com/tbourn/go-dealer-assistant/internal/llm"
	"github.com/tbourn/go-dealer-assistant/internal/records"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
	"github.com/tbourn/go-dealer-assistant/internal/search"
	"github.com/tbourn/go-dealer-assistant/internal/services"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	DB       *gorm.DB
	Store    records.Store     // record gateway, possibly cache-wrapped
	Composer services.Composer // replies to queries
	Settings *services.SettingsService
	Index    search.Index // query suggestions
	// Model reports the remote model's circuit breaker on /health; optional.
	Model interface{ State() string }
}

// corsHeaders are the request headers browsers may send cross-origin.
var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderUserID, middleware.HeaderUserName, middleware.HeaderUserRole,
	middleware.HeaderDealerID, middleware.HeaderRegion,
	middleware.HeaderIdempotencyKey,
}

// RegisterRoutes installs the middleware chain on r and mounts the API
// under cfg.APIBasePath. /health and /metrics stay at the root.
//
// Middleware order matters:
//  1. otelgin span per request
//  2. RequestID, echoed or generated
//  3. Identity: caller headers, needed by the logger and limiter
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, sessionID, key string) (bool, error) {
			sc := repo.IdemScope{UserID: userID, SessionID: sessionID, Key: key}
			_, err := repo.FindIdempotency(ctx, d.DB, sc, time.Now().UTC())
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			return err == nil, err
		},
	))

	rl := middleware.NewRateLimiter(middleware.RateOptions{
		RPS:   cfg.RateRPS,
		Burst: cfg.RateBurst,
		Key:   middleware.KeyByCaller(),
		Cost:  middleware.AskCost(cfg.RateAskCost),
		Skip:  []string{"/health", "/metrics"},
	})
	r.Use(rl.Handler())

	r.Use(corsHandlers(cfg.CORS)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{path.Join("/", cfg.APIBasePath, "settings")},
		EnablePolicy:    true,
	}))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if d.Model != nil {
			body["model_breaker"] = d.Model.State()
		}
		c.JSON(http.StatusOK, body)
	})

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Services ← repo/db/composer. Missing deps fall back to local-only
	// defaults backed by d.DB.
	sessSvc := services.NewSessionService(d.DB, nil)
	store := d.Store
	if store == nil {
		store = repo.NewRecordStore(d.DB)
	}
	settings := d.Settings
	if settings == nil {
		settings = &services.SettingsService{DB: d.DB, Creds: llm.NewCredentials("")}
	}
	idx := d.Index
	if idx == nil {
		idx = search.NewIndex(search.CommonQueries)
	}
	var composer services.Composer = d.Composer
	if composer == nil {
		composer = assistant.NewComposer(store, nil, nil, settings.Creds)
	}
	msgSvc := &services.MessageService{
		DB:             d.DB,
		Composer:       composer,
		MaxPromptRunes: cfg.Assistant.MaxPromptRunes,
		MaxReplyRunes:  cfg.Assistant.MaxReplyRunes,
		TitleMaxLen:    sessSvc.TitleMaxLen,
		TitleLocale:    language.English,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}

	h := handlers.New(handlers.Services{
		Sessions:       sessSvc,
		Messages:       msgSvc,
		Records:        &services.RecordsService{Store: store},
		Analytics:      &services.AnalyticsService{DB: d.DB},
		Settings:       settings,
		Suggestions:    idx,
		MaxPromptRunes: cfg.Assistant.MaxPromptRunes,
	})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions", h.ListSessions)
		api.PUT("/sessions/:id/title", h.UpdateSessionTitle)

		// Messages
		api.GET("/sessions/:id/messages", h.ListMessages)
		api.POST("/sessions/:id/messages", h.PostMessage)

		// Data tables and dashboard
		api.GET("/records/:kind", h.ListRecords)
		api.GET("/analytics/summary", h.AnalyticsSummary)
		api.GET("/suggestions", h.Suggestions)

		// Model credential
		api.GET("/settings/model-key", h.GetModelKey)
		api.PUT("/settings/model-key", h.PutModelKey)
		api.DELETE("/settings/model-key", h.DeleteModelKey)
	}
}

// limitBody caps the request body size for all endpoints to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap make body reads fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// corsHandlers answers preflights through gin-contrib/cors. The first handler
// stamps Access-Control-Allow-Origin on plain requests too (cors.New skips
// requests without an Origin): "*" when no allow-list is configured, the
// echoed origin when it is listed.
func corsHandlers(c config.CORSConfig) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  corsHeaders,
		ExposeHeaders: []string{"X-Request-ID", "ETag", middleware.HeaderIdempotencyReplayed, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	allowed := make(map[string]bool, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		allowed[o] = true
	}
	if len(allowed) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = c.AllowedOrigins
	}

	stamp := func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		switch origin := ctx.GetHeader("Origin"); {
		case conf.AllowAllOrigins:
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		ctx.Next()
	}
	return []gin.HandlerFunc{stamp, cors.New(conf)}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
