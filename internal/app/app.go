// Package app assembles the long-lived collaborators shared by the HTTP
// server and the CLI: database, record store (optionally Redis-cached),
// model credential, remote model client and the response composer.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-dealer-assistant/internal/assistant"
	"github.com/tbourn/go-dealer-assistant/internal/cache"
	"github.com/tbourn/go-dealer-assistant/internal/config"
	httpapi "github.com/tbourn/go-dealer-assistant/internal/http"
	"github.com/tbourn/go-dealer-assistant/internal/llm"
	"github.com/tbourn/go-dealer-assistant/internal/records"
	"github.com/tbourn/go-dealer-assistant/internal/repo"
	"github.com/tbourn/go-dealer-assistant/internal/search"
	"github.com/tbourn/go-dealer-assistant/internal/seed"
	"github.com/tbourn/go-dealer-assistant/internal/services"
)

const (
	redisPingTimeout     = 2 * time.Second
	maxSuggestionEntries = 500
)

// App holds the wired components.
type App struct {
	DB       *gorm.DB
	Store    records.Store
	Redis    *redis.Client // nil when caching is off
	Creds    *llm.Credentials
	Settings *services.SettingsService
	Model    *llm.Client
	Composer *assistant.Composer
	Index    search.Index

	cached *cache.Records // nil when caching is off
	ownsDB bool
}

// Open connects to the configured database and builds the App on top of it.
// Close releases the connection.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	dsn := cfg.DB.Path
	if cfg.DB.Driver == repo.DriverPostgres {
		dsn = cfg.DB.DSN
	}
	db, err := repo.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("app: open %s: %w", cfg.DB.Driver, err)
	}
	a, err := New(ctx, cfg, db)
	if err != nil {
		repo.Close(db)
		return nil, err
	}
	a.ownsDB = true
	return a, nil
}

// New wires everything around an already opened db: schema migration,
// optional seeding, the record store and the composer.
func New(ctx context.Context, cfg config.Config, db *gorm.DB) (*App, error) {
	if db == nil {
		return nil, errors.New("app: nil db")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			return nil, fmt.Errorf("app: db tracing: %w", err)
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("app: migrate: %w", err)
	}
	idx, err := loadSuggestions(cfg.SuggestionsFile)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db, Index: idx}

	var store records.Store = repo.NewRecordStore(db)
	if cfg.Redis.Addr != "" {
		client := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pctx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, record cache disabled")
			_ = client.Close()
		} else {
			a.Redis = client
			a.cached = cache.NewRecords(store, client, cfg.Redis.TTL)
			store = a.cached
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("record cache enabled")
		}
	}
	a.Store = store

	if cfg.Seed.OnStart {
		if _, err := a.Seed(ctx, seed.Options{Seed: cfg.Seed.Seed}); err != nil {
			return nil, err
		}
	}

	a.Creds = llm.NewCredentials(cfg.LLM.APIKey)
	a.Settings = &services.SettingsService{DB: db, Creds: a.Creds}
	if err := a.Settings.Load(ctx); err != nil {
		return nil, fmt.Errorf("app: load settings: %w", err)
	}

	a.Model = llm.NewClient(llm.Config{
		BaseURL:          cfg.LLM.BaseURL,
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        int64(cfg.LLM.MaxTokens),
		Timeout:          cfg.LLM.Timeout,
		FailureThreshold: uint32(cfg.LLM.BreakerFailures),
		OpenTimeout:      cfg.LLM.BreakerOpenTimeout,
	})
	a.Composer = assistant.NewComposer(store, assistant.NewSummarizer(cfg.Assistant.NumberLocale), a.Model, a.Creds)
	if cfg.LLM.ContextBudget > 0 {
		a.Composer.ContextBudget = cfg.LLM.ContextBudget
	}
	return a, nil
}

// Deps exposes the components the HTTP layer needs.
func (a *App) Deps() httpapi.Deps {
	return httpapi.Deps{
		DB:       a.DB,
		Store:    a.Store,
		Composer: a.Composer,
		Settings: a.Settings,
		Index:    a.Index,
		Model:    a.Model,
	}
}

// Seed populates an empty database. When rows were inserted the record
// cache is flushed, so cached empty results do not outlive the seed.
func (a *App) Seed(ctx context.Context, opt seed.Options) (seed.Result, error) {
	res, err := seed.Run(ctx, a.DB, opt)
	if err != nil || res.Skipped || a.cached == nil {
		return res, err
	}
	if err := a.cached.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("record cache flush after seed failed")
	}
	return res, nil
}

// PurgeExpired drops idempotency records that can no longer be replayed.
func (a *App) PurgeExpired(ctx context.Context) (int64, error) {
	return repo.PurgeIdempotency(ctx, a.DB, time.Now().UTC())
}

// Sweep calls PurgeExpired every interval until ctx is done.
func (a *App) Sweep(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("idempotency purge failed")
				}
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency records removed")
			}
		}
	}
}

// Close releases Redis and, when Open created it, the database.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.ownsDB {
		repo.Close(a.DB)
	}
	return errors.Join(errs...)
}

// loadSuggestions reads path when set, otherwise uses search.CommonQueries.
func loadSuggestions(path string) (search.Index, error) {
	if path == "" {
		return search.NewIndex(search.CommonQueries), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("app: suggestions: %w", err)
	}
	defer f.Close()
	idx, err := search.NewIndexFromReader(f, search.WithMaxEntries(maxSuggestionEntries))
	if err != nil {
		return nil, fmt.Errorf("app: suggestions %s: %w", path, err)
	}
	if len(idx.All()) == 0 {
		return nil, fmt.Errorf("app: suggestions %s: no queries", path)
	}
	log.Info().Str("path", path).Int("queries", len(idx.All())).Msg("suggestions loaded")
	return idx, nil
}
