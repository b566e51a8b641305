// Package repo is the GORM persistence layer: sessions and transcripts,
// idempotency records, settings and the dealer record tables.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-dealer-assistant/internal/domain"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Pool sizes. SQLite serialises writers anyway; Postgres gets more room.
const (
	sqliteMaxOpen   = 10
	postgresMaxOpen = 20
)

// Applied to every SQLite connection in order.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

var gormConfig = &gorm.Config{
	Logger: logger.New(gormLog{}, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	}),
}

// gormLog routes GORM's slow-query and error lines into zerolog.
type gormLog struct{}

func (gormLog) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// Open connects using the named driver. For sqlite dsn is a file path (or a
// "file:" URI), for postgres a libpq-style DSN or URL. An empty driver means
// sqlite.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "":
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("repo: unsupported driver %q", driver)
	}
}

// OpenSQLite opens or creates the database file and applies sqlitePragmas.
func OpenSQLite(path string) (*gorm.DB, error) {
	// sqlite reports a missing directory as "out of memory (14)"; stat first.
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("repo: sqlite dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("repo: open sqlite: %w", err)
	}
	for _, p := range sqlitePragmas {
		if err := db.Exec(p).Error; err != nil {
			Close(db)
			return nil, fmt.Errorf("repo: %s: %w", p, err)
		}
	}
	setPool(db, sqliteMaxOpen)
	return db, nil
}

// OpenPostgres connects to a PostgreSQL server such as a managed Supabase
// instance.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("repo: postgres DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("repo: open postgres: %w", err)
	}
	setPool(db, postgresMaxOpen)
	return db, nil
}

func setPool(db *gorm.DB, maxOpen int) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

// Close releases the underlying pool. Errors are ignored; it is called on
// shutdown and on failed opens.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// EnableTracing installs the OpenTelemetry GORM plugin so every query is
// recorded as a child span of the request.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin())
}

// Models lists every table the service owns, parents first.
func Models() []any {
	return []any{
		&domain.Session{},
		&domain.Message{},
		&domain.Idempotency{},
		&domain.Setting{},
		&domain.Dealer{},
		&domain.SKU{},
		&domain.Claim{},
		&domain.Sale{},
	}
}

// AutoMigrate creates or updates every table in Models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
