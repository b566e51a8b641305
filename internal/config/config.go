// Package config provides application configuration loaded from environment
// variables with defaults and validation. Values from a .env file (ENV_FILE,
// default ".env") are applied first without overriding the real environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig toggles Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig drives trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "dealer-assistant")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
	Environment string  // OTEL_DEPLOYMENT_ENVIRONMENT (e.g. "staging")
}

// Supported DB_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite file)
	DSN    string // DATABASE_URL (postgres)
}

// RedisConfig enables the record cache when Addr is set.
type RedisConfig struct {
	Addr     string        // REDIS_ADDR; empty disables caching
	Password string        // REDIS_PASSWORD
	DB       int           // REDIS_DB
	TTL      time.Duration // REDIS_TTL
}

// LLMConfig configures the remote model.
type LLMConfig struct {
	BaseURL       string        // OPENAI_BASE_URL
	Model         string        // OPENAI_MODEL
	APIKey        string        // OPENAI_API_KEY (initial credential)
	Timeout       time.Duration // LLM_TIMEOUT
	Temperature   float64       // LLM_TEMPERATURE
	MaxTokens     int           // LLM_MAX_TOKENS
	ContextBudget int           // LLM_CONTEXT_BUDGET (runes of data context)

	BreakerFailures    int           // LLM_BREAKER_FAILURES
	BreakerOpenTimeout time.Duration // LLM_BREAKER_OPEN_TIMEOUT
}

// AssistantConfig bounds the query/reply cycle.
type AssistantConfig struct {
	MaxPromptRunes int    // MAX_PROMPT_RUNES
	MaxReplyRunes  int    // MAX_REPLY_RUNES
	NumberLocale   string // NUMBER_LOCALE (BCP 47, e.g. "en-IN")
}

// SeedConfig controls demo data generation.
type SeedConfig struct {
	OnStart bool   // SEED_ON_START
	Seed    uint64 // SEED_VALUE
}

// Config is the full process configuration, read once at startup.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s (remote completions can be slow)
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Stores
	DB    DBConfig
	Redis RedisConfig

	// Assistant
	LLM       LLMConfig
	Assistant AssistantConfig
	Seed      SeedConfig
	// SuggestionsFile replaces the built-in suggestion list: one query per
	// line, '#' comments. Empty keeps the built-in list.
	SuggestionsFile string

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)
	// RateAskCost is the number of tokens one assistant question consumes.
	RateAskCost int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL   time.Duration // how long a given Idempotency-Key is valid
	IdempotencySweep time.Duration // purge interval for expired keys; 0 disables

	// Observability
	OTEL OTELConfig
}

// MustLoad is Load for callers that cannot continue without a config.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv applies the file named by ENV_FILE (default ".env"). A missing
// file is not an error; variables already set in the environment win.
func LoadDotEnv() error {
	path := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load applies the .env file, reads the environment over the defaults,
// normalizes aliases (LOG_LEVEL=warning, DB_DRIVER=postgresql) and validates.
// The returned Config is populated even when err is non-nil.
func Load() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Stores
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
			Path:   getenv("DB_PATH", "dealer.db"),
			DSN:    getenv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
			TTL:      getdur("REDIS_TTL", 2*time.Minute),
		},

		// Assistant
		LLM: LLMConfig{
			BaseURL:            getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:              getenv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:             getenv("OPENAI_API_KEY", ""),
			Timeout:            getdur("LLM_TIMEOUT", 15*time.Second),
			Temperature:        getfloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:          getint("LLM_MAX_TOKENS", 500),
			ContextBudget:      getint("LLM_CONTEXT_BUDGET", 3000),
			BreakerFailures:    getint("LLM_BREAKER_FAILURES", 5),
			BreakerOpenTimeout: getdur("LLM_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Assistant: AssistantConfig{
			MaxPromptRunes: getint("MAX_PROMPT_RUNES", 2000),
			MaxReplyRunes:  getint("MAX_REPLY_RUNES", 8000),
			NumberLocale:   getenv("NUMBER_LOCALE", "en-IN"),
		},
		Seed: SeedConfig{
			OnStart: getbool("SEED_ON_START", false),
			Seed:    uint64(getint("SEED_VALUE", 42)),
		},
		SuggestionsFile: strings.TrimSpace(getenv("SUGGESTIONS_FILE", "")),

		// Rate limiting
		RateRPS:     getfloat("RATE_RPS", 5.0),
		RateBurst:   getint("RATE_BURST", 10),
		RateAskCost: getint("RATE_ASK_COST", 2),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL:   getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencySweep: getdur("IDEMPOTENCY_SWEEP", time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "dealer-assistant"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			Environment: getenv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = DriverPostgres
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once, joined, naming the
// environment variable to fix.
func (c Config) Validate() error {
	rules := []struct {
		bad bool
		msg string
	}{
		{!validLogLevel(c.LogLevel), "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{strings.TrimSpace(c.Port) == "", "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
			"timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{c.DB.Driver != DriverSQLite && c.DB.Driver != DriverPostgres, "DB_DRIVER must be sqlite or postgres"},
		{c.DB.Driver == DriverSQLite && strings.TrimSpace(c.DB.Path) == "", "DB_PATH must not be empty"},
		{c.DB.Driver == DriverPostgres && strings.TrimSpace(c.DB.DSN) == "", "DATABASE_URL is required when DB_DRIVER=postgres"},
		{c.Redis.TTL <= 0, "REDIS_TTL must be > 0"},
		{c.LLM.Timeout <= 0 || c.LLM.BreakerOpenTimeout <= 0, "LLM_TIMEOUT and LLM_BREAKER_OPEN_TIMEOUT must be > 0"},
		{c.LLM.Temperature < 0 || c.LLM.Temperature > 2, "LLM_TEMPERATURE must be between 0 and 2"},
		{c.LLM.MaxTokens < 1 || c.LLM.ContextBudget < 1 || c.LLM.BreakerFailures < 1,
			"LLM_MAX_TOKENS, LLM_CONTEXT_BUDGET and LLM_BREAKER_FAILURES must be >= 1"},
		{c.Assistant.MaxPromptRunes < 1 || c.Assistant.MaxReplyRunes < 1, "MAX_PROMPT_RUNES and MAX_REPLY_RUNES must be >= 1"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.RateAskCost < 1, "RATE_ASK_COST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.IdempotencySweep < 0, "IDEMPOTENCY_SWEEP must be >= 0 (0 disables)"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	var errs []error
	for _, r := range rules {
		if r.bad {
			errs = append(errs, errors.New(r.msg))
		}
	}
	return errors.Join(errs...)
}

func validLogLevel(l string) bool {
	switch l {
	case "debug", "info", "warn", "error", "fatal", "panic":
		return true
	}
	return false
}

// lookup parses the variable k, falling back to def when it is unset, empty
// or unparsable.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	if out, err := parse(v); err == nil {
		return out
	}
	return def
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

var errNotBool = errors.New("not a boolean")

// getbool accepts the usual spellings (1/0, true/false, yes/no, y/n, on/off).
func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath returns p with exactly one leading slash and no trailing
// slash; blank becomes "/".
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
