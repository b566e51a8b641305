// Package llm wraps the remote chat-completion model used to phrase
// assistant answers. Every call is bounded by a timeout and runs behind a
// circuit breaker; callers are expected to treat any error as "use the
// local answer instead".
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

var (
	// ErrNoCredential is returned when no API key is configured.
	ErrNoCredential = errors.New("llm: no credential configured")
	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Config controls the remote model call.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration

	// Breaker settings.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "https://api.openai.com/v1",
		Model:            "gpt-4o-mini",
		Temperature:      0.7,
		MaxTokens:        500,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Completer is the narrow interface consumed by the assistant.
type Completer interface {
	Complete(ctx context.Context, apiKey, system, user string) (string, error)
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg Config
	cb  *gobreaker.CircuitBreaker
}

var _ Completer = (*Client)(nil)

// NewClient builds a Client. Zero fields in cfg fall back to DefaultConfig.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	threshold := cfg.FailureThreshold
	st := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &Client{cfg: cfg, cb: gobreaker.NewCircuitBreaker(st)}
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// State reports the breaker state ("closed", "half-open" or "open").
func (c *Client) State() string { return c.cb.State().String() }

// Complete sends one system and one user message and returns the first
// choice's content, trimmed.
func (c *Client) Complete(ctx context.Context, apiKey, system, user string) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrNoCredential
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.call(ctx, apiKey, system, user)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (c *Client) call(ctx context.Context, apiKey, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(c.cfg.BaseURL, "/")),
		option.WithMaxRetries(0),
	)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(c.cfg.MaxTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// IsBreakerOpen reports whether err came from a tripped breaker rather
// than the remote call itself.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
