package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const okBody = `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Stock looks healthy.  "}}]}`

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:          srv.URL + "/v1",
		Model:            "gpt-4o-mini",
		Temperature:      0.7,
		MaxTokens:        500,
		Timeout:          2 * time.Second,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	return c, srv
}

func TestComplete_SendsPromptAndReturnsContent(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth, path string

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody)
	})

	out, err := c.Complete(context.Background(), " sk-test ", "system prompt", "which SKUs?")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out != "Stock looks healthy." {
		t.Fatalf("unexpected content %q", out)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if path != "/v1/chat/completions" {
		t.Fatalf("unexpected path %q", path)
	}
	if got.Model != "gpt-4o-mini" || got.Temperature != 0.7 || got.MaxTokens != 500 {
		t.Fatalf("unexpected params: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "system prompt" ||
		got.Messages[1].Role != "user" || got.Messages[1].Content != "which SKUs?" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestComplete_NoCredentialSkipsNetwork(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	if _, err := c.Complete(context.Background(), "  ", "s", "u"); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("no request expected without a key")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})
	if _, err := c.Complete(context.Background(), "k", "s", "u"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestComplete_TimeoutIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	if _, err := c.Complete(context.Background(), "k", "s", "u"); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not honored")
	}
}

func TestComplete_BreakerOpensAfterFailures(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Complete(ctx, "k", "s", "u"); err == nil || IsBreakerOpen(err) {
			t.Fatalf("call %d: expected remote error, got %v", i, err)
		}
	}
	_, err := c.Complete(ctx, "k", "s", "u")
	if !IsBreakerOpen(err) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("open breaker must not reach the server, hits=%d", hits)
	}
	if c.State() != "open" {
		t.Fatalf("unexpected state %q", c.State())
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	cfg := c.Config()
	def := DefaultConfig()
	if cfg.Model != def.Model || cfg.MaxTokens != def.MaxTokens || cfg.Timeout != def.Timeout || !strings.HasPrefix(cfg.BaseURL, "https://") {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestCredentials(t *testing.T) {
	c := NewCredentials("")
	if c.Configured() || c.Get() != "" {
		t.Fatalf("expected empty credentials")
	}
	c.Set("  sk-abcdef  ")
	if c.Get() != "sk-abcdef" || !c.Configured() {
		t.Fatalf("unexpected key %q", c.Get())
	}
	c.Set("   ")
	if c.Configured() {
		t.Fatalf("blank Set should clear")
	}
	c.Set("sk-1")
	c.Clear()
	if c.Configured() {
		t.Fatalf("Clear should remove the key")
	}

	if got := Masked("sk-abcdef"); got != "********cdef" {
		t.Fatalf("Masked = %q", got)
	}
	if Masked("") != "" || Masked("abc") != "****" {
		t.Fatalf("unexpected short masks")
	}
}

func TestCredentials_ConcurrentAccess(t *testing.T) {
	c := NewCredentials("a")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			c.Set("b")
			c.Clear()
		}
	}()
	for i := 0; i < 1000; i++ {
		if v := c.Get(); v != "" && v != "a" && v != "b" {
			t.Fatalf("torn read %q", v)
		}
	}
	<-done
}
