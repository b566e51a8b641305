package llm

import (
	"strings"
	"sync/atomic"
)

// Credentials holds the current model API key. Reads and writes are atomic,
// so an operator can replace or clear the key while requests are in flight;
// each request sees either the old or the new value, never a mix.
type Credentials struct {
	key atomic.Pointer[string]
}

// NewCredentials returns Credentials seeded with key (which may be empty).
func NewCredentials(key string) *Credentials {
	c := &Credentials{}
	c.Set(key)
	return c
}

// Get returns the current key, or "" when none is configured.
func (c *Credentials) Get() string {
	if p := c.key.Load(); p != nil {
		return *p
	}
	return ""
}

// Set replaces the key. Surrounding whitespace is dropped; a blank key
// clears the credential.
func (c *Credentials) Set(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		c.key.Store(nil)
		return
	}
	c.key.Store(&key)
}

// Clear removes the key.
func (c *Credentials) Clear() { c.key.Store(nil) }

// Configured reports whether a key is present.
func (c *Credentials) Configured() bool { return c.Get() != "" }

// Masked renders the key for display, keeping only the last four characters.
func Masked(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
