package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// Idempotency headers. A client retrying a question sends the same key; the
// handler answers with the stored reply and marks it replayed.
const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotencyReplayed = "Idempotency-Replayed"
)

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemKeyLen = 200
)

var defaultIdemKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~:\-]+$`)

// GetIdempotencyKey returns the key validated by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a stored reply exists for this request's key.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	MaxLen  int            // default 200
	Pattern *regexp.Regexp // default token characters plus ".~:-"
	// Methods the key applies to; default POST. Other methods ignore it.
	Methods []string
}

// IdempotencyLookup reports whether a live stored reply exists for key
// within the caller's session. Expiry is the lookup's business.
type IdempotencyLookup func(ctx context.Context, userID, sessionID, key string) (bool, error)

// IdempotencyValidator checks the Idempotency-Key header on unsafe requests
// and stashes it for the handler. A malformed key is rejected with 400. When
// lookup finds a stored reply the request is marked as a replay, which also
// exempts it from rate limiting. Lookup failures are logged and the request
// proceeds as a fresh one.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemKeyLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemKeyPattern
	}
	methods := map[string]bool{http.MethodPost: true}
	if len(opts.Methods) > 0 {
		methods = make(map[string]bool, len(opts.Methods))
		for _, m := range opts.Methods {
			methods[m] = true
		}
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !methods[c.Request.Method] {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abort(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			// Keys are scoped to the session in POST /sessions/:id/messages.
			found, err := lookup(c.Request.Context(), CallerFrom(c).UserID, c.Param("id"), key)
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("request_id", RequestIDFrom(c)).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
