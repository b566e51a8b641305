package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to the identity whose bucket it draws from.
type KeyFunc func(*gin.Context) string

// CostFunc returns how many tokens a request consumes.
type CostFunc func(*gin.Context) int

// KeyByCaller keys stated users by id and anonymous callers (no X-User-ID,
// so the shared demo identity) by client IP, so one anonymous client cannot
// drain the bucket of every other.
func KeyByCaller() KeyFunc {
	return func(c *gin.Context) string {
		if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
			return "user:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

// AskCost charges n tokens for posting a message, which may reach the
// remote model, and one token for everything else.
func AskCost(n int) CostFunc {
	return func(c *gin.Context) int {
		if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/messages") {
			return n
		}
		return 1
	}
}

// RateOptions configures NewRateLimiter.
type RateOptions struct {
	RPS   float64 // tokens replenished per second
	Burst int     // bucket size; <= 0 means 1
	Key   KeyFunc // default KeyByCaller
	Cost  CostFunc
	// Skip lists exact request paths that are never limited (health, metrics).
	Skip []string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per caller. Idle buckets are
// evicted opportunistically every gcEvery lookups.
type RateLimiter struct {
	opts RateOptions
	skip map[string]struct{}

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
	ttl      time.Duration
	gcEvery  int
	now      func() time.Time
}

// NewRateLimiter builds a limiter from opts.
func NewRateLimiter(opts RateOptions) *RateLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Key == nil {
		opts.Key = KeyByCaller()
	}
	skip := make(map[string]struct{}, len(opts.Skip))
	for _, p := range opts.Skip {
		skip[p] = struct{}{}
	}
	return &RateLimiter{
		opts:     opts,
		skip:     skip,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		gcEvery:  5000,
		now:      time.Now,
	}
}

// limiter returns the bucket for key. GC runs before the lookup so an idle
// bucket is evicted even when it is the one being fetched.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.gcEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rate.Limit(rl.opts.RPS), rl.opts.Burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay, which is served without consuming tokens.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Get(ctxKeyRateBypass)
	v, _ := b.(bool)
	return v
}

// Handler enforces the limit. Every limited response carries
// X-RateLimit-Limit and X-RateLimit-Remaining; rejections get 429 with
// Retry-After and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.skip[c.Request.URL.Path]; ok || IsRateBypass(c) {
			c.Next()
			return
		}

		cost := 1
		if rl.opts.Cost != nil {
			cost = rl.opts.Cost(c)
		}
		cost = max(1, min(cost, rl.opts.Burst))

		lim := rl.limiter(rl.opts.Key(c))
		now := rl.now()
		allowed := lim.AllowN(now, cost)

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.opts.Burst))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, int(lim.TokensAt(now)))))
		if allowed {
			c.Next()
			return
		}

		h.Set("Retry-After", strconv.Itoa(rl.retryAfter(cost)))
		abort(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}

// retryAfter is the whole number of seconds until cost tokens refill.
func (rl *RateLimiter) retryAfter(cost int) int {
	if rl.opts.RPS <= 0 {
		return 60
	}
	return max(1, int(math.Ceil(float64(cost)/rl.opts.RPS)))
}
