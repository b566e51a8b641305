package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if key := KeyByCaller()(c); key != "ip:203.0.113.9" {
		t.Fatalf("anonymous key = %q", key)
	}
	c.Request.Header.Set(HeaderUserID, " u123 ")
	if key := KeyByCaller()(c); key != "user:u123" {
		t.Fatalf("user key = %q", key)
	}
}

func TestAskCost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cost := AskCost(4)
	var got []int
	r := gin.New()
	h := func(c *gin.Context) { got = append(got, cost(c)); c.Status(http.StatusOK) }
	r.POST("/sessions/:id/messages", h)
	r.GET("/sessions/:id/messages", h)
	r.POST("/sessions", h)

	for _, rq := range []struct{ m, p string }{
		{http.MethodPost, "/sessions/s1/messages"},
		{http.MethodGet, "/sessions/s1/messages"},
		{http.MethodPost, "/sessions"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(rq.m, rq.p, nil))
	}
	if len(got) != 3 || got[0] != 4 || got[1] != 1 || got[2] != 1 {
		t.Fatalf("costs = %v", got)
	}
}

func TestNewRateLimiter_DefaultsAndReuse(t *testing.T) {
	rl := NewRateLimiter(RateOptions{RPS: 2})
	if rl.opts.Burst != 1 || rl.opts.Key == nil {
		t.Fatalf("defaults not applied: %+v", rl.opts)
	}
	lim := rl.limiter("k1")
	if rl.limiter("k1") != lim {
		t.Fatalf("expected bucket reuse")
	}
}

func TestRateLimiter_GCEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(RateOptions{RPS: 1, Burst: 1})
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.ttl = time.Minute
	rl.gcEvery = 2

	old := rl.limiter("old")
	now = now.Add(2 * time.Minute)
	rl.limiter("fresh") // second lookup triggers GC before touching "fresh"

	rl.mu.Lock()
	_, stillThere := rl.visitors["old"]
	rl.mu.Unlock()
	if stillThere {
		t.Fatalf("idle bucket not evicted")
	}
	if rl.limiter("old") == old {
		t.Fatalf("expected a new bucket after eviction")
	}
}

func newLimitedEngine(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(pre...)
	r.Use(rl.Handler())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/sessions/:id/messages", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_Handler_LimitsAndHeaders(t *testing.T) {
	rl := NewRateLimiter(RateOptions{RPS: 0.5, Burst: 2, Skip: []string{"/health"}})
	r := newLimitedEngine(rl)

	get := func(path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if user != "" {
			req.Header.Set(HeaderUserID, user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/x", "u1")
	if w.Code != http.StatusOK || w.Header().Get("X-RateLimit-Limit") != "2" || w.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("first: %d limit=%q remaining=%q", w.Code, w.Header().Get("X-RateLimit-Limit"), w.Header().Get("X-RateLimit-Remaining"))
	}
	if w := get("/x", "u1"); w.Code != http.StatusOK {
		t.Fatalf("second: %d", w.Code)
	}
	w = get("/x", "u1")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "2" {
		t.Fatalf("third: %d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "too_many_requests" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}

	if w := get("/x", "u2"); w.Code != http.StatusOK {
		t.Fatalf("other user should have its own bucket: %d", w.Code)
	}
	for i := 0; i < 5; i++ {
		if w := get("/health", "u1"); w.Code != http.StatusOK || w.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatalf("skipped path was limited: %d", w.Code)
		}
	}
}

func TestRateLimiter_AskCostDrainsBucket(t *testing.T) {
	rl := NewRateLimiter(RateOptions{RPS: 0.1, Burst: 3, Cost: AskCost(5)})
	r := newLimitedEngine(rl)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/sessions/s1/messages", nil)
		req.Header.Set(HeaderUserID, "u1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	// Cost is clamped to the burst, so one ask empties the bucket.
	if code := post(); code != http.StatusOK {
		t.Fatalf("first ask: %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second ask: %d", code)
	}
}

func TestRateLimiter_BypassOnReplay(t *testing.T) {
	rl := NewRateLimiter(RateOptions{RPS: 0.0001, Burst: 1})
	r := newLimitedEngine(rl, func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d limited: %d", i, w.Code)
		}
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if IsRateBypass(c) {
		t.Fatalf("unset bypass should be false")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("non-bool bypass should be false")
	}
}

func TestRateLimiter_retryAfter(t *testing.T) {
	if got := NewRateLimiter(RateOptions{RPS: 0}).retryAfter(1); got != 60 {
		t.Fatalf("zero rps retry = %d", got)
	}
	if got := NewRateLimiter(RateOptions{RPS: 10}).retryAfter(3); got != 1 {
		t.Fatalf("fast refill retry = %d", got)
	}
	if got := NewRateLimiter(RateOptions{RPS: 0.25}).retryAfter(2); got != 8 {
		t.Fatalf("slow refill retry = %d", got)
	}
}
