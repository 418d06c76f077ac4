package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/configs"
)

func newLimitedEngine(cfg configs.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(cfg))

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET(TempPath, ok)
	r.GET("/api/v1/images", ok)

	return r
}

func get(r *gin.Engine, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = ip + ":1234"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRateLimitTempPolicyIsSeparate(t *testing.T) {
	r := newLimitedEngine(configs.RateLimitConfig{
		Enabled: true,
		API:     configs.RateLimitPolicy{RPS: 100, Burst: 100, Key: "ip"},
		Temp:    configs.RateLimitPolicy{RPS: 0.001, Burst: 2, Key: "ip"},
	})

	for i := range 2 {
		if w := get(r, TempPath, "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("temp request %d: code %d", i, w.Code)
		}
	}

	w := get(r, TempPath, "10.0.0.1")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("third temp request: code=%d retry-after=%q", w.Code, w.Header().Get("Retry-After"))
	}

	if w := get(r, TempPath, "10.0.0.2"); w.Code != http.StatusOK {
		t.Fatalf("other ip limited: %d", w.Code)
	}

	if w := get(r, "/api/v1/images", "10.0.0.1"); w.Code != http.StatusOK {
		t.Fatalf("api limited by temp policy: %d", w.Code)
	}
}

func TestKeyedLimiterEvictsIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	k := newKeyedLimiter(configs.RateLimitPolicy{RPS: 1, Burst: 1, Key: "header:x-key"}, func() time.Time { return now })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Key", "a")

	if ok, _ := k.allow(c); !ok {
		t.Fatal("first request rejected")
	}

	now = now.Add(limiterIdleTTL + limiterSweepEvery + time.Second)
	c.Request.Header.Set("X-Key", "b")
	k.allow(c)

	if _, ok := k.entries["a"]; ok {
		t.Fatal("idle bucket not evicted")
	}
}

func TestCircuitBreakerPerRoute(t *testing.T) {
	r := gin.New()
	r.Use(CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:     true,
		FailureRate: 0.5,
		MinRequests: 2,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		HalfOpenMax: 1,
	}))
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/fine", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 2 {
		if w := get(r, "/broken", "10.0.0.1"); w.Code != http.StatusBadGateway {
			t.Fatalf("before trip: %d", w.Code)
		}
	}

	if w := get(r, "/broken", "10.0.0.1"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("after trip: %d", w.Code)
	}

	if w := get(r, "/fine", "10.0.0.1"); w.Code != http.StatusOK {
		t.Fatalf("other route affected: %d", w.Code)
	}
}
