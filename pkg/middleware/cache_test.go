package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/imagevault/pkg/cache"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
)

func newCachedEngine(t *testing.T, calls *int) *gin.Engine {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	r := gin.New()
	r.GET("/plans", ResponseCache(DefaultResponseCacheConfig(appcache.New(store, "resp"))), func(c *gin.Context) {
		*calls++
		if c.Query("fail") != "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"plans": []string{"Basic"}})
	})

	return r
}

func TestResponseCacheHitAndETag(t *testing.T) {
	var calls int
	r := newCachedEngine(t, &calls)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if w.Code != http.StatusOK || w.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first: code=%d x-cache=%q", w.Code, w.Header().Get("X-Cache"))
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	first := w.Body.String()

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if w.Header().Get("X-Cache") != "HIT" || w.Body.String() != first || calls != 1 {
		t.Fatalf("second: x-cache=%q body=%q calls=%d", w.Header().Get("X-Cache"), w.Body.String(), calls)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	req.Header.Set("If-None-Match", etag)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("conditional: code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestResponseCacheSkipsErrorsAndBypass(t *testing.T) {
	var calls int
	r := newCachedEngine(t, &calls)

	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans?fail=1", nil))

		if w.Code != http.StatusInternalServerError || w.Header().Get("X-Cache") != "" {
			t.Fatalf("error response: code=%d x-cache=%q", w.Code, w.Header().Get("X-Cache"))
		}
	}

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/plans", nil)
		req.Header.Set("X-Cache-Bypass", "1")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestResponseCacheDisabledWithoutStore(t *testing.T) {
	var calls int

	r := gin.New()
	r.GET("/plans", ResponseCache(DefaultResponseCacheConfig(appcache.New(nil, "resp"))), func(c *gin.Context) {
		calls++
		c.String(http.StatusOK, "ok")
	})

	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))

		if w.Body.String() != "ok" || w.Header().Get("X-Cache") != "" {
			t.Fatalf("body=%q x-cache=%q", w.Body.String(), w.Header().Get("X-Cache"))
		}
	}

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
