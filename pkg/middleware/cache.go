package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/imagevault/pkg/cache"
)

const (
	// DefaultMaxBodyBytes 超过该大小的响应不缓存.
	DefaultMaxBodyBytes = 256 << 10
	defaultCacheTTL     = 30 * time.Second
	cacheHeader         = "X-Cache"
)

// ResponseCacheConfig 响应缓存配置.
type ResponseCacheConfig struct {
	Cache        *appcache.Cache
	TTL          time.Duration
	VaryHeaders  []string // 参与缓存键的请求头
	BypassHeader string   // 请求带该头时跳过缓存
	MaxBodyBytes int
}

// DefaultResponseCacheConfig 返回默认配置.
func DefaultResponseCacheConfig(c *appcache.Cache) ResponseCacheConfig {
	return ResponseCacheConfig{
		Cache:        c,
		TTL:          defaultCacheTTL,
		BypassHeader: "X-Cache-Bypass",
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// cachedResponse 缓存中保存的响应.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"c,omitempty"`
	Body        []byte `json:"b,omitempty"`
	ETag        string `json:"e"`
	StoredAt    int64  `json:"t"`
}

// ResponseCache 缓存与调用者无关的 GET/HEAD 响应（套餐列表）. 响应在本地缓冲，
// 写出前补上 ETag 与 X-Cache，If-None-Match 命中时返回 304.
// 写接口修改数据后应清空对应的 cache 命名空间. 没有可用 KV 时直接透传.
//
//	plans.GET("", middleware.ResponseCache(middleware.DefaultResponseCacheConfig(c)), handle.ListPlans)
func ResponseCache(cfg ResponseCacheConfig) gin.HandlerFunc {
	if !cfg.Cache.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return func(c *gin.Context) {
		m := c.Request.Method
		if (m != http.MethodGet && m != http.MethodHead) ||
			(cfg.BypassHeader != "" && c.GetHeader(cfg.BypassHeader) != "") {
			c.Next()
			return
		}

		key := responseKey(c, cfg.VaryHeaders)

		if entry, err := appcache.Get[cachedResponse](c.Request.Context(), cfg.Cache, key); err == nil {
			h := c.Writer.Header()
			h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, entry.StoredAt)).Seconds()), 10))
			h.Set(cacheHeader, "HIT")
			writeCached(c, entry)
			c.Abort()

			return
		}

		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = bw

		c.Next()

		c.Writer = orig

		entry := cachedResponse{
			Status:      bw.status,
			ContentType: orig.Header().Get("Content-Type"),
			Body:        bw.buf.Bytes(),
			StoredAt:    time.Now().UnixNano(),
		}

		if bw.status != http.StatusOK || bw.buf.Len() > cfg.MaxBodyBytes || noStore(orig.Header()) {
			orig.WriteHeader(entry.Status)
			_, _ = orig.Write(entry.Body)

			return
		}

		entry.ETag = `"` + strconv.FormatUint(xxhash.Sum64(entry.Body), 16) + `"`
		// 请求结束后 context 会被取消，写缓存不跟随取消
		_ = appcache.Set(context.WithoutCancel(c.Request.Context()), cfg.Cache, key, entry, cfg.TTL)

		orig.Header().Set(cacheHeader, "MISS")
		writeCached(c, entry)
	}
}

// writeCached 写出缓存条目，If-None-Match 匹配时只写 304.
func writeCached(c *gin.Context, e cachedResponse) {
	h := c.Writer.Header()
	h.Set("ETag", e.ETag)

	if e.ContentType != "" {
		h.Set("Content-Type", e.ContentType)
	}

	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == e.ETag {
		c.Writer.WriteHeader(http.StatusNotModified)
		c.Writer.WriteHeaderNow()

		return
	}

	c.Writer.WriteHeader(e.Status)

	if c.Request.Method == http.MethodHead {
		c.Writer.WriteHeaderNow()
		return
	}

	_, _ = c.Writer.Write(e.Body)
}

// responseKey 由方法、路由、排序后的 query 与 vary 头计算缓存键.
func responseKey(c *gin.Context, vary []string) string {
	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(':')

	if p := c.FullPath(); p != "" {
		b.WriteString(p)
	} else {
		b.WriteString(c.Request.URL.Path)
	}

	q := c.Request.URL.Query()
	keys := make([]string, 0, len(q))

	for k := range q {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString("&" + k + "=" + strings.Join(q[k], ","))
	}

	for _, h := range vary {
		b.WriteString("|" + h + "=" + c.GetHeader(h))
	}

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// noStore 响应声明了 no-store 或 private.
func noStore(h http.Header) bool {
	cc := strings.ToLower(h.Get("Cache-Control"))

	return strings.Contains(cc, "no-store") || strings.Contains(cc, "private")
}

// bufferedWriter 把状态码与响应体留在内存中，由中间件决定何时写出.
type bufferedWriter struct {
	gin.ResponseWriter

	status int
	buf    bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {}

func (w *bufferedWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *bufferedWriter) WriteString(s string) (int, error) { return w.buf.WriteString(s) }

func (w *bufferedWriter) Status() int { return w.status }

func (w *bufferedWriter) Size() int { return w.buf.Len() }

func (w *bufferedWriter) Written() bool { return w.buf.Len() > 0 }
