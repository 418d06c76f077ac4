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

	"github.com/yeisme/imagevault/pkg/configs"
)

const (
	// TempPath 公开兑换端点.
	TempPath = "/temp"

	limiterIdleTTL      = 10 * time.Minute
	limiterSweepEvery   = time.Minute
	globalLimiterBucket = "*"
)

// RateLimitMiddleware 按路由选择策略限流：/temp 使用 temp 策略，其余使用 api 策略.
// 超限时返回 429 与 Retry-After.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	api := newKeyedLimiter(cfg.API, time.Now)
	temp := newKeyedLimiter(cfg.Temp, time.Now)

	return func(c *gin.Context) {
		l := api
		if c.FullPath() == TempPath {
			l = temp
		}

		if ok, wait := l.allow(c); !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})

			return
		}

		c.Next()
	}
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// keyedLimiter 为每个维度值维护一个令牌桶，空闲超过 limiterIdleTTL 的桶会被回收.
type keyedLimiter struct {
	policy configs.RateLimitPolicy
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newKeyedLimiter(p configs.RateLimitPolicy, now func() time.Time) *keyedLimiter {
	return &keyedLimiter{
		policy:    p,
		now:       now,
		entries:   make(map[string]*limiterEntry),
		lastSweep: now(),
	}
}

// allow 判断本次请求是否放行，拒绝时返回建议的等待时间. RPS<=0 表示不限流.
func (k *keyedLimiter) allow(c *gin.Context) (bool, time.Duration) {
	if k.policy.RPS <= 0 {
		return true, 0
	}

	key := k.key(c)
	now := k.now()

	k.mu.Lock()
	defer k.mu.Unlock()

	if now.Sub(k.lastSweep) >= limiterSweepEvery {
		for key, e := range k.entries {
			if now.Sub(e.seen) > limiterIdleTTL {
				delete(k.entries, key)
			}
		}

		k.lastSweep = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(k.policy.RPS), k.policy.Burst)}
		k.entries[key] = e
	}

	e.seen = now

	r := e.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}

	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}

	return true, 0
}

// key 按策略取维度值，取不到时回退到客户端 IP.
func (k *keyedLimiter) key(c *gin.Context) string {
	mode := strings.ToLower(strings.TrimSpace(k.policy.Key))

	var key string

	switch {
	case mode == "" || mode == "global":
		return globalLimiterBucket
	case mode == "user":
		key = GetUser(c)
	case strings.HasPrefix(mode, "header:"):
		key = c.GetHeader(strings.TrimPrefix(mode, "header:"))
	}

	if key == "" {
		key = c.ClientIP()
	}

	return key
}
