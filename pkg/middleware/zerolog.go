package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/log"
)

// redactedParams 日志中需要隐藏的查询参数，令牌本身即访问凭证.
var redactedParams = []string{"token"}

// GinLoggerMiddleware 使用zerolog记录Gin请求日志的中间件.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + redactQuery(raw)
		}

		logger := log.FromContext(c.Request.Context())
		event := logger.Info()

		status := c.Writer.Status()
		if status >= 500 {
			event = logger.Error()
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP())

		if user := GetUser(c); user != "" {
			event = event.Str("user", user)
		}

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}

// redactQuery 把敏感参数的值替换为 REDACTED.
func redactQuery(raw string) string {
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "REDACTED"
	}

	changed := false

	for _, p := range redactedParams {
		if _, ok := q[p]; ok {
			q.Set(p, "REDACTED")

			changed = true
		}
	}

	if !changed {
		return raw
	}

	return q.Encode()
}
