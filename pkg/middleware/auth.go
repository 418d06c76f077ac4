// Package middleware 提供 HTTP 中间件：身份、角色、日志、指标、追踪、限流、熔断与响应缓存.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/configs"
)

// defaultIdentityHeaders 未配置 auth.user_headers 时使用的身份请求头.
var defaultIdentityHeaders = []string{"X-Auth-Request-Email", "X-Forwarded-Email", "X-User"}

const userCtxKey = "user"

type userKey struct{}

// AuthMiddleware 基于认证代理注入的请求头做统一身份认证校验.
//   - 按 conf.UserHeaders 顺序取第一个非空值作为用户名
//   - 支持通过配置跳过某些路径（如 /metrics、/temp）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）
//
// 解析出的用户名写入 gin.Context 与 request.Context，下游通过 GetUser 读取.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	headers := conf.UserHeaders
	if len(headers) == 0 {
		headers = defaultIdentityHeaders
	}

	return func(c *gin.Context) {
		user := identityFromHeaders(c, headers)
		if user == "" && conf.DevAllowQuery {
			user = strings.TrimSpace(c.Query("user"))
		}

		if user != "" {
			setUser(c, user)
		}

		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}

func identityFromHeaders(c *gin.Context, headers []string) string {
	for _, h := range headers {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}

	return ""
}

func setUser(c *gin.Context, user string) {
	c.Set(userCtxKey, user)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userKey{}, user))
}

// GetUser 返回当前请求的用户名，未认证时返回空串.
func GetUser(c *gin.Context) string {
	if v, ok := c.Get(userCtxKey); ok {
		if s, ok2 := v.(string); ok2 {
			return s
		}
	}

	return UserFromContext(c.Request.Context())
}

// UserFromContext 从 request context 读取用户名.
func UserFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey{}).(string); ok {
		return s
	}

	return ""
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
