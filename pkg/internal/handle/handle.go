// Package handle 提供 HTTP 请求处理器. 错误统一经 respondError 映射为状态码.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/middleware"
	"github.com/yeisme/imagevault/pkg/rule"
)

const depsKey = "imagevault.deps"

// DepsMiddleware 直接注入服务依赖，替代从存储管理器构造，测试与命令行工具使用.
func DepsMiddleware(d service.Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(depsKey, d)
		c.Next()
	}
}

func deps(c *gin.Context) service.Deps {
	if v, ok := c.Get(depsKey); ok {
		if d, ok := v.(service.Deps); ok {
			return d
		}
	}

	return service.DepsFromContext(c.Request.Context())
}

// checkUser 返回当前调用者，未认证时写入 401.
func checkUser(c *gin.Context) (service.Caller, bool) {
	user := middleware.GetUser(c)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return service.Caller{}, false
	}

	return service.Caller{Username: user, Staff: middleware.GetRole(c).IsStaff()}, true
}

// baseURL 对外地址优先取配置，否则按请求推断.
func baseURL(c *gin.Context) string {
	if base := configs.GetConfig().Link.BaseURL; base != "" {
		return base
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return scheme + "://" + host
}

func presenter(c *gin.Context) *service.PresentationService {
	return service.NewPresentationService(deps(c), baseURL(c))
}

// bindError 请求体或查询参数绑定失败时返回 400.
func bindError(c *gin.Context, err error) {
	if errs := rule.Errors(err); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// respondError 把服务层错误映射为 HTTP 状态码.
func respondError(c *gin.Context, err error, msg string) {
	l := log.FromContext(c.Request.Context())

	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{verr.Field: verr.Message}})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
	case errors.Is(err, service.ErrUnavailable):
		l.Error().Err(err).Msg(msg)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		l.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
