package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/configs"
)

// CORSMiddleware CORS中间件，放行身份与角色请求头，暴露签发链接与缓存相关的响应头.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = cfg.AllowOrigins
	}

	config.AllowHeaders = append(config.AllowHeaders, "Authorization", "X-User", "X-Role", "If-None-Match", RequestIDHeader)
	config.ExposeHeaders = []string{"Location", "ETag", "X-Cache", "Retry-After", RequestIDHeader}
	config.AllowFiles = cfg.Debug

	return cors.New(config)
}
