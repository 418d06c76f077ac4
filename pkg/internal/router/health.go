package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由：/health 汇总，/health/<component> 单项.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	h := g.Group("/health")

	h.GET("", handle.HealthAll)

	for name, fn := range map[string]gin.HandlerFunc{
		"db": handle.HealthDB,
		"s3": handle.HealthS3,
		"kv": handle.HealthKV,
		"mq": handle.HealthMQ,
	} {
		h.GET("/"+name, fn)
	}
}
