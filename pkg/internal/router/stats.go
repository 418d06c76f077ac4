package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/handle"
)

// RegisterStatsRoutes 注册用量统计路由.
func RegisterStatsRoutes(g *gin.RouterGroup) {
	g.GET("/stats", handle.UsageStats)
}
