package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/handle"
	"github.com/yeisme/imagevault/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器相关路由，仅 admin.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	s := g.Group("/scheduler", middleware.RequireMinRole(middleware.RoleAdmin))
	{
		s.GET("/jobs", handle.SchedulerJobs)
		s.POST("/jobs/stop", handle.SchedulerStopJobs)
		s.DELETE("/jobs/:id", handle.SchedulerRemoveJob)
		s.POST("/jobs/:id/run", handle.SchedulerRunJob)
		s.GET("/queue/waiting", handle.SchedulerQueueWaiting)
		s.POST("/links/sweep", handle.SweepLinks)
	}
}
