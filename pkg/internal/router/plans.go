package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/handle"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
	"github.com/yeisme/imagevault/pkg/middleware"
)

// RegisterPlanRoutes 注册套餐与等级管理路由. 列表对所有登录用户开放并经 KV 缓存，写操作需要 admin.
func RegisterPlanRoutes(g *gin.RouterGroup, store kv.KVStore) {
	admin := middleware.RequireMinRole(middleware.RoleAdmin)

	plans := g.Group("/plans")
	{
		plans.GET("", middleware.ResponseCache(middleware.DefaultResponseCacheConfig(handle.PlansCache(store))), handle.ListPlans)
		plans.POST("", admin, handle.CreatePlan)
		plans.PUT("/:id", admin, handle.UpdatePlan)
	}

	g.PUT("/tiers/:username", admin, handle.AssignTier)
}
