// Package api 汇总 HTTP 路由，把各业务路由组挂载到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/router"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
)

// V1Prefix 版本化 API 前缀.
const V1Prefix = "/api/v1"

// RegisterGroup 注册全部路由. store 用于套餐列表的响应缓存，可以为 nil.
//
//	GET  /                  API 根路径
//	GET  /temp              过期链接兑换（公开）
//	*    /api/v1/images...  图片与链接
//	*    /api/v1/users...   用户
//	*    /api/v1/plans...   套餐与等级
//	GET  /api/v1/stats      用量统计
//	GET  /api/v1/health/*   健康检查
func RegisterGroup(e *gin.Engine, store kv.KVStore) *gin.Engine {
	router.RegisterRootRoutes(e)

	v1 := e.Group(V1Prefix)
	router.RegisterImageRoutes(v1)
	router.RegisterUserRoutes(v1)
	router.RegisterPlanRoutes(v1, store)
	router.RegisterStatsRoutes(v1)
	router.RegisterHealthCheckRoute(v1)
	router.RegisterSchedulerRoutes(v1)

	router.RegisterSwaggerRoute(e)

	return e
}
