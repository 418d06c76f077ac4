// Package router 把处理器绑定到 gin 路由. 鉴权相关的中间件在这里按路由组挂载.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/internal/handle"
	"github.com/yeisme/imagevault/pkg/middleware"
)

// RegisterRootRoutes 注册 API 根路径与公开的兑换端点.
//
//	GET /            -> APIRoot
//	GET /temp?token= -> RedeemTemp
func RegisterRootRoutes(r gin.IRouter) {
	r.GET("/", handle.APIRoot)
	r.GET("/temp", handle.RedeemTemp)
}

// RegisterImageRoutes 注册图片与链接路由：
//
//	POST   /images                    -> UploadImage
//	GET    /images                    -> ListImages
//	GET    /images/:id                -> GetImage
//	DELETE /images/:id                -> DeleteImage
//	GET    /images/:id/link           -> LinkView
//	POST   /images/:id/get-temporary  -> IssueLink
func RegisterImageRoutes(g *gin.RouterGroup) {
	images := g.Group("/images")
	{
		images.POST("", handle.UploadImage)
		images.GET("", handle.ListImages)

		single := images.Group("/:id")
		{
			single.GET("", handle.GetImage)
			single.DELETE("", handle.DeleteImage)
			single.GET("/link", handle.LinkView)
			single.POST("/get-temporary", handle.IssueLink)
		}
	}
}

// RegisterUserRoutes 注册用户路由，列表需要 staff，删除需要 admin.
func RegisterUserRoutes(g *gin.RouterGroup) {
	users := g.Group("/users")
	{
		users.GET("", middleware.RequireMinRole(middleware.RoleStaff), handle.ListUsers)
		users.GET("/me", handle.Me)
		users.GET("/:username", handle.GetUser)
		users.DELETE("/:username", middleware.RequireMinRole(middleware.RoleAdmin), handle.DeleteUser)
	}
}
