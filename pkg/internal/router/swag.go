package router

import (
	"net/url"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/imagevault/docs"
	"github.com/yeisme/imagevault/pkg/configs"
)

// RegisterSwaggerRoute 调试模式下注册 Swagger 文档路由.
// 配置了 link.base_url 时文档使用对外地址，与响应中的链接保持一致.
func RegisterSwaggerRoute(r *gin.Engine) {
	cfg := configs.GetConfig()
	if !cfg.Server.Debug {
		return
	}

	docs.SwaggerInfo.Version = configs.AppVersion
	docs.SwaggerInfo.Host = cfg.Server.Addr()
	docs.SwaggerInfo.Schemes = []string{"http"}

	if u, err := url.Parse(cfg.Link.BaseURL); err == nil && u.Host != "" {
		docs.SwaggerInfo.Host = u.Host
		docs.SwaggerInfo.Schemes = []string{u.Scheme}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("none"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))
}
