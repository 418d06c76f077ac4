package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/context"
	"github.com/yeisme/imagevault/pkg/internal/storage"
	"github.com/yeisme/imagevault/pkg/scheduler"
	"github.com/yeisme/imagevault/pkg/signer"
)

// InjectMiddleware 将存储管理器、链接签名器与任务调度器注入 request context.
// 三者都是进程级单例，sched 为 nil 时任务管理接口返回 503.
func InjectMiddleware(manager *storage.Manager, s *signer.Signer, sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		ctx = context.WithSigner(ctx, s)

		if sched != nil {
			ctx = context.WithScheduler(ctx, sched)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
