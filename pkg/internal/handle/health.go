package handle

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/imagevault/pkg/context"
)

const timeout = 2 * time.Second

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// probe 在超时内执行一次健康检查并写出结果.
func probe(c *gin.Context, component string, hc healthChecker) {
	if hc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": component + " client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := hc.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	var hc healthChecker
	if dbc := ctxPkg.GetDBClient(c.Request.Context()); dbc != nil {
		hc = dbc
	}

	probe(c, "db", hc)
}

// HealthS3 对象存储健康检查.
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/s3 [get]
func HealthS3(c *gin.Context) {
	var hc healthChecker
	if s3c := ctxPkg.GetS3Client(c.Request.Context()); s3c != nil {
		hc = s3c
	}

	probe(c, "s3", hc)
}

// HealthKV 键值缓存健康检查，缓存为可选依赖.
//
//	@Summary	KV 健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) {
	var hc healthChecker
	if kvc := ctxPkg.GetKVClient(c.Request.Context()); kvc != nil {
		hc = kvc
	}

	probe(c, "kv", hc)
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	var hc healthChecker
	if mqc := ctxPkg.GetMQClient(c.Request.Context()); mqc != nil {
		hc = mqc
	}

	probe(c, "mq", hc)
}

// component 描述一个可探测的后端依赖.
type component struct {
	name     string
	required bool // 必需组件不可用时整体返回 503
	lookup   func(ctx context.Context) healthChecker
}

var components = []component{
	{name: "db", required: true, lookup: func(ctx context.Context) healthChecker {
		if c := ctxPkg.GetDBClient(ctx); c != nil {
			return c
		}

		return nil
	}},
	{name: "s3", required: true, lookup: func(ctx context.Context) healthChecker {
		if c := ctxPkg.GetS3Client(ctx); c != nil {
			return c
		}

		return nil
	}},
	{name: "kv", lookup: func(ctx context.Context) healthChecker {
		if c := ctxPkg.GetKVClient(ctx); c != nil {
			return c
		}

		return nil
	}},
	{name: "mq", lookup: func(ctx context.Context) healthChecker {
		if c := ctxPkg.GetMQClient(ctx); c != nil {
			return c
		}

		return nil
	}},
}

// HealthAll 并发探测全部组件. db 与 s3 为必需组件，kv 与 mq 未配置时记为 disabled.
//
//	@Summary	整体健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health [get]
func HealthAll(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(components))
		healthy = true
	)

	var g errgroup.Group

	for _, comp := range components {
		g.Go(func() error {
			status := "ok"

			hc := comp.lookup(ctx)
			switch {
			case hc == nil && comp.required:
				status = "not initialized"
			case hc == nil:
				status = "disabled"
			default:
				if err := hc.HealthCheck(ctx); err != nil {
					status = err.Error()
				}
			}

			mu.Lock()
			defer mu.Unlock()

			results[comp.name] = status
			if comp.required && status != "ok" {
				healthy = false
			}

			return nil
		})
	}

	_ = g.Wait()

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{"healthy": healthy, "components": results})
}
