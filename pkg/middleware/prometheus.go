package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/imagevault/pkg/metrics"
)

// PrometheusMiddleware 记录请求数、耗时与在途请求.
// endpoint 标签使用路由模板（/api/v1/images/:id），ID 与令牌不会进入标签.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.InflightRequests.Inc()
		defer metrics.InflightRequests.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestCounter.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
