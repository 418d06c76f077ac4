package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/imagevault/pkg/tracing"
)

// TracingMiddleware 创建Gin的分布式追踪中间件.
// 不记录完整 URL，/temp 的查询串包含令牌.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := tracing.StartSpan(tracing.Extract(c.Request.Context(), c.Request.Header), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", c.Request.UserAgent()),
				attribute.String("client.address", c.ClientIP()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		statusCode := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("http.request_id", c.Writer.Header().Get(RequestIDHeader)),
		)

		// 身份由 AuthMiddleware 在本中间件之后解析，只能在 c.Next 之后读取
		if user := GetUser(c); user != "" {
			span.SetAttributes(attribute.String("enduser.id", user), attribute.String("enduser.role", GetRole(c).String()))
		}

		switch {
		case len(c.Errors) > 0:
			span.SetStatus(codes.Error, c.Errors.String())
		case statusCode >= 500:
			span.SetStatus(codes.Error, "server error")
		default:
			span.SetStatus(codes.Ok, "")
		}
	}
}
