package middleware

import (
	crand "crypto/rand"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid"

	"github.com/yeisme/imagevault/pkg/log"
)

// RequestIDHeader 请求 ID 头.
const RequestIDHeader = "X-Request-ID"

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(crand.Reader, 0)
)

// NewRequestID 生成按时间有序的 ULID.
func NewRequestID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// RequestIDMiddleware 透传或生成 X-Request-ID，并写入 request context 供日志使用.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = NewRequestID()
		}

		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
