package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role 表示请求方的角色（使用 iota 实现的枚举，数值越大权限越高）.
type Role int

const (
	RoleUser  Role = iota + 1 // 普通用户，只能操作自己的图片
	RoleStaff                 // 员工，可查看和删除所有图片、查看用户列表
	RoleAdmin                 // 管理员，可维护套餐与用户等级
)

// String 返回角色的字符串表示.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	case RoleUser:
		fallthrough
	default:
		return "user"
	}
}

// IsStaff 是否具备员工及以上权限.
func (r Role) IsStaff() bool { return r >= RoleStaff }

type roleKey struct{}

// ParseRole 从字符串解析角色，未知值降级为 user.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "superuser":
		return RoleAdmin
	case "staff":
		return RoleStaff
	default:
		return RoleUser
	}
}

// RoleMiddleware 解析 X-Role 并注入到 gin.Context 和 request.Context.
// 缺省角色为 user.
func RoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := ParseRole(c.GetHeader("X-Role"))
		c.Set("role", r)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), roleKey{}, r))
		c.Next()
	}
}

// GetRole 从 gin.Context 获取当前请求角色.
func GetRole(c *gin.Context) Role {
	if v, ok := c.Get("role"); ok {
		if r, ok2 := v.(Role); ok2 {
			return r
		}
	}

	return RoleFromContext(c.Request.Context())
}

// RoleFromContext 从 request context 获取角色，缺省为 user.
func RoleFromContext(ctx context.Context) Role {
	if r, ok := ctx.Value(roleKey{}).(Role); ok {
		return r
	}

	return RoleUser
}

// RequireMinRole 要求最小角色，不满足则返回 403.
func RequireMinRole(minRole Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: insufficient role"})
			return
		}

		c.Next()
	}
}
