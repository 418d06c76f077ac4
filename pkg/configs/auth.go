package configs

import "github.com/spf13/viper"

// AuthConfig 控制统一身份认证. 身份来自前置认证代理（oauth2-proxy 等）注入的请求头，本服务不做密码登录.
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`         // 开启认证校验
	UserHeaders   []string `mapstructure:"user_headers"`    // 按优先级读取用户名的请求头，为空时使用内置列表
	SkipPaths     []string `mapstructure:"skip_paths"`      // 跳过认证的路径前缀（如 /metrics、/temp）
	DevAllowQuery bool     `mapstructure:"dev_allow_query"` // 开发模式允许用 ?user= 便于本地调试
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.user_headers", []string{"X-Auth-Request-Email", "X-Forwarded-Email", "X-User"})
	// /temp 是公开兑换端点，令牌本身即凭证
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
		"/temp",
	})
}
