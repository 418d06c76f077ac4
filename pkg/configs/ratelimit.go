package configs

import "github.com/spf13/viper"

// RateLimitConfig 限流配置. 公开的兑换端点 /temp 使用独立且更严格的按 IP 配额.
type RateLimitConfig struct {
	Enabled bool            `mapstructure:"enabled"`
	API     RateLimitPolicy `mapstructure:"api"`
	Temp    RateLimitPolicy `mapstructure:"temp"`
}

// RateLimitPolicy 单条限流策略.
type RateLimitPolicy struct {
	RPS   float64 `mapstructure:"rps"   rule:"min=0"`
	Burst int     `mapstructure:"burst" rule:"min=0"`
	// Key 限流维度：global、ip、user 或 header:Header-Name
	Key string `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)

	v.SetDefault("rate_limit.api.rps", 50.0)
	v.SetDefault("rate_limit.api.burst", 100)
	v.SetDefault("rate_limit.api.key", "user")

	v.SetDefault("rate_limit.temp.rps", 5.0)
	v.SetDefault("rate_limit.temp.burst", 20)
	v.SetDefault("rate_limit.temp.key", "ip")
}
