package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断配置. 每个路由一个熔断器，5xx 计为失败.
type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	FailureRate float64       `mapstructure:"failure_rate" rule:"min=0,max=1"`
	MinRequests uint32        `mapstructure:"min_requests"`
	Interval    time.Duration `mapstructure:"interval"` // 闭合状态下计数清零周期
	Timeout     time.Duration `mapstructure:"timeout"`  // 打开状态持续时间，之后半开
	HalfOpenMax uint32        `mapstructure:"half_open_max"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.half_open_max", 5)
}
