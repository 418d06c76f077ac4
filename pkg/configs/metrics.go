package configs

import "github.com/spf13/viper"

// MetricsConfig Prometheus 指标配置，/metrics 挂在调试端口上.
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`         // 是否启用
	RuntimeMetrics bool `mapstructure:"runtime_metrics"` // 是否收集 Go 运行时与进程指标
	Pprof          bool `mapstructure:"pprof"`           // 是否在调试引擎上暴露 pprof
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.pprof", false)
}
