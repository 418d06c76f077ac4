package configs

import "github.com/spf13/viper"

// JobsConfig 定时任务配置.
type JobsConfig struct {
	LinkSweep LinkSweepConfig `mapstructure:"link_sweep"`
}

// LinkSweepConfig 过期链接清扫任务. 惰性淘汰仍是主路径，清扫只回收长期无人访问的记录.
type LinkSweepConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Cron      string `mapstructure:"cron"`
	BatchSize int    `mapstructure:"batch_size"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.link_sweep.enabled", false)
	v.SetDefault("jobs.link_sweep.cron", "*/30 * * * *")
	v.SetDefault("jobs.link_sweep.batch_size", 500)
}
