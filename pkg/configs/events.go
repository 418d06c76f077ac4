package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Image   ImageEventsConfig `mapstructure:"image"`
	Link    LinkEventsConfig  `mapstructure:"link"`
}

// ImageEventsConfig 图片领域事件开关。
type ImageEventsConfig struct {
	Stored  bool `mapstructure:"stored"`
	Deleted bool `mapstructure:"deleted"`
}

// LinkEventsConfig 过期链接领域事件开关。
type LinkEventsConfig struct {
	Issued   bool `mapstructure:"issued"`
	Evicted  bool `mapstructure:"evicted"`
	Redeemed bool `mapstructure:"redeemed"` // 兑换量可能很大，默认关闭
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.image.stored", true)
	v.SetDefault("events.image.deleted", true)

	v.SetDefault("events.link.issued", true)
	v.SetDefault("events.link.evicted", true)
	v.SetDefault("events.link.redeemed", false)
}
