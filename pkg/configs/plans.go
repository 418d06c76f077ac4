package configs

import "github.com/spf13/viper"

const DefaultPlanName = "Basic"

// PlansConfig 默认套餐配置，首次访问 Tier 时自动创建.
type PlansConfig struct {
	DefaultName           string `mapstructure:"default_name"             rule:"required,max=64"`
	DefaultSizes          []int  `mapstructure:"default_sizes"            rule:"dive,min=1"`
	DefaultLinkToOriginal bool   `mapstructure:"default_link_to_original"`
	DefaultExpiringLink   bool   `mapstructure:"default_expiring_link"`
}

func (c *PlansConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("plans.default_name", DefaultPlanName)
	v.SetDefault("plans.default_sizes", []int{200})
	v.SetDefault("plans.default_link_to_original", false)
	v.SetDefault("plans.default_expiring_link", false)
}
