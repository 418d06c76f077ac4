package configs

import "github.com/spf13/viper"

// LinkConfig 过期链接签名配置.
type LinkConfig struct {
	// Secret 进程级 HMAC 密钥，启动时读取一次，不随热重载变化
	Secret string `mapstructure:"secret"   rule:"required,min=16"`
	// BaseURL 对外访问地址（scheme://host），为空时按请求的 Host 拼接
	BaseURL string `mapstructure:"base_url" rule:"omitempty,url"`
}

func (c *LinkConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("link.secret", "")
	v.SetDefault("link.base_url", "")
}
