package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultThumbnailQuality   = 85 // JPEG 编码质量
	DefaultThumbnailCacheTTL  = 24 * time.Hour
	DefaultThumbnailMaxHeight = 4096
)

// ThumbnailConfig 缩略图渲染配置.
type ThumbnailConfig struct {
	Quality   int           `mapstructure:"quality"    rule:"min=1,max=100"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	MaxHeight int           `mapstructure:"max_height" rule:"min=1"`
}

func (c *ThumbnailConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("thumbnail.quality", DefaultThumbnailQuality)
	v.SetDefault("thumbnail.cache_ttl", DefaultThumbnailCacheTTL)
	v.SetDefault("thumbnail.max_height", DefaultThumbnailMaxHeight)
}
