// Package configs 管理 imagevault 的应用程序配置，包括数据库、对象存储、KV、消息队列以及签名链接的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Link config:
//
//	config := configs.GetConfig()
//	maxAge := config.Link.MaxDuration
//	fmt.Println("Link max duration:", maxAge)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yeisme/imagevault/pkg/rule"
)

// AppVersion 应用版本，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀，例如 IMAGEVAULT_LINK_SECRET.
const EnvPrefix = "IMAGEVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值缓存配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 身份认证
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 领域事件开关
		Link           LinkConfig           `mapstructure:"link"`            // LinkConfig 过期链接签名
		Thumbnail      ThumbnailConfig      `mapstructure:"thumbnail"`       // ThumbnailConfig 缩略图渲染
		Plans          PlansConfig          `mapstructure:"plans"`           // PlansConfig 默认套餐
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
func InitConfig(path string) error {
	// .env 只用于补充环境变量，不存在时忽略
	_ = godotenv.Load(filepath.Join(path, ".env"))

	appViper = viper.New()
	setAllDefaults(appViper)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		appViper.SetConfigFile(path)
	} else {
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 没有配置文件时完全依赖默认值与环境变量
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.DB.setDefaults(v)
	c.S3.setDefaults(v)
	c.KV.setDefaults(v)
	c.MQ.setDefaults(v)
	c.Log.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.Auth.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Events.setDefaults(v)
	c.Link.setDefaults(v)
	c.Thumbnail.setDefaults(v)
	c.Plans.setDefaults(v)
	c.Jobs.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载；签名密钥只在启动时读取一次，重载不会影响已构造的 Signer
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// Validate 按 rule 标签校验当前配置.
func Validate() error {
	return globalConfig.Validate()
}

// Validate 校验服务启动必需的配置段.
func (c *AppConfig) Validate() error {
	sections := []any{&c.Server, &c.S3, &c.Log, &c.Link, &c.Thumbnail, &c.Plans, &c.KV, &c.Tracing}
	for _, s := range sections {
		if err := rule.ValidateStruct(s); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	return nil
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
