package configs

import (
	"time"

	"github.com/spf13/viper"
)

// KV 类型.
const (
	KVTypeMemory     = "memory"
	KVTypeRedis      = "redis"
	KVTypeNATS       = "nats"
	KVTypeGroupcache = "groupcache"
)

// KVConfig 键值存储配置，用于缩略图与响应缓存. type 为空时不启用缓存.
type KVConfig struct {
	Type       string             `mapstructure:"type"       rule:"omitempty,oneof=memory redis nats groupcache"`
	Redis      RedisKVConfig      `mapstructure:"redis"`
	NATS       NATSKVConfig       `mapstructure:"nats"`
	Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
}

// RedisKVConfig Redis 配置.
type RedisKVConfig struct {
	Addr        string        `mapstructure:"addr"         rule:"hostname_port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"           rule:"min=0,max=15"`
	PoolSize    int           `mapstructure:"pool_size"    rule:"min=0"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// NATSKVConfig JetStream KV 配置. TTL 为 bucket 级别的最长保留时间.
type NATSKVConfig struct {
	URL      string        `mapstructure:"url"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Bucket   string        `mapstructure:"bucket"    rule:"required"`
	TTL      time.Duration `mapstructure:"ttl"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

// GroupcacheKVConfig 进程内 LRU 配置.
type GroupcacheKVConfig struct {
	CacheBytes int64 `mapstructure:"cache_bytes" rule:"min=1048576"`
	MaxEntries int   `mapstructure:"max_entries" rule:"min=0"` // 0 表示只按字节数限制
}

// setDefaults 设置 KV 配置的默认值.
func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", KVTypeMemory)

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.db", 0)
	v.SetDefault("kv.redis.pool_size", 0)
	v.SetDefault("kv.redis.dial_timeout", 5*time.Second)
	v.SetDefault("kv.redis.read_timeout", 3*time.Second)

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.bucket", "imagevault-kv")
	v.SetDefault("kv.nats.ttl", 24*time.Hour)
	v.SetDefault("kv.nats.max_bytes", -1)

	v.SetDefault("kv.groupcache.cache_bytes", 256<<20)
	v.SetDefault("kv.groupcache.max_entries", 0)
}
