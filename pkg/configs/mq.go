package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS   MQType = "nats"
	MQTypeRedis  MQType = "redis"  // Redis pub/sub，至多一次投递
	MQTypeMemory MQType = "memory" // 进程内 gochannel，单实例部署与测试使用
)

// MQConfig 领域事件使用的消息队列配置，仅在 events.enabled 时初始化.
type MQConfig struct {
	Type   MQType         `mapstructure:"type"   rule:"oneof=nats redis memory"`
	NATS   MQNATSConfig   `mapstructure:"nats"`
	Redis  MQRedisConfig  `mapstructure:"redis"`
	Memory MQMemoryConfig `mapstructure:"memory"`
}

// MQRedisConfig Redis pub/sub 配置，频道名为 channel_prefix + 主题.
type MQRedisConfig struct {
	Addr          string `mapstructure:"addr"           rule:"hostname_port"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"             rule:"min=0,max=15"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// MQNATSConfig NATS 连接与 JetStream 配置.
type MQNATSConfig struct {
	URLs          []string      `mapstructure:"urls"           rule:"min=1"`
	ClientName    string        `mapstructure:"client_name"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	CredsFile     string        `mapstructure:"creds_file"` // NATS .creds（JWT + NKey seed）
	MaxReconnects int           `mapstructure:"max_reconnects" rule:"min=-1"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	// RetryOnFailedConnect 启动时 NATS 不可达也继续运行，后台重连
	RetryOnFailedConnect bool            `mapstructure:"retry_on_failed_connect"`
	SubjectPrefix        string          `mapstructure:"subject_prefix"`
	JetStream            JetStreamConfig `mapstructure:"jetstream"`
}

// JetStreamConfig 事件持久化配置. 关闭时退化为 core NATS（至多一次）.
type JetStreamConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	AutoProvision bool          `mapstructure:"auto_provision"`
	TrackMsgID    bool          `mapstructure:"track_msg_id"`
	AckAsync      bool          `mapstructure:"ack_async"`
	DurablePrefix string        `mapstructure:"durable_prefix"`
	AckWait       time.Duration `mapstructure:"ack_wait"`
}

// MQMemoryConfig gochannel 配置.
type MQMemoryConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	// Persistent 保留已发布消息，晚到的订阅者也能收到
	Persistent bool `mapstructure:"persistent"`
}

// setDefaults 设置 MQ 配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeMemory)

	v.SetDefault("mq.nats.urls", []string{"nats://localhost:4222"})
	v.SetDefault("mq.nats.client_name", "imagevault")
	v.SetDefault("mq.nats.max_reconnects", 5)
	v.SetDefault("mq.nats.reconnect_wait", 5*time.Second)
	v.SetDefault("mq.nats.ping_interval", 20*time.Second)
	v.SetDefault("mq.nats.retry_on_failed_connect", true)
	v.SetDefault("mq.nats.subject_prefix", "imagevault.")

	v.SetDefault("mq.nats.jetstream.enabled", true)
	v.SetDefault("mq.nats.jetstream.auto_provision", true)
	v.SetDefault("mq.nats.jetstream.track_msg_id", true)
	v.SetDefault("mq.nats.jetstream.ack_async", false)
	v.SetDefault("mq.nats.jetstream.durable_prefix", "imagevault")
	v.SetDefault("mq.nats.jetstream.ack_wait", 30*time.Second)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
	v.SetDefault("mq.redis.channel_prefix", "imagevault:")

	v.SetDefault("mq.memory.output_buffer", 256)
	v.SetDefault("mq.memory.persistent", false)
}
