// Package mq 提供基于 Watermill 库的统一消息队列操作接口，用于发布图片与链接的领域事件.
// 通过工厂模式抽象不同的 MQ 实现.
//
// 支持的 MQ 类型：
//   - NATS（支持 JetStream）
//   - redis（pub/sub）
//   - memory（进程内 gochannel）
//
// 使用示例：
//
//	client, err := mq.New(ctx, &configs.GetConfig().MQ)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "topic", msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"slices"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/imagevault/pkg/configs"
	nlog "github.com/yeisme/imagevault/pkg/log"
	imetrics "github.com/yeisme/imagevault/pkg/metrics"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factories = map[configs.MQType]Factory{}
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型（已排序）.
func GetRegisteredMQTypes() []configs.MQType {
	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	slices.Sort(out)

	return out
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	mqType     configs.MQType
	prefix     string // NATS subject 前缀
}

// NewClient 直接用已有的 Publisher 与 Subscriber 组装 Client.
func NewClient(pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub}
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType {
	return c.mqType
}

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)

		if err := c.publisher.Publish(c.prefix+topic, m); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}

	return nil
}

// Subscribe 便捷订阅.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	ch, err := c.subscriber.Subscribe(ctx, c.prefix+topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return ch, nil
}

// HealthCheck 检查客户端是否可用.
func (c *Client) HealthCheck(_ context.Context) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return nil
}

// Close 关闭资源.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	// gochannel 的 publisher 与 subscriber 是同一个实例
	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}

// New 按配置初始化消息队列，启用 metrics 时使用全局 Prometheus 注册表装饰.
func New(ctx context.Context, cfg *configs.MQConfig) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if configs.GetConfig().Metrics.Enabled {
		builder := metrics.NewPrometheusMetricsBuilder(imetrics.GetRegistry(), "imagevault", "mq")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("mq client initialized")

	client := &Client{publisher: pub, subscriber: sub, mqType: cfg.Type}
	if cfg.Type == configs.MQTypeNATS {
		client.prefix = cfg.NATS.SubjectPrefix
	}

	return client, nil
}
