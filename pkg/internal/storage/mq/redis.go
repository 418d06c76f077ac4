package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/imagevault/pkg/configs"
)

// redisBufferSize 每个订阅的输出通道容量.
const redisBufferSize = 100

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisEnvelope Redis 频道上传输的消息，保留 watermill 消息 ID 与 metadata.
// Redis pub/sub 至多投递一次，没有订阅者时消息直接丢弃.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func encodeRedis(msg *message.Message) ([]byte, error) {
	return sonic.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
}

func decodeRedis(data []byte) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}

type redisPublisher struct {
	rdb    *redis.Client
	prefix string
}

type redisSubscriber struct {
	rdb    *redis.Client
	prefix string
	logger watermill.LoggerAdapter

	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
}

// redisFactory 创建基于 Redis pub/sub 的 Publisher 与 Subscriber，二者共享一个连接池.
func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: "imagevault-events",
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}

	pub := &redisPublisher{rdb: rdb, prefix: cfg.Redis.ChannelPrefix}
	sub := &redisSubscriber{rdb: rdb, prefix: cfg.Redis.ChannelPrefix, logger: logger}

	return pub, sub, nil
}

func (p *redisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		data, err := encodeRedis(msg)
		if err != nil {
			return fmt.Errorf("encode %s: %w", msg.UUID, err)
		}

		if err := p.rdb.Publish(msg.Context(), p.prefix+topic, data).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}

	return nil
}

// Close 连接池由 subscriber 关闭.
func (p *redisPublisher) Close() error { return nil }

func (s *redisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("subscribe %s: subscriber closed", topic)
	}

	ps := s.rdb.Subscribe(ctx, s.prefix+topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, redisBufferSize)

	go func() {
		defer close(out)

		for {
			raw, err := ps.ReceiveMessage(ctx)
			if err != nil {
				// ctx 取消或订阅关闭
				return
			}

			msg, err := decodeRedis([]byte(raw.Payload))
			if err != nil {
				s.logger.Error("drop undecodable redis message", err, watermill.LogFields{"topic": topic})
				continue
			}

			msg.SetContext(ctx)

			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *redisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	for _, ps := range s.subs {
		_ = ps.Close()
	}

	return s.rdb.Close()
}
