// Package queue 定义 imagevault 的领域事件：统一信封、主题与负载.
//
// 概览
//   - 统一的消息封装：Message[Payload] = Header + Payload
//   - 主题常量见 topics.go，负载结构体见 payloads.go
//   - 默认 JSON 编解码（bytedance/sonic）
//
// 消息信封（Envelope）JSON 结构
//
//	{
//	  "header": {
//	    "topic": "iv.link.issued",
//	    "trace_id": "optional-trace-id",
//	    "producer": "imagevault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布/订阅示例
//
//	msg, _ := queue.NewWatermillMessage(
//	  queue.TopicLinkIssued,
//	  queue.LinkIssuedPayload{ImageID: id, Identifier: "200", Duration: 300},
//	  queue.WithProducer("imagevault"),
//	)
//	_ = client.Publish(ctx, queue.TopicLinkIssued, msg)
//
//	ch, _ := client.Subscribe(ctx, queue.TopicLinkIssued)
//	for m := range ch {
//	    env, _ := queue.ParseWatermillMessage[queue.LinkIssuedPayload](m)
//	    m.Ack()
//	}
//
// 注意：负载中不包含令牌本身，令牌即访问凭证.
package queue

import (
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
	// DefaultProducer 默认生产者标识.
	DefaultProducer = "imagevault"
)

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID，同时作为 watermill 的 correlation id.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息. 消息 ID 使用 ULID，按时间有序；
// 头部字段同时写入 metadata，订阅方无需解码负载即可按主题或关联 ID 过滤.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewULID(), data)

	for k, v := range map[string]string{
		"topic":       topic,
		"producer":    header.Producer,
		"version":     header.Version,
		"occurred_at": header.OccurredAt.Format(time.RFC3339Nano),
	} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	if header.TraceID != "" {
		middleware.SetCorrelationID(header.TraceID, msg)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
