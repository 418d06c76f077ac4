package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 图片领域 --------------------------

// ImageRef 标识一张图片及其存储位置.
type ImageRef struct {
	ImageID     string `json:"image_id"`
	Owner       string `json:"owner"`
	Bucket      string `json:"bucket,omitempty"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// ImageStoredPayload iv.image.stored.
type ImageStoredPayload struct {
	Image    ImageRef `json:"image"`
	FileName string   `json:"file_name,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
}

// ImageDeletedPayload iv.image.deleted.
type ImageDeletedPayload struct {
	Image        ImageRef `json:"image"`
	DeletedBy    string   `json:"deleted_by"`
	LinksRemoved int64    `json:"links_removed"`
}

// -------------------------- 过期链接领域 --------------------------

// LinkIssuedPayload iv.link.issued.
type LinkIssuedPayload struct {
	ImageID    string `json:"image_id"`
	Identifier string `json:"identifier"`
	Duration   int    `json:"duration"`
	Replaced   bool   `json:"replaced"`
}

// LinkEvictedPayload iv.link.evicted.
type LinkEvictedPayload struct {
	ImageID    string `json:"image_id"`
	Identifier string `json:"identifier"`
	// Reason 触发淘汰的读取路径：redeem、view、sweep
	Reason string `json:"reason"`
}

// LinkRedeemedPayload iv.link.redeemed.
type LinkRedeemedPayload struct {
	ImageID    string `json:"image_id"`
	Identifier string `json:"identifier"`
}
