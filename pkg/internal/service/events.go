package service

import (
	"context"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/model"
	nlog "github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/queue"
)

// 链接淘汰的触发路径.
const (
	EvictByRedeem = "redeem"
	EvictByView   = "view"
	EvictBySweep  = "sweep"
)

// publish 发布领域事件. 事件是尽力而为的通知，失败只记日志，不影响业务结果.
func publish[T any](ctx context.Context, d Deps, topic string, payload T) {
	if d.Events == nil || !eventEnabled(d.config().Events, topic) {
		return
	}

	l := nlog.FromContext(ctx)

	msg, err := queue.NewWatermillMessage(topic, payload,
		queue.WithProducer(queue.DefaultProducer),
		queue.WithTraceID(nlog.RequestID(ctx)),
	)
	if err != nil {
		l.Warn().Err(err).Str("topic", topic).Msg("encode event failed")
		return
	}

	if err := d.Events.Publish(ctx, topic, msg); err != nil {
		l.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

func eventEnabled(cfg configs.EventsConfig, topic string) bool {
	if !cfg.Enabled {
		return false
	}

	switch topic {
	case queue.TopicImageStored:
		return cfg.Image.Stored
	case queue.TopicImageDeleted:
		return cfg.Image.Deleted
	case queue.TopicLinkIssued:
		return cfg.Link.Issued
	case queue.TopicLinkEvicted:
		return cfg.Link.Evicted
	case queue.TopicLinkRedeemed:
		return cfg.Link.Redeemed
	default:
		return false
	}
}

func imageRef(img *model.Image) queue.ImageRef {
	return queue.ImageRef{
		ImageID:     img.ID,
		Owner:       img.Owner,
		ObjectKey:   img.ObjectKey,
		ContentType: img.ContentType,
		Size:        img.Size,
	}
}
