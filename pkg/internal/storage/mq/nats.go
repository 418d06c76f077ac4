package mq

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/imagevault/pkg/configs"
)

const (
	natsDrainTimeout = 10 * time.Second
	natsCloseTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// natsOptions 由配置生成连接选项.
func natsOptions(cfg *configs.MQNATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.PingInterval(cfg.PingInterval),
		nats.DrainTimeout(natsDrainTimeout),
		nats.RetryOnFailedConnect(cfg.RetryOnFailedConnect),
	}

	switch {
	case cfg.CredsFile != "":
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	case cfg.User != "":
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

// jetStreamConfig 转换为 watermill-nats 的 JetStream 配置.
func jetStreamConfig(cfg configs.JetStreamConfig) wmnats.JetStreamConfig {
	if !cfg.Enabled {
		return wmnats.JetStreamConfig{Disabled: true}
	}

	return wmnats.JetStreamConfig{
		AutoProvision: cfg.AutoProvision,
		TrackMsgId:    cfg.TrackMsgID,
		AckAsync:      cfg.AckAsync,
		DurablePrefix: cfg.DurablePrefix,
	}
}

// natsFactory 创建 NATS Publisher 与 Subscriber，主题前缀由 Client 统一添加.
func natsFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	n := &cfg.NATS
	url := strings.Join(n.URLs, ",")
	opts := natsOptions(n)
	js := jetStreamConfig(n.JetStream)
	marshaler := &wmnats.JSONMarshaler{}

	logger.Info("connecting to NATS", watermill.LogFields{
		"urls":      url,
		"jetstream": n.JetStream.Enabled,
		"prefix":    n.SubjectPrefix,
	})

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		Marshaler:   marshaler,
		JetStream:   js,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:            url,
		NatsOptions:    opts,
		Unmarshaler:    marshaler,
		JetStream:      js,
		AckWaitTimeout: n.JetStream.AckWait,
		CloseTimeout:   natsCloseTimeout,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
