// Package service 实现图片托管的业务逻辑：图片、套餐与等级、缩略图、过期链接的签发、兑换与展示.
//
// 服务通过 Deps 获取依赖，handler 使用 DepsFromContext 从请求 context 构造，
// 测试直接构造 Deps 并注入内存 SQLite 与假对象存储.
package service

import (
	"context"
	"io"

	"github.com/ThreeDotsLabs/watermill/message"
	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/configs"
	ctxPkg "github.com/yeisme/imagevault/pkg/context"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
	"github.com/yeisme/imagevault/pkg/signer"
)

// ObjectStore 对象存储能力，由 s3.Client 实现.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	RemovePrefix(ctx context.Context, prefix string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// EventPublisher 领域事件发布能力，由 mq.Client 实现.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Deps 服务依赖. KV 与 Events 可以为 nil.
type Deps struct {
	DB      *gorm.DB
	Objects ObjectStore
	KV      kv.KVStore
	Events  EventPublisher
	Signer  *signer.Signer
	Config  *configs.AppConfig
}

// DepsFromContext 从 request context 中的存储管理器与签名器构造 Deps.
func DepsFromContext(ctx context.Context) Deps {
	d := Deps{
		Signer: ctxPkg.GetSigner(ctx),
		Config: configs.GetConfig(),
	}

	if dbc := ctxPkg.GetDBClient(ctx); dbc != nil {
		d.DB = dbc.GetDB()
	}

	// 避免把 nil 指针装进非 nil 接口
	if s3c := ctxPkg.GetS3Client(ctx); s3c != nil {
		d.Objects = s3c
	}

	if kvc := ctxPkg.GetKVClient(ctx); kvc != nil {
		d.KV = kvc
	}

	if mqc := ctxPkg.GetMQClient(ctx); mqc != nil {
		d.Events = mqc
	}

	return d
}

func (d Deps) db(ctx context.Context) *gorm.DB {
	return d.DB.WithContext(ctx)
}

func (d Deps) config() *configs.AppConfig {
	if d.Config != nil {
		return d.Config
	}

	return configs.GetConfig()
}
