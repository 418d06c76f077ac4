// Package storage 聚合数据库、对象存储、KV 与消息队列客户端.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		// 处理错误
//	}
//
//	db := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/imagevault/pkg/configs"
	dbc "github.com/yeisme/imagevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/imagevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/imagevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/imagevault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/imagevault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	KV *kvc.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置. 重复调用只返回已初始化实例.
// KV 与 MQ 为可选依赖：失败时记录警告并降级（缩略图不缓存、事件不发布）.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		var err error

		if m.DB, err = dbc.New(ctx, &cfg.DB); err != nil {
			mgrErr = fmt.Errorf("init db: %w", err)

			return
		}

		if m.S3, err = s3c.New(ctx, &cfg.S3); err != nil {
			mgrErr = fmt.Errorf("init s3: %w", err)

			return
		}

		if m.KV, err = kvc.NewKVClient(ctx, &cfg.KV); err != nil {
			nlog.Logger().Warn().Err(err).Str("type", cfg.KV.Type).Msg("kv unavailable, thumbnail cache disabled")
		}

		if cfg.Events.Enabled {
			if m.MQ, err = mqc.New(ctx, &cfg.MQ); err != nil {
				nlog.Logger().Warn().Err(err).Str("type", string(cfg.MQ.Type)).Msg("mq unavailable, events disabled")
			}
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, mgrErr
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端，可能为 nil.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，可能为 nil.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 关闭全部客户端.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
