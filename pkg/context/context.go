// Package context 保存进程级依赖（存储、签名器、调度器）在 request context 中的存取方式.
package context

import (
	"context"

	"github.com/yeisme/imagevault/pkg/internal/storage"
	dbc "github.com/yeisme/imagevault/pkg/internal/storage/db"
	kvc "github.com/yeisme/imagevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/imagevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/imagevault/pkg/internal/storage/s3"
	"github.com/yeisme/imagevault/pkg/scheduler"
	"github.com/yeisme/imagevault/pkg/signer"
)

// depKey 未导出，避免与其他包的 context key 冲突.
type depKey uint8

const (
	managerKey depKey = iota
	signerKey
	schedulerKey
)

// lookup 按类型取出依赖，缺失或类型不符时返回零值.
func lookup[T any](ctx context.Context, k depKey) T {
	v, _ := ctx.Value(k).(T)

	return v
}

// WithStorageManager 注入存储管理器.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// WithSigner 注入进程级链接签名器.
func WithSigner(ctx context.Context, s *signer.Signer) context.Context {
	return context.WithValue(ctx, signerKey, s)
}

// WithScheduler 注入任务调度器.
func WithScheduler(ctx context.Context, s *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey, s)
}

// GetSigner 未注入时返回 nil.
func GetSigner(ctx context.Context) *signer.Signer {
	return lookup[*signer.Signer](ctx, signerKey)
}

// GetScheduler 未注入时返回 nil，任务管理接口据此返回 503.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	return lookup[*scheduler.Scheduler](ctx, schedulerKey)
}

func manager(ctx context.Context) *storage.Manager {
	return lookup[*storage.Manager](ctx, managerKey)
}

// GetDBClient 返回数据库客户端；管理器或客户端缺失时为 nil.
func GetDBClient(ctx context.Context) *dbc.Client {
	if m := manager(ctx); m != nil {
		return m.GetDBClient()
	}

	return nil
}

// GetS3Client 返回对象存储客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if m := manager(ctx); m != nil {
		return m.GetS3Client()
	}

	return nil
}

// GetKVClient 返回 KV 客户端，kv.enabled=false 时为 nil.
func GetKVClient(ctx context.Context) *kvc.Client {
	if m := manager(ctx); m != nil {
		return m.GetKVClient()
	}

	return nil
}

// GetMQClient 返回消息队列客户端，mq.enabled=false 时为 nil.
func GetMQClient(ctx context.Context) *mqc.Client {
	if m := manager(ctx); m != nil {
		return m.GetMQClient()
	}

	return nil
}
