// Package kv 提供用于键值存储的接口和实现，供缩略图与响应缓存使用.
package kv

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/yeisme/imagevault/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("key not found")

// Client 包装具体的 KVStore 实现.
type Client struct {
	KVStore
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值，不存在时返回 ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，可选过期时间.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 获取匹配的键，pattern 支持末尾的 * 前缀匹配.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = configs.KVTypeMemory
	KVTypeRedis      KVType = configs.KVTypeRedis
	KVTypeNATS       KVType = configs.KVTypeNATS
	KVTypeGroupcache KVType = configs.KVTypeGroupcache
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

// kvFactories 存储 KV 类型到工厂的映射.
var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表（已排序）.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	slices.Sort(types)

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factory, exists := kvFactories[kvType]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// NewKVClient 按配置创建 KV 客户端.
func NewKVClient(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	var sub any

	switch KVType(cfg.Type) {
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	}

	store, err := NewKVStore(ctx, KVType(cfg.Type), sub)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store}, nil
}

// HealthCheck 通过读写探针键检查可用性.
func (c *Client) HealthCheck(ctx context.Context) error {
	const probe = "imagevault-health-probe"

	if err := c.Set(ctx, probe, []byte("ok"), time.Minute); err != nil {
		return err
	}

	_, err := c.Get(ctx, probe)

	return err
}

// matchPattern 判断 key 是否匹配 pattern：空串匹配全部，末尾 * 为前缀匹配，否则精确匹配.
func matchPattern(key, pattern string) bool {
	switch {
	case pattern == "" || pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	default:
		return key == pattern
	}
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}
