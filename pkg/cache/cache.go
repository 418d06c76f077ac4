// Package cache 提供基于键值存储的泛型缓存实现.
//
// 该包提供了类型安全的缓存操作，支持任意类型的缓存值以及原始字节（缩略图）.
// 结构化值使用 sonic 做 JSON 序列化，字节值原样写入，二者都支持 TTL.
//
// 基本用法:
//
//	c := cache.New(kvStore, "plans")
//
//	// 缓存套餐列表
//	err := cache.Set(ctx, c, "all", plans, time.Minute)
//	plans, err := cache.Get[[]model.Plan](ctx, c, "all")
//
//	// 读穿：同一个键的并发未命中只执行一次 loader
//	data, err := c.GetOrLoadBytes(ctx, "thumb:abc:200", time.Hour, render)
//
// 空缓存:
//
//	KV 为可选依赖，New(nil, ...) 返回的 Cache 每次都未命中，写入被忽略，
//	调用方无需区分是否配置了 KV.
//
// 错误处理:
//   - 缓存未命中返回 ErrMiss
//   - 序列化/反序列化错误会被包装并返回
//   - 读穿路径上的缓存写入失败不会影响返回值
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
)

// ErrMiss 缓存未命中.
var ErrMiss = errors.New("cache miss")

// Cache 基于KV存储的缓存实现，所有键自动加上命名空间前缀.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
	group     singleflight.Group
}

// New 创建一个新的缓存实例，kvStore 可以为 nil.
func New(kvStore kv.KVStore, namespace string) *Cache {
	return &Cache{
		kvStore:   kvStore,
		namespace: namespace,
	}
}

// Enabled 是否有可用的底层存储.
func (c *Cache) Enabled() bool {
	return c != nil && c.kvStore != nil
}

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}

	return c.namespace + ":" + k
}

// GetBytes 读取原始字节.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrMiss
	}

	data, err := c.kvStore.Get(ctx, c.key(key))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, ErrMiss
	}

	return data, err
}

// SetBytes 写入原始字节.
func (c *Cache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	return c.kvStore.Set(ctx, c.key(key), value, ttl)
}

// GetOrLoadBytes 读取字节，未命中时调用 loader 并回填；同一键的并发未命中合并为一次加载.
func (c *Cache) GetOrLoadBytes(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, err := c.GetBytes(ctx, key); err == nil {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// 等待期间可能已被其它实例写入
		if data, gerr := c.GetBytes(ctx, key); gerr == nil {
			return data, nil
		}

		data, lerr := loader(ctx)
		if lerr != nil {
			return nil, lerr
		}

		_ = c.SetBytes(ctx, key, data, ttl)

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.GetBytes(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.SetBytes(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}

	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	return c.kvStore.Exists(ctx, c.key(key))
}

// DeletePrefix 删除命名空间内以 prefix 开头的键.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}

	keys, err := c.kvStore.Keys(ctx, c.key(prefix)+"*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}

// Clear 清空命名空间内的全部键.
func (c *Cache) Clear(ctx context.Context) error {
	return c.DeletePrefix(ctx, "")
}
