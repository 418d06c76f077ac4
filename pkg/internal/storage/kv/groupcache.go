package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/yeisme/imagevault/pkg/configs"
)

// GroupcacheKV 进程内按字节数限额的 LRU，基于 groupcache/lru.
// 超出 CacheBytes 时淘汰最久未使用的键；删除立即生效，适合可失效的响应缓存与缩略图缓存.
type GroupcacheKV struct {
	mu       sync.Mutex
	lru      *lru.Cache
	index    map[string]struct{}
	bytes    int64
	maxBytes int64
	now      func() time.Time
}

// NewGroupcacheKV 创建 LRU KV 实例.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	cfg, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid groupcache config")
	}

	if cfg.CacheBytes <= 0 {
		return nil, fmt.Errorf("groupcache cache_bytes must be positive")
	}

	g := &GroupcacheKV{
		lru:      lru.New(cfg.MaxEntries),
		index:    make(map[string]struct{}),
		maxBytes: cfg.CacheBytes,
		now:      time.Now,
	}

	g.lru.OnEvicted = func(key lru.Key, value any) {
		k, _ := key.(string)
		b, _ := value.([]byte)
		g.bytes -= int64(len(k) + len(b))
		delete(g.index, k)
	}

	return g, nil
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(_ context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.lru.Get(key)
	if !ok {
		return nil, notFound(key)
	}

	val, expired, err := unstamp(v.([]byte), g.now())
	if err != nil {
		return nil, err
	}

	if expired {
		g.lru.Remove(key)

		return nil, notFound(key)
	}

	return append([]byte(nil), val...), nil
}

// Set 写入键值，单个值超过总限额时返回错误.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := stamp(value, ttl, g.now())
	if err != nil {
		return err
	}

	size := int64(len(key) + len(encoded))
	if size > g.maxBytes {
		return fmt.Errorf("value for %s exceeds cache_bytes (%d > %d)", key, size, g.maxBytes)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.lru.Remove(key)
	g.lru.Add(key, encoded)
	g.index[key] = struct{}{}
	g.bytes += size

	for g.bytes > g.maxBytes {
		g.lru.RemoveOldest()
	}

	return nil
}

// Delete 删除键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lru.Remove(key)

	return nil
}

// Exists 检查键是否存在且未过期.
func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := g.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 返回匹配 pattern 的键，不区分是否过期.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make([]string, 0, len(g.index))
	for k := range g.index {
		if matchPattern(k, pattern) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 清空缓存.
func (g *GroupcacheKV) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lru.Clear()

	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
