package kv

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryKV 进程内 KV，仅适合单实例或测试；过期键在读取时删除.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例，配置参数被忽略.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &MemoryKV{data: make(map[string][]byte), now: time.Now}, nil
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, notFound(key)
	}

	value, expired, err := unstamp(raw, m.now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.mu.Lock()
		// 期间可能被重新写入，只删除同一份旧值
		if cur, ok := m.data[key]; ok && bytes.Equal(cur, raw) {
			delete(m.data, key)
		}
		m.mu.Unlock()

		return nil, notFound(key)
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := stamp(value, ttl, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[key] = encoded
	m.mu.Unlock()

	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)

	return err == nil, nil
}

// Keys 返回匹配 pattern 的键，可能包含尚未被读取清理的过期键.
func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if matchPattern(k, pattern) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
