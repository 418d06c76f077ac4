package kv_test

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
)

func TestMemoryKVBasic(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "thumb:img-1:200", []byte("a"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "thumb:img-1:400", []byte("b"), time.Hour); err != nil {
		t.Fatalf("set ttl: %v", err)
	}

	if err := store.Set(ctx, "plans:list", []byte("c"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "thumb:img-1:400")
	if err != nil || string(got) != "b" {
		t.Fatalf("get ttl value = %q, %v", got, err)
	}

	keys, _ := store.Keys(ctx, "thumb:img-1:*")
	if len(keys) != 2 {
		t.Fatalf("prefix keys = %v, want 2", keys)
	}

	all, _ := store.Keys(ctx, "")
	if len(all) != 3 {
		t.Fatalf("all keys = %v, want 3", all)
	}

	if err := store.Delete(ctx, "thumb:img-1:200"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ok, _ := store.Exists(ctx, "thumb:img-1:200"); ok {
		t.Fatal("deleted key still exists")
	}
}

func TestGroupcacheKVDeleteIsImmediate(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeGroupcache, &configs.GroupcacheKVConfig{CacheBytes: 1 << 20})
	if err != nil {
		t.Fatalf("create groupcache kv: %v", err)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "resp:plans:1", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "resp:plans:1", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := store.Get(ctx, "resp:plans:1")
	if err != nil || string(got) != "v2" {
		t.Fatalf("get = %q, %v", got, err)
	}

	if err := store.Delete(ctx, "resp:plans:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Get(ctx, "resp:plans:1"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("deleted key readable: %v", err)
	}

	if keys, _ := store.Keys(ctx, "resp:*"); len(keys) != 0 {
		t.Fatalf("keys after delete = %v", keys)
	}
}

func TestGroupcacheKVEvictsByBytes(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeGroupcache, &configs.GroupcacheKVConfig{CacheBytes: 1 << 20})
	if err != nil {
		t.Fatalf("create groupcache kv: %v", err)
	}

	payload := make([]byte, 400<<10)

	for i := range 3 {
		if err := store.Set(ctx, fmt.Sprintf("thumb:img:%d", i), payload, 0); err != nil {
			t.Fatalf("set %d: %v", i, err)
		}
	}

	if ok, _ := store.Exists(ctx, "thumb:img:0"); ok {
		t.Fatal("oldest entry should have been evicted")
	}

	for _, k := range []string{"thumb:img:1", "thumb:img:2"} {
		if ok, _ := store.Exists(ctx, k); !ok {
			t.Fatalf("%s evicted", k)
		}
	}

	if keys, _ := store.Keys(ctx, "thumb:img:*"); len(keys) != 2 {
		t.Fatalf("keys = %v, want 2", keys)
	}

	if err := store.Set(ctx, "huge", make([]byte, 2<<20), 0); err == nil {
		t.Fatal("expected error for value larger than cache_bytes")
	}
}

func TestNewKVClientUnsupported(t *testing.T) {
	_, err := kv.NewKVClient(context.Background(), &configs.KVConfig{Type: "etcd"})
	if err == nil {
		t.Fatal("expected error for unsupported kv type")
	}
}

// benchStores 返回参与基准测试的后端；redis 与 nats 通过 KV_BENCH_REDIS / KV_BENCH_NATS 指定地址后启用.
func benchStores(b *testing.B) map[string]kv.KVStore {
	b.Helper()

	ctx := context.Background()
	stores := map[string]kv.KVStore{}

	add := func(name string, typ kv.KVType, cfg any) {
		s, err := kv.NewKVStore(ctx, typ, cfg)
		if err != nil {
			b.Logf("skip %s: %v", name, err)

			return
		}

		b.Cleanup(func() { _ = s.Close() })
		stores[name] = s
	}

	add("memory", kv.KVTypeMemory, nil)
	add("groupcache", kv.KVTypeGroupcache, &configs.GroupcacheKVConfig{CacheBytes: 64 << 20})

	if addr := os.Getenv("KV_BENCH_REDIS"); addr != "" {
		add("redis", kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr})
	}

	if url := os.Getenv("KV_BENCH_NATS"); url != "" {
		add("nats", kv.KVTypeNATS, &configs.NATSKVConfig{URL: url, Bucket: "bench-thumbs"})
	}

	return stores
}

// BenchmarkThumbnailCache 模拟缩略图缓存：写入一次后反复命中.
func BenchmarkThumbnailCache(b *testing.B) {
	ctx := context.Background()

	for name, store := range benchStores(b) {
		for _, size := range []int{8 << 10, 64 << 10} {
			payload := make([]byte, size)
			_, _ = rand.Read(payload)

			key := fmt.Sprintf("thumb:bench-%d:200", size)
			if err := store.Set(ctx, key, payload, time.Hour); err != nil {
				b.Fatalf("%s set: %v", name, err)
			}

			b.Run(fmt.Sprintf("%s/hit/%dKiB", name, size>>10), func(b *testing.B) {
				b.SetBytes(int64(size))
				b.ReportAllocs()

				for b.Loop() {
					if _, err := store.Get(ctx, key); err != nil {
						b.Fatal(err)
					}
				}
			})
		}

		b.Run(name+"/render-fill", func(b *testing.B) {
			payload := make([]byte, 16<<10)

			var n atomic.Uint64

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					key := fmt.Sprintf("thumb:fill-%d:400", n.Add(1))
					if err := store.Set(ctx, key, payload, time.Minute); err != nil {
						b.Error(err)

						return
					}
				}
			})
		})
	}
}
