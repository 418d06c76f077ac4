package cache_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/imagevault/pkg/cache"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
)

type planView struct {
	Name  string `json:"name"`
	Sizes []int  `json:"sizes"`
}

func memoryStore(t *testing.T) kv.KVStore {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

// 没有 KV 时每次都重新渲染，写入静默忽略.
func TestWithoutStoreAlwaysLoads(t *testing.T) {
	c := cache.New(nil, "thumb")
	ctx := context.Background()

	if c.Enabled() {
		t.Fatal("cache without store reports enabled")
	}

	if err := cache.Set(ctx, c, "all", []planView{{Name: "Basic"}}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := cache.Get[[]planView](ctx, c, "all"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("Get err = %v, want ErrMiss", err)
	}

	renders := 0

	for range 3 {
		data, err := c.GetOrLoadBytes(ctx, "img:200", time.Minute, func(context.Context) ([]byte, error) {
			renders++
			return []byte("jpeg"), nil
		})
		if err != nil || string(data) != "jpeg" {
			t.Fatalf("GetOrLoadBytes = %q, %v", data, err)
		}
	}

	if renders != 3 {
		t.Errorf("renders = %d, want 3", renders)
	}

	if ok, _ := c.Exists(ctx, "img:200"); ok {
		t.Error("Exists on disabled cache")
	}
}

func TestPlanListRoundTrip(t *testing.T) {
	c := cache.New(memoryStore(t), "resp:plans")
	ctx := context.Background()

	if _, err := cache.Get[[]planView](ctx, c, "all"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("cold Get err = %v", err)
	}

	want := []planView{{Name: "Basic", Sizes: []int{200}}, {Name: "Premium", Sizes: []int{200, 400}}}
	if err := cache.Set(ctx, c, "all", want, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get[[]planView](ctx, c, "all")
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[1].Name != "Premium" || !slices.Equal(got[1].Sizes, want[1].Sizes) {
		t.Errorf("got %+v", got)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Get[[]planView](ctx, c, "all"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("after Clear err = %v", err)
	}
}

func TestCorruptValueIsError(t *testing.T) {
	c := cache.New(memoryStore(t), "resp:plans")
	ctx := context.Background()

	if err := c.SetBytes(ctx, "all", []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}

	_, err := cache.Get[[]planView](ctx, c, "all")
	if err == nil || errors.Is(err, cache.ErrMiss) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

// 并发未命中合并为一次渲染，之后直接命中.
func TestConcurrentThumbnailMissRendersOnce(t *testing.T) {
	c := cache.New(memoryStore(t), "thumb")
	ctx := context.Background()

	var renders atomic.Int32

	release := make(chan struct{})
	render := func(context.Context) ([]byte, error) {
		renders.Add(1)
		<-release

		return []byte("jpeg-200"), nil
	}

	var wg sync.WaitGroup

	out := make([]string, 8)

	for i := range out {
		wg.Add(1)

		go func() {
			defer wg.Done()

			data, err := c.GetOrLoadBytes(ctx, "img:200", time.Minute, render)
			if err != nil {
				t.Errorf("GetOrLoadBytes: %v", err)
			}

			out[i] = string(data)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := renders.Load(); n < 1 || n > int32(len(out)) {
		t.Fatalf("renders = %d", n)
	}

	for i, s := range out {
		if s != "jpeg-200" {
			t.Errorf("caller %d got %q", i, s)
		}
	}

	before := renders.Load()
	if _, err := c.GetOrLoadBytes(ctx, "img:200", time.Minute, render); err != nil {
		t.Fatal(err)
	}

	if renders.Load() != before {
		t.Error("cached thumbnail was rendered again")
	}
}

func TestRenderFailureIsNotCached(t *testing.T) {
	c := cache.New(memoryStore(t), "thumb")
	ctx := context.Background()
	boom := errors.New("decode failed")

	_, err := c.GetOrLoadBytes(ctx, "img:400", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	if ok, _ := c.Exists(ctx, "img:400"); ok {
		t.Fatal("failed render left a cache entry")
	}

	data, err := c.GetOrLoadBytes(ctx, "img:400", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil || string(data) != "ok" {
		t.Errorf("retry = %q, %v", data, err)
	}
}

// 删除图片时只清理该图片在本命名空间下的缩略图.
func TestDeleteImageThumbnails(t *testing.T) {
	store := memoryStore(t)
	thumbs := cache.New(store, "thumb")
	plans := cache.New(store, "resp:plans")
	ctx := context.Background()

	for _, k := range []string{"img1:200", "img1:400", "img2:200"} {
		_ = thumbs.SetBytes(ctx, k, []byte("x"), 0)
	}

	_ = plans.SetBytes(ctx, "img1:200", []byte("x"), 0)

	if err := thumbs.DeletePrefix(ctx, "img1:"); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		c    *cache.Cache
		key  string
		want bool
	}{
		{thumbs, "img1:200", false},
		{thumbs, "img1:400", false},
		{thumbs, "img2:200", true},
		{plans, "img1:200", true},
	}
	for _, tc := range cases {
		if ok, _ := tc.c.Exists(ctx, tc.key); ok != tc.want {
			t.Errorf("Exists(%s) = %v, want %v", tc.key, ok, tc.want)
		}
	}

	if err := thumbs.Delete(ctx, "img2:200"); err != nil {
		t.Fatal(err)
	}

	if _, err := thumbs.GetBytes(ctx, "img2:200"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("GetBytes after Delete err = %v", err)
	}
}
