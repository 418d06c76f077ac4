package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/imagevault/pkg/log"
)

func TestRenderKeepsAspectRatio(t *testing.T) {
	out, err := Render(testPNG(t, 300, 100), "image/png", 50, 85)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if format != "png" || cfg.Height != 50 || cfg.Width != 150 {
		t.Fatalf("got %s %dx%d", format, cfg.Width, cfg.Height)
	}

	out, err = Render(testPNG(t, 300, 100), "image/jpeg", 10, 85)
	if err != nil {
		t.Fatalf("render jpeg: %v", err)
	}

	if _, format, _ = image.DecodeConfig(bytes.NewReader(out)); format != "jpeg" {
		t.Fatalf("expected jpeg output, got %s", format)
	}
}

func TestRenderRejectsGarbage(t *testing.T) {
	if _, err := Render([]byte("nope"), "image/png", 10, 85); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestThumbnailRenderedOnce(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	thumbs := NewThumbnailService(env.d)
	ctx := context.Background()

	puts := env.objects.puts

	for range 3 {
		if _, err := thumbs.Bytes(ctx, img, 120); err != nil {
			t.Fatalf("bytes: %v", err)
		}
	}

	if got := env.objects.puts - puts; got != 1 {
		t.Fatalf("thumbnail should be stored once, got %d puts", got)
	}

	var verr *ValidationError
	if _, err := thumbs.Bytes(ctx, img, 100000); !errors.As(err, &verr) {
		t.Fatalf("oversized: expected ValidationError, got %v", err)
	}
}

// keysFailKV 列举键总是失败的 KV.
type keysFailKV struct{ kv.KVStore }

func (keysFailKV) Keys(context.Context, string) ([]string, error) {
	return nil, errors.New("keys unavailable")
}

// 缓存清理失败只记录告警，对象仍被删除.
func TestPurgeLogsCacheFailure(t *testing.T) {
	env := newTestEnv(t)
	img := env.upload(t, "alice")
	ctx := context.Background()

	mem, err := kv.NewMemoryKV(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = mem.Close() })

	env.d.KV = keysFailKV{mem}
	thumbs := NewThumbnailService(env.d)

	if _, err := thumbs.Bytes(ctx, img, 120); err != nil {
		t.Fatalf("bytes: %v", err)
	}

	var buf bytes.Buffer

	l := nlog.Logger()
	prev := *l
	*l = zerolog.New(&buf)

	t.Cleanup(func() { *l = prev })

	if err := thumbs.Purge(ctx, img.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}

	for _, k := range env.objects.keys() {
		if strings.HasPrefix(k, thumbnailPrefix(img.ID)) {
			t.Fatalf("thumbnail object %s kept", k)
		}
	}

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, "purge thumbnail cache failed", img.ID} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q lacks %s", out, want)
		}
	}
}
