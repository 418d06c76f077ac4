package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/internal/storage/db"
	"github.com/yeisme/imagevault/pkg/internal/storage/s3"
	"github.com/yeisme/imagevault/pkg/signer"
)

const testSecret = "service-test-secret-0123"

// memObjects 内存对象存储.
type memObjects struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newMemObjects() *memObjects {
	return &memObjects{data: map[string][]byte{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = b
	m.puts++

	return nil
}

func (m *memObjects) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, s3.ErrObjectNotFound)
	}

	return bytes.Clone(b), nil
}

func (m *memObjects) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.data[key]

	return ok, nil
}

func (m *memObjects) RemovePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}

	return nil
}

func (m *memObjects) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.test/bucket/" + key + "?X-Amz-Signature=x", nil
}

func (m *memObjects) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}

	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

type testEnv struct {
	d       Deps
	clock   *fakeClock
	objects *memObjects
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	// :memory: 每个连接是独立的数据库
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	sg, err := signer.New(testSecret, signer.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	cfg := &configs.AppConfig{}
	cfg.Plans = configs.PlansConfig{DefaultName: configs.DefaultPlanName, DefaultSizes: []int{200}}
	cfg.Thumbnail = configs.ThumbnailConfig{
		Quality:   configs.DefaultThumbnailQuality,
		MaxHeight: configs.DefaultThumbnailMaxHeight,
	}

	objects := newMemObjects()

	return &testEnv{
		d: Deps{
			DB:      gdb,
			Objects: objects,
			Signer:  sg,
			Config:  cfg,
		},
		clock:   clk,
		objects: objects,
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

func (e *testEnv) upload(t *testing.T, owner string) *model.Image {
	t.Helper()

	img, err := NewImageService(e.d).Upload(context.Background(), owner, "cat.png", testPNG(t, 800, 400))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	return img
}

func (e *testEnv) setPlan(t *testing.T, username string, plan *model.Plan) {
	t.Helper()

	ctx := context.Background()
	if err := e.d.DB.Create(plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}

	if _, err := NewPlanService(e.d).AssignPlan(ctx, username, plan.Name); err != nil {
		t.Fatalf("assign plan: %v", err)
	}
}

func (e *testEnv) countLinks(t *testing.T, imageID string) int64 {
	t.Helper()

	var n int64
	if err := e.d.DB.Model(&model.ExpiringLink{}).Where("image_id = ?", imageID).Count(&n).Error; err != nil {
		t.Fatalf("count links: %v", err)
	}

	return n
}

func enterprisePlan(t *testing.T) *model.Plan {
	t.Helper()

	p := &model.Plan{Name: "Enterprise", LinkToOriginal: true, ExpiringLink: true}
	if err := p.SetSizes([]int{400, 200}); err != nil {
		t.Fatalf("set sizes: %v", err)
	}

	return p
}
