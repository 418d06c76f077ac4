package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	"github.com/yeisme/imagevault/pkg/cache"
	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/metrics"
	"github.com/yeisme/imagevault/pkg/tracing"
)

// thumbCaches 每个 KV 实例共享一个缓存，使并发未命中在进程内合并.
var thumbCaches sync.Map

func thumbCache(d Deps) *cache.Cache {
	key := any(d.KV)
	if c, ok := thumbCaches.Load(key); ok {
		return c.(*cache.Cache)
	}

	c, _ := thumbCaches.LoadOrStore(key, cache.New(d.KV, "thumb"))

	return c.(*cache.Cache)
}

// ThumbnailService 按高度渲染缩略图，结果写入对象存储并缓存在 KV 中.
type ThumbnailService struct {
	d     Deps
	cache *cache.Cache
}

// NewThumbnailService 创建 ThumbnailService.
func NewThumbnailService(d Deps) *ThumbnailService {
	return &ThumbnailService{d: d, cache: thumbCache(d)}
}

// ThumbnailKey 缩略图在对象存储中的键.
func ThumbnailKey(img *model.Image, size int) string {
	return fmt.Sprintf("%sx%d.%s", thumbnailPrefix(img.ID), size, img.Extension())
}

func thumbnailPrefix(imageID string) string {
	return "thumbnails/" + imageID + "/"
}

func thumbCacheKey(imageID string, size int) string {
	return imageID + ":" + strconv.Itoa(size)
}

// Bytes 返回缩略图内容，依次尝试 KV、对象存储，最后从原图渲染.
func (s *ThumbnailService) Bytes(ctx context.Context, img *model.Image, size int) ([]byte, error) {
	if err := s.checkSize(size); err != nil {
		return nil, err
	}

	if s.d.Objects == nil {
		return nil, ErrUnavailable
	}

	ttl := s.d.config().Thumbnail.CacheTTL

	return s.cache.GetOrLoadBytes(ctx, thumbCacheKey(img.ID, size), ttl, func(ctx context.Context) ([]byte, error) {
		return s.load(ctx, img, size)
	})
}

// Ensure 确保缩略图已写入对象存储，返回对象键.
func (s *ThumbnailService) Ensure(ctx context.Context, img *model.Image, size int) (string, error) {
	key := ThumbnailKey(img, size)

	// KV 中存在说明对象已写入
	if ok, err := s.cache.Exists(ctx, thumbCacheKey(img.ID, size)); err == nil && ok {
		return key, nil
	}

	if s.d.Objects != nil {
		if ok, err := s.d.Objects.Exists(ctx, key); err == nil && ok {
			return key, nil
		}
	}

	if _, err := s.Bytes(ctx, img, size); err != nil {
		return "", err
	}

	return key, nil
}

// Purge 删除图片的全部缩略图与缓存.
func (s *ThumbnailService) Purge(ctx context.Context, imageID string) error {
	if err := s.cache.DeletePrefix(ctx, imageID+":"); err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Str("image_id", imageID).Msg("purge thumbnail cache failed")
	}

	if s.d.Objects == nil {
		return nil
	}

	return s.d.Objects.RemovePrefix(ctx, thumbnailPrefix(imageID))
}

func (s *ThumbnailService) checkSize(size int) error {
	maxHeight := s.d.config().Thumbnail.MaxHeight
	if size <= 0 || (maxHeight > 0 && size > maxHeight) {
		return invalid("size", "must be between 1 and %d", maxHeight)
	}

	return nil
}

func (s *ThumbnailService) load(ctx context.Context, img *model.Image, size int) ([]byte, error) {
	key := ThumbnailKey(img, size)

	data, err := s.d.Objects.Get(ctx, key)
	if err == nil {
		return data, nil
	}

	if !errors.Is(err, s3.ErrObjectNotFound) {
		return nil, err
	}

	orig, err := s.d.Objects.Get(ctx, img.ObjectKey)
	if errors.Is(err, s3.ErrObjectNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	_, span := tracing.StartSpan(ctx, "thumbnail.render", trace.WithAttributes(
		attribute.String("image.id", img.ID),
		attribute.Int("thumbnail.size", size),
		attribute.Int("image.bytes", len(orig)),
	))
	data, err = Render(orig, img.ContentType, size, s.d.config().Thumbnail.Quality)
	span.End()

	if err != nil {
		return nil, err
	}

	if err := s.d.Objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), img.ContentType); err != nil {
		return nil, err
	}

	metrics.ThumbnailsRendered.WithLabelValues(strconv.Itoa(size)).Inc()

	return data, nil
}

// Render 把图片缩放到指定高度，宽度等比例，输出与原图相同的格式.
func Render(src []byte, contentType string, height, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dy() == 0 || b.Dx() == 0 {
		return nil, errors.New("decode image: empty bounds")
	}

	width := max(int(float64(b.Dx())*float64(height)/float64(b.Dy())+0.5), 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer

	switch contentType {
	case "image/png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	}

	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
