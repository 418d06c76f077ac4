package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // 注册解码器
	_ "image/png"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/internal/model"
	nlog "github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/queue"
	"github.com/yeisme/imagevault/pkg/rule"
)

// allowedContentTypes 允许上传的图片类型.
var allowedContentTypes = []string{"image/jpeg", "image/png"}

// Caller 发起请求的用户.
type Caller struct {
	Username string
	Staff    bool
}

func (c Caller) canAccess(img *model.Image) bool {
	return c.Staff || img.Owner == c.Username
}

// ImageService 图片的上传、查询、读取与级联删除.
type ImageService struct {
	d Deps
}

// NewImageService 创建 ImageService.
func NewImageService(d Deps) *ImageService {
	return &ImageService{d: d}
}

// OriginalKey 原图在对象存储中的键.
func OriginalKey(owner, id, ext string) string {
	return fmt.Sprintf("images/%s/%s.%s", owner, id, ext)
}

// Upload 保存图片. 内容类型根据数据嗅探，只接受 JPEG 与 PNG.
func (s *ImageService) Upload(ctx context.Context, owner, fileName string, data []byte) (*model.Image, error) {
	if s.d.DB == nil || s.d.Objects == nil {
		return nil, ErrUnavailable
	}

	if len(data) == 0 {
		return nil, invalid("image", "is required")
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedContentTypes...) {
		return nil, invalid("image", "unsupported content type %s, only jpg and png are allowed", mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("image", "cannot decode image: %v", err)
	}

	img := &model.Image{
		ID:          uuid.NewString(),
		Owner:       owner,
		FileName:    fileName,
		ContentType: mt.String(),
		Size:        int64(len(data)),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	img.ObjectKey = OriginalKey(owner, img.ID, img.Extension())

	if err := s.d.Objects.Put(ctx, img.ObjectKey, bytes.NewReader(data), img.Size, img.ContentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.d.db(ctx).Create(img).Error; err != nil {
		if rerr := s.d.Objects.RemovePrefix(ctx, img.ObjectKey); rerr != nil {
			nlog.FromContext(ctx).Warn().Err(rerr).Str("key", img.ObjectKey).Msg("cleanup orphan object failed")
		}

		return nil, fmt.Errorf("create image: %w", err)
	}

	publish(ctx, s.d, queue.TopicImageStored, queue.ImageStoredPayload{
		Image:    imageRef(img),
		FileName: img.FileName,
		Width:    img.Width,
		Height:   img.Height,
	})

	return img, nil
}

// List 列出调用者的图片，staff 可以看到全部图片.
func (s *ImageService) List(ctx context.Context, caller Caller) ([]model.Image, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	q := s.d.db(ctx).Order("created_at DESC")
	if !caller.Staff {
		q = q.Where("owner = ?", caller.Username)
	}

	var images []model.Image
	if err := q.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	return images, nil
}

// Get 读取图片. 非所有者且非 staff 时同样返回 ErrNotFound.
func (s *ImageService) Get(ctx context.Context, id string, caller Caller) (*model.Image, error) {
	img, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.canAccess(img) {
		return nil, ErrNotFound
	}

	return img, nil
}

func (s *ImageService) find(ctx context.Context, id string) (*model.Image, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	if err := uuid.Validate(id); err != nil {
		return nil, ErrNotFound
	}

	var img model.Image

	err := s.d.db(ctx).Where("id = ?", id).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	return &img, nil
}

// Delete 删除图片，级联删除原图、缩略图与全部链接记录.
func (s *ImageService) Delete(ctx context.Context, id string, caller Caller) error {
	if _, err := s.Get(ctx, id, caller); err != nil {
		return err
	}

	return s.remove(ctx, id, caller.Username)
}

func (s *ImageService) remove(ctx context.Context, id, deletedBy string) error {
	img, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var links int64

	err = s.d.db(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("image_id = ?", id).Delete(&model.ExpiringLink{})
		if res.Error != nil {
			return fmt.Errorf("delete links: %w", res.Error)
		}

		links = res.RowsAffected

		if err := tx.Delete(&model.Image{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete image: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	// 元数据已删除，对象清理失败只记录日志
	l := nlog.FromContext(ctx)
	if err := NewThumbnailService(s.d).Purge(ctx, id); err != nil {
		l.Warn().Err(err).Str("image_id", id).Msg("purge thumbnails failed")
	}

	if s.d.Objects != nil {
		if err := s.d.Objects.RemovePrefix(ctx, img.ObjectKey); err != nil {
			l.Warn().Err(err).Str("image_id", id).Msg("remove original failed")
		}
	}

	publish(ctx, s.d, queue.TopicImageDeleted, queue.ImageDeletedPayload{
		Image:        imageRef(img),
		DeletedBy:    deletedBy,
		LinksRemoved: links,
	})

	return nil
}

// Open 读取标识对应的图片内容：original 为原图，其它为缩略图高度.
func (s *ImageService) Open(ctx context.Context, img *model.Image, identifier string) ([]byte, error) {
	if s.d.Objects == nil {
		return nil, ErrUnavailable
	}

	if identifier == rule.OriginalIdentifier {
		data, err := s.d.Objects.Get(ctx, img.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("read original: %w", err)
		}

		return data, nil
	}

	size, err := ParseSize(identifier)
	if err != nil {
		return nil, err
	}

	return NewThumbnailService(s.d).Bytes(ctx, img, size)
}

// ParseSize 解析缩略图尺寸标识.
func ParseSize(identifier string) (int, error) {
	if identifier == rule.OriginalIdentifier || !rule.IsIdentifier(identifier) {
		return 0, invalid("size", "must be a positive integer of at most %d digits", model.MaxIdentifierLen)
	}

	size, err := strconv.Atoi(identifier)
	if err != nil || size <= 0 {
		return 0, invalid("size", "must be a positive integer of at most %d digits", model.MaxIdentifierLen)
	}

	return size, nil
}
