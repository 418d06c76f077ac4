package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/internal/model"
	nlog "github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/metrics"
	"github.com/yeisme/imagevault/pkg/queue"
	"github.com/yeisme/imagevault/pkg/rule"
	"github.com/yeisme/imagevault/pkg/signer"
	"github.com/yeisme/imagevault/pkg/tracing"
)

// LinkService 过期链接的签发、兑换与淘汰.
//
// 每个 (image, identifier) 至多一条记录. 过期记录在读取时删除，可选的清扫任务
// 使用同样的判定规则回收无人访问的记录.
type LinkService struct {
	d Deps
}

// NewLinkService 创建 LinkService.
func NewLinkService(d Deps) *LinkService {
	return &LinkService{d: d}
}

// ValidateIssue 校验签发参数.
func ValidateIssue(identifier string, duration int) error {
	if duration < model.MinLinkDuration || duration > model.MaxLinkDuration {
		return invalid("duration", "must be between %d and %d seconds", model.MinLinkDuration, model.MaxLinkDuration)
	}

	if len(identifier) > model.MaxIdentifierLen || !rule.IsIdentifier(identifier) {
		return invalid("size", "must be %q or a positive integer of at most %d digits",
			rule.OriginalIdentifier, model.MaxIdentifierLen)
	}

	return nil
}

// Issue 为 (imageID, identifier) 签发令牌. 已有记录时原地替换令牌与有效期，并发签发以最后写入为准.
func (s *LinkService) Issue(ctx context.Context, imageID, identifier string, duration int) (*model.ExpiringLink, error) {
	ctx, span := tracing.StartSpan(ctx, "link.issue", trace.WithAttributes(
		attribute.String("image.id", imageID),
		attribute.String("link.identifier", identifier),
	))
	defer span.End()

	if err := ValidateIssue(identifier, duration); err != nil {
		return nil, err
	}

	if s.d.DB == nil || s.d.Signer == nil {
		return nil, ErrUnavailable
	}

	if _, err := NewImageService(s.d).find(ctx, imageID); err != nil {
		return nil, err
	}

	token, err := s.sign(ctx, imageID, identifier)
	if err != nil {
		return nil, err
	}

	rec := &model.ExpiringLink{
		Token:      token,
		ImageID:    imageID,
		Identifier: identifier,
		Duration:   duration,
	}

	replaced, err := s.upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	metrics.LinksIssued.WithLabelValues(strconv.FormatBool(replaced)).Inc()
	publish(ctx, s.d, queue.TopicLinkIssued, queue.LinkIssuedPayload{
		ImageID:    imageID,
		Identifier: identifier,
		Duration:   duration,
		Replaced:   replaced,
	})

	return rec, nil
}

// sign 签发新令牌. 与被替换的令牌落在同一毫秒时顺延签发时间，保证旧令牌失效.
func (s *LinkService) sign(ctx context.Context, imageID, identifier string) (string, error) {
	var prev []string
	if err := s.d.db(ctx).Model(&model.ExpiringLink{}).
		Where("image_id = ? AND identifier = ?", imageID, identifier).
		Pluck("token", &prev).Error; err != nil {
		return "", fmt.Errorf("load link: %w", err)
	}

	sg := s.d.Signer.Salted(imageID)
	at := sg.Now()

	for {
		token, err := sg.SignAt(identifier, at)
		if err != nil || !slices.Contains(prev, token) {
			return token, err
		}

		at = at.Add(time.Millisecond)
	}
}

func (s *LinkService) upsert(ctx context.Context, rec *model.ExpiringLink) (bool, error) {
	var existing model.ExpiringLink

	err := s.d.db(ctx).Where("image_id = ? AND identifier = ?", rec.ImageID, rec.Identifier).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cerr := s.d.db(ctx).Omit("Image").Create(rec).Error
		if cerr == nil {
			return false, nil
		}

		// 并发签发先插入了同一对，退回到覆盖
		if uerr := s.overwrite(ctx, rec); uerr != nil {
			return false, fmt.Errorf("create link: %w", cerr)
		}

		return true, nil
	case err != nil:
		return false, fmt.Errorf("load link: %w", err)
	}

	if err := s.overwrite(ctx, rec); err != nil {
		return false, err
	}

	return true, nil
}

func (s *LinkService) overwrite(ctx context.Context, rec *model.ExpiringLink) error {
	now := time.Now()

	res := s.d.db(ctx).Model(&model.ExpiringLink{}).
		Where("image_id = ? AND identifier = ?", rec.ImageID, rec.Identifier).
		Updates(map[string]any{
			"token":      rec.Token,
			"duration":   rec.Duration,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("replace link: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	rec.UpdatedAt = now

	return nil
}

// Redeem 按令牌兑换链接. 记录不存在、签名无效或已过期都返回 ErrNotFound；过期的记录会被删除.
func (s *LinkService) Redeem(ctx context.Context, token string) (*model.Image, string, error) {
	if s.d.DB == nil || s.d.Signer == nil {
		return nil, "", ErrUnavailable
	}

	l := nlog.FromContext(ctx)

	if token == "" {
		countRedeem(ctx, metrics.RedeemMissing)
		return nil, "", ErrNotFound
	}

	var rec model.ExpiringLink

	err := s.d.db(ctx).Where("token = ?", token).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		countRedeem(ctx, metrics.RedeemMissing)
		return nil, "", ErrNotFound
	}

	if err != nil {
		return nil, "", fmt.Errorf("load link: %w", err)
	}

	identifier, err := s.verify(&rec)
	if err != nil {
		if errors.Is(err, signer.ErrSignatureExpired) {
			countRedeem(ctx, metrics.RedeemExpired)
			l.Info().Err(err).Str("image_id", rec.ImageID).Str("identifier", rec.Identifier).Msg("link expired")
			s.evict(ctx, &rec, EvictByRedeem)
		} else {
			countRedeem(ctx, metrics.RedeemInvalid)
			l.Warn().Err(err).Str("image_id", rec.ImageID).Str("identifier", rec.Identifier).Msg("link invalid")
		}

		return nil, "", ErrNotFound
	}

	img, err := NewImageService(s.d).find(ctx, rec.ImageID)
	if err != nil {
		countRedeem(ctx, metrics.RedeemNoObject)
		return nil, "", err
	}

	return img, identifier, nil
}

// Fetch 兑换令牌并读取对应的图片内容.
func (s *LinkService) Fetch(ctx context.Context, token string) (*model.Image, []byte, error) {
	ctx, span := tracing.StartSpan(ctx, "link.fetch")
	defer span.End()

	img, identifier, err := s.Redeem(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	data, err := NewImageService(s.d).Open(ctx, img, identifier)
	if err != nil {
		countRedeem(ctx, metrics.RedeemNoObject)
		nlog.FromContext(ctx).Error().Err(err).Str("image_id", img.ID).Str("identifier", identifier).Msg("read linked image failed")

		return nil, nil, ErrNotFound
	}

	countRedeem(ctx, metrics.RedeemOK)
	publish(ctx, s.d, queue.TopicLinkRedeemed, queue.LinkRedeemedPayload{
		ImageID:    img.ID,
		Identifier: identifier,
	})

	return img, data, nil
}

// countRedeem 记录兑换结果到指标与当前 span. 令牌本身不写入 span.
func countRedeem(ctx context.Context, result string) {
	metrics.LinksRedeemed.WithLabelValues(result).Inc()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("link.result", result))
}

// Active 返回 (imageID, identifier) 当前有效的记录. 过期记录在此删除.
func (s *LinkService) Active(ctx context.Context, imageID, identifier string) (*model.ExpiringLink, error) {
	if s.d.DB == nil || s.d.Signer == nil {
		return nil, ErrUnavailable
	}

	var rec model.ExpiringLink

	err := s.d.db(ctx).Where("image_id = ? AND identifier = ?", imageID, identifier).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	if _, err := s.verify(&rec); err != nil {
		if errors.Is(err, signer.ErrSignatureExpired) {
			s.evict(ctx, &rec, EvictByView)
		} else {
			nlog.FromContext(ctx).Warn().Err(err).Str("image_id", imageID).Str("identifier", identifier).Msg("link invalid")
		}

		return nil, ErrNotFound
	}

	return &rec, nil
}

// Sweep 检查全部记录并删除已过期的，返回删除数量.
func (s *LinkService) Sweep(ctx context.Context, batchSize int) (int, error) {
	if s.d.DB == nil || s.d.Signer == nil {
		return 0, ErrUnavailable
	}

	if batchSize <= 0 {
		batchSize = 500
	}

	var (
		evicted int
		last    string
	)

	for {
		var batch []model.ExpiringLink
		if err := s.d.db(ctx).Where("token > ?", last).Order("token").Limit(batchSize).Find(&batch).Error; err != nil {
			return evicted, fmt.Errorf("scan links: %w", err)
		}

		for i := range batch {
			rec := &batch[i]
			if _, err := s.verify(rec); errors.Is(err, signer.ErrSignatureExpired) && s.evict(ctx, rec, EvictBySweep) {
				evicted++
			}
		}

		if len(batch) < batchSize {
			return evicted, nil
		}

		last = batch[len(batch)-1].Token

		if err := ctx.Err(); err != nil {
			return evicted, err
		}
	}
}

// verify 用记录自身的有效期校验令牌，payload 必须与记录标识一致.
func (s *LinkService) verify(rec *model.ExpiringLink) (string, error) {
	payload, err := s.d.Signer.Salted(rec.ImageID).Verify(rec.Token, rec.MaxAge())
	if err != nil {
		return "", err
	}

	if payload != rec.Identifier {
		return "", fmt.Errorf("%w: payload does not match identifier", signer.ErrSignatureInvalid)
	}

	return payload, nil
}

// evict 删除过期记录. 按令牌条件删除，不会误删并发签发替换后的新记录.
func (s *LinkService) evict(ctx context.Context, rec *model.ExpiringLink, reason string) bool {
	res := s.d.db(ctx).Where("token = ?", rec.Token).Delete(&model.ExpiringLink{})
	if res.Error != nil {
		nlog.FromContext(ctx).Warn().Err(res.Error).Str("image_id", rec.ImageID).Msg("evict link failed")
		return false
	}

	if res.RowsAffected == 0 {
		return false
	}

	metrics.LinksEvicted.WithLabelValues(reason).Inc()
	publish(ctx, s.d, queue.TopicLinkEvicted, queue.LinkEvictedPayload{
		ImageID:    rec.ImageID,
		Identifier: rec.Identifier,
		Reason:     reason,
	})

	return true
}
