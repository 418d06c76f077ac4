package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/internal/types"
	nlog "github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/rule"
)

// APIPrefix API 路由前缀.
const APIPrefix = "/api/v1"

// URLBuilder 生成对外的绝对地址.
type URLBuilder struct {
	base string
}

// NewURLBuilder base 形如 scheme://host，末尾的 / 会被去掉.
func NewURLBuilder(base string) URLBuilder {
	return URLBuilder{base: strings.TrimRight(base, "/")}
}

// Users 用户列表地址.
func (b URLBuilder) Users() string { return b.base + APIPrefix + "/users" }

// User 单个用户地址.
func (b URLBuilder) User(username string) string {
	return b.Users() + "/" + url.PathEscape(username)
}

// Images 图片列表地址.
func (b URLBuilder) Images() string { return b.base + APIPrefix + "/images" }

// Image 图片详情地址.
func (b URLBuilder) Image(id string) string { return b.Images() + "/" + id }

// LinkView 链接视图地址.
func (b URLBuilder) LinkView(id, identifier string) string {
	return b.Image(id) + "/link" + sizeQuery(identifier)
}

// TempLinkGenerator 签发过期链接的地址.
func (b URLBuilder) TempLinkGenerator(id, identifier string) string {
	return b.Image(id) + "/get-temporary" + sizeQuery(identifier)
}

// Temp 兑换令牌的公开地址.
func (b URLBuilder) Temp(token string) string {
	return b.base + "/temp?token=" + url.QueryEscape(token)
}

func sizeQuery(identifier string) string {
	if identifier == "" || identifier == rule.OriginalIdentifier {
		return ""
	}

	return "?size=" + identifier
}

// PresentationService 组装响应体并执行套餐权限判断.
type PresentationService struct {
	d      Deps
	urls   URLBuilder
	images *ImageService
	plans  *PlanService
	links  *LinkService
	thumbs *ThumbnailService
}

// NewPresentationService 创建 PresentationService，base 为对外访问地址.
func NewPresentationService(d Deps, base string) *PresentationService {
	return &PresentationService{
		d:      d,
		urls:   NewURLBuilder(base),
		images: NewImageService(d),
		plans:  NewPlanService(d),
		links:  NewLinkService(d),
		thumbs: NewThumbnailService(d),
	}
}

// URLs 返回地址生成器.
func (s *PresentationService) URLs() URLBuilder {
	return s.urls
}

// ResolveIdentifier 把 size 查询参数转换为链接标识，空值表示原图.
func ResolveIdentifier(size string) (string, error) {
	if size == "" {
		return rule.OriginalIdentifier, nil
	}

	if size == rule.OriginalIdentifier {
		return size, nil
	}

	if _, err := ParseSize(size); err != nil {
		return "", err
	}

	return size, nil
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// authorize 判断套餐是否允许访问该标识.
func authorize(plan *model.Plan, identifier string) error {
	if identifier == rule.OriginalIdentifier {
		if !plan.LinkToOriginal {
			return ErrForbidden
		}

		return nil
	}

	if !plan.AllowsSize(mustAtoi(identifier)) {
		return ErrForbidden
	}

	return nil
}

// imageLink 返回标识对应对象的预签名地址，缩略图不存在时先渲染.
func (s *PresentationService) imageLink(ctx context.Context, img *model.Image, identifier string) (string, error) {
	if s.d.Objects == nil {
		return "", ErrUnavailable
	}

	key := img.ObjectKey

	if identifier != rule.OriginalIdentifier {
		k, err := s.thumbs.Ensure(ctx, img, mustAtoi(identifier))
		if err != nil {
			return "", err
		}

		key = k
	}

	return s.d.Objects.PresignGet(ctx, key)
}

// LinkView 返回图片某个尺寸（size 为空时为原图）的访问地址.
// expiring_link 只在存在有效记录时出现，temp_link_generator 只在套餐允许签发时出现.
func (s *PresentationService) LinkView(ctx context.Context, caller Caller, imageID, size string) (*types.LinkViewResponse, error) {
	identifier, err := ResolveIdentifier(size)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Get(ctx, imageID, caller)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.PlanFor(ctx, caller.Username)
	if err != nil {
		return nil, err
	}

	if err := authorize(plan, identifier); err != nil {
		return nil, err
	}

	link, err := s.imageLink(ctx, img, identifier)
	if err != nil {
		return nil, err
	}

	resp := &types.LinkViewResponse{
		URL:       s.urls.LinkView(img.ID, identifier),
		ID:        img.ID,
		ImageLink: link,
	}

	rec, err := s.links.Active(ctx, img.ID, identifier)
	switch {
	case err == nil:
		resp.ExpiringLink = s.urls.Temp(rec.Token)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if plan.ExpiringLink {
		resp.TempLinkGenerator = s.urls.TempLinkGenerator(img.ID, identifier)
	}

	return resp, nil
}

// IssueLink 为调用者的图片签发过期链接，需要套餐开启 expiring_link.
func (s *PresentationService) IssueLink(ctx context.Context, caller Caller, imageID, size string, duration int) (*types.IssueLinkResponse, error) {
	identifier, err := ResolveIdentifier(size)
	if err != nil {
		return nil, err
	}

	if err := ValidateIssue(identifier, duration); err != nil {
		return nil, err
	}

	img, err := s.images.Get(ctx, imageID, caller)
	if err != nil {
		return nil, err
	}

	if img.Owner != caller.Username {
		return nil, ErrForbidden
	}

	plan, err := s.plans.PlanFor(ctx, caller.Username)
	if err != nil {
		return nil, err
	}

	if !plan.ExpiringLink {
		return nil, ErrForbidden
	}

	if err := authorize(plan, identifier); err != nil {
		return nil, err
	}

	rec, err := s.links.Issue(ctx, img.ID, identifier, duration)
	if err != nil {
		return nil, err
	}

	return &types.IssueLinkResponse{
		Token:        rec.Token,
		ExpiringLink: s.urls.Temp(rec.Token),
		Duration:     rec.Duration,
		Identifier:   rec.Identifier,
	}, nil
}

// Details 返回图片在调用者套餐下可用的全部链接视图地址.
func (s *PresentationService) Details(ctx context.Context, caller Caller, imageID string) (*types.ImageDetailsResponse, error) {
	img, err := s.images.Get(ctx, imageID, caller)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.PlanFor(ctx, caller.Username)
	if err != nil {
		return nil, err
	}

	sizes, err := plan.Sizes()
	if err != nil {
		return nil, err
	}

	links := make(map[string]string, len(sizes)+1)
	for _, size := range sizes {
		links["thumbnail_"+strconv.Itoa(size)+"px"] = s.urls.LinkView(img.ID, strconv.Itoa(size))
	}

	if plan.LinkToOriginal {
		links[rule.OriginalIdentifier] = s.urls.LinkView(img.ID, rule.OriginalIdentifier)
	}

	return &types.ImageDetailsResponse{
		URL:   s.urls.Image(img.ID),
		ID:    img.ID,
		Links: links,
	}, nil
}

// List 列出图片，每项附带套餐最小尺寸缩略图的地址.
func (s *PresentationService) List(ctx context.Context, caller Caller) (*types.ListImagesResponse, error) {
	images, err := s.images.List(ctx, caller)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.PlanFor(ctx, caller.Username)
	if err != nil {
		return nil, err
	}

	smallest := SmallestSize(plan)
	out := make([]types.ImageInfo, 0, len(images))

	for i := range images {
		info := s.ImageInfo(&images[i])

		if smallest > 0 {
			link, err := s.imageLink(ctx, &images[i], strconv.Itoa(smallest))
			if err != nil {
				nlog.FromContext(ctx).Warn().Err(err).Str("image_id", images[i].ID).Msg("thumbnail link failed")
			} else {
				info.Thumbnail = link
			}
		}

		out = append(out, info)
	}

	return &types.ListImagesResponse{Images: out}, nil
}

// ImageInfo 转换为列表项，不含缩略图地址.
func (s *PresentationService) ImageInfo(img *model.Image) types.ImageInfo {
	return types.ImageInfo{
		URL:         s.urls.Image(img.ID),
		ID:          img.ID,
		Owner:       img.Owner,
		FileName:    img.FileName,
		ContentType: img.ContentType,
		Width:       img.Width,
		Height:      img.Height,
		CreatedAt:   img.CreatedAt,
	}
}

// UserInfo 转换用户信息，图片以详情地址列出.
func (s *PresentationService) UserInfo(sum *UserSummary) types.UserInfo {
	images := make([]string, 0, len(sum.ImageIDs))
	for _, id := range sum.ImageIDs {
		images = append(images, s.urls.Image(id))
	}

	return types.UserInfo{
		URL:      s.urls.User(sum.Username),
		Username: sum.Username,
		Images:   images,
		Tier:     types.TierInfo{Plan: sum.Plan},
	}
}

// Root API 根路径.
func (s *PresentationService) Root() types.APIRootResponse {
	return types.APIRootResponse{Users: s.urls.Users(), Images: s.urls.Images()}
}
