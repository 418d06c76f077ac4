package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/internal/types"
	"github.com/yeisme/imagevault/pkg/rule"
)

// PlanService 维护套餐与用户等级（Tier）.
type PlanService struct {
	d Deps
}

// NewPlanService 创建 PlanService.
func NewPlanService(d Deps) *PlanService {
	return &PlanService{d: d}
}

// Default 返回默认套餐，不存在时按配置创建.
func (s *PlanService) Default(ctx context.Context) (*model.Plan, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	cfg := s.d.config().Plans

	var plan model.Plan

	err := s.d.db(ctx).Where("name = ?", cfg.DefaultName).First(&plan).Error
	if err == nil {
		return &plan, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load default plan: %w", err)
	}

	plan = model.Plan{
		Name:           cfg.DefaultName,
		LinkToOriginal: cfg.DefaultLinkToOriginal,
		ExpiringLink:   cfg.DefaultExpiringLink,
	}
	if err := plan.SetSizes(cfg.DefaultSizes); err != nil {
		return nil, err
	}

	if err := s.d.db(ctx).Create(&plan).Error; err != nil {
		// 并发创建时唯一索引冲突，读取对方写入的记录
		var existing model.Plan
		if ferr := s.d.db(ctx).Where("name = ?", cfg.DefaultName).First(&existing).Error; ferr == nil {
			return &existing, nil
		}

		return nil, fmt.Errorf("create default plan: %w", err)
	}

	return &plan, nil
}

// List 按名称列出全部套餐.
func (s *PlanService) List(ctx context.Context) ([]model.Plan, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	var plans []model.Plan
	if err := s.d.db(ctx).Order("name").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}

// Get 按 ID 读取套餐.
func (s *PlanService) Get(ctx context.Context, id uint) (*model.Plan, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByName 按名称读取套餐.
func (s *PlanService) GetByName(ctx context.Context, name string) (*model.Plan, error) {
	return s.first(ctx, "name = ?", name)
}

func (s *PlanService) first(ctx context.Context, query string, arg any) (*model.Plan, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	var plan model.Plan

	err := s.d.db(ctx).Where(query, arg).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	return &plan, nil
}

// Create 创建套餐，名称重复时返回 ValidationError.
func (s *PlanService) Create(ctx context.Context, in *types.PlanRequest) (*model.Plan, error) {
	if in == nil {
		return nil, invalid("body", "is required")
	}

	if err := rule.ValidateStruct(in); err != nil {
		return nil, fromRuleError(err)
	}

	if _, err := s.GetByName(ctx, in.Name); err == nil {
		return nil, invalid("name", "plan %q already exists", in.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	plan := model.Plan{Name: in.Name, LinkToOriginal: in.LinkToOriginal, ExpiringLink: in.ExpiringLink}
	if err := plan.SetSizes(in.Sizes); err != nil {
		return nil, err
	}

	if err := s.d.db(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	return &plan, nil
}

// Update 覆盖套餐属性.
func (s *PlanService) Update(ctx context.Context, id uint, in *types.PlanRequest) (*model.Plan, error) {
	if in == nil {
		return nil, invalid("body", "is required")
	}

	if err := rule.ValidateStruct(in); err != nil {
		return nil, fromRuleError(err)
	}

	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if other, err := s.GetByName(ctx, in.Name); err == nil && other.ID != plan.ID {
		return nil, invalid("name", "plan %q already exists", in.Name)
	}

	plan.Name = in.Name
	plan.LinkToOriginal = in.LinkToOriginal
	plan.ExpiringLink = in.ExpiringLink

	if err := plan.SetSizes(in.Sizes); err != nil {
		return nil, err
	}

	if err := s.d.db(ctx).Save(plan).Error; err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	return plan, nil
}

// PlanFor 返回用户当前套餐；用户或等级不存在时自动登记并绑定默认套餐.
func (s *PlanService) PlanFor(ctx context.Context, username string) (*model.Plan, error) {
	tier, err := s.TierFor(ctx, username)
	if err != nil {
		return nil, err
	}

	return &tier.Plan, nil
}

// TierFor 返回用户等级（含套餐），缺失时自动创建.
func (s *PlanService) TierFor(ctx context.Context, username string) (*model.Tier, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	if username == "" {
		return nil, invalid("username", "is required")
	}

	if err := NewUserService(s.d).Ensure(ctx, username); err != nil {
		return nil, err
	}

	var tier model.Tier

	err := s.d.db(ctx).Preload("Plan").Where("username = ?", username).First(&tier).Error
	if err == nil {
		return &tier, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load tier: %w", err)
	}

	plan, err := s.Default(ctx)
	if err != nil {
		return nil, err
	}

	tier = model.Tier{Username: username, PlanID: plan.ID}
	if err := s.d.db(ctx).Omit("Plan").Create(&tier).Error; err != nil {
		// 并发请求已创建
		if ferr := s.d.db(ctx).Preload("Plan").Where("username = ?", username).First(&tier).Error; ferr == nil {
			return &tier, nil
		}

		return nil, fmt.Errorf("create tier: %w", err)
	}

	tier.Plan = *plan

	return &tier, nil
}

// AssignPlan 管理员修改用户等级.
func (s *PlanService) AssignPlan(ctx context.Context, username, planName string) (*model.Tier, error) {
	plan, err := s.GetByName(ctx, planName)
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("plan", "plan %q does not exist", planName)
	}

	if err != nil {
		return nil, err
	}

	tier, err := s.TierFor(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.d.db(ctx).Model(&model.Tier{}).Where("username = ?", username).Update("plan_id", plan.ID).Error; err != nil {
		return nil, fmt.Errorf("assign plan: %w", err)
	}

	tier.PlanID = plan.ID
	tier.Plan = *plan

	return tier, nil
}

// SmallestSize 返回套餐最小的缩略图尺寸，没有尺寸时返回 0.
func SmallestSize(plan *model.Plan) int {
	sizes, err := plan.Sizes()
	if err != nil || len(sizes) == 0 {
		return 0
	}

	return slices.Min(sizes)
}

// ToPlanInfo 转换为对外的套餐信息.
func ToPlanInfo(p *model.Plan) types.PlanInfo {
	sizes, _ := p.Sizes()
	if sizes == nil {
		sizes = []int{}
	}

	return types.PlanInfo{
		ID:             p.ID,
		Name:           p.Name,
		LinkToOriginal: p.LinkToOriginal,
		ExpiringLink:   p.ExpiringLink,
		Sizes:          sizes,
		UpdatedAt:      p.UpdatedAt,
	}
}
