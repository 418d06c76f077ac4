package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/imagevault/pkg/internal/model"
)

// UserSummary 用户信息，附带图片 ID 与套餐名称.
type UserSummary struct {
	Username string   `json:"username"`
	ImageIDs []string `json:"image_ids"`
	Plan     string   `json:"plan"`
}

// UserService 管理由认证代理传入的用户.
type UserService struct {
	d Deps
}

// NewUserService 创建 UserService.
func NewUserService(d Deps) *UserService {
	return &UserService{d: d}
}

// Ensure 首次出现的用户自动登记，已存在时无操作.
func (s *UserService) Ensure(ctx context.Context, username string) error {
	if s.d.DB == nil {
		return ErrUnavailable
	}

	u := model.User{Username: username}
	if err := s.d.db(ctx).Clauses(clause.OnConflict{DoNothing: true}).Omit("Tier").Create(&u).Error; err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	return nil
}

// List 列出全部用户.
func (s *UserService) List(ctx context.Context) ([]UserSummary, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	var users []model.User
	if err := s.d.db(ctx).Preload("Tier.Plan").Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]UserSummary, 0, len(users))

	for i := range users {
		sum, err := s.summary(ctx, &users[i])
		if err != nil {
			return nil, err
		}

		out = append(out, *sum)
	}

	return out, nil
}

// Get 返回单个用户信息，用户不存在时返回 ErrNotFound.
func (s *UserService) Get(ctx context.Context, username string) (*UserSummary, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	var u model.User

	err := s.d.db(ctx).Preload("Tier.Plan").Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return s.summary(ctx, &u)
}

func (s *UserService) summary(ctx context.Context, u *model.User) (*UserSummary, error) {
	var ids []string
	if err := s.d.db(ctx).Model(&model.Image{}).Where("owner = ?", u.Username).
		Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list user images: %w", err)
	}

	sum := &UserSummary{Username: u.Username, ImageIDs: ids}
	if u.Tier != nil {
		sum.Plan = u.Tier.Plan.Name
	}

	if sum.ImageIDs == nil {
		sum.ImageIDs = []string{}
	}

	return sum, nil
}

// Delete 删除用户及其等级、图片和链接.
func (s *UserService) Delete(ctx context.Context, username string) error {
	if s.d.DB == nil {
		return ErrUnavailable
	}

	var ids []string
	if err := s.d.db(ctx).Model(&model.Image{}).Where("owner = ?", username).Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("list user images: %w", err)
	}

	images := NewImageService(s.d)
	for _, id := range ids {
		if err := images.remove(ctx, id, username); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	return s.d.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).Delete(&model.Tier{}).Error; err != nil {
			return fmt.Errorf("delete tier: %w", err)
		}

		res := tx.Where("username = ?", username).Delete(&model.User{})
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}
