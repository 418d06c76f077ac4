package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/bytedance/sonic"
)

// Plan 订阅套餐，决定可用缩略图尺寸以及链接能力.
// 尺寸列表以 JSON 文本存储，查询只按名称进行.
type Plan struct {
	ID             uint      `gorm:"primaryKey"              json:"id"`
	Name           string    `gorm:"size:64;uniqueIndex"     json:"name"`
	LinkToOriginal bool      `json:"link_to_original"`
	ExpiringLink   bool      `json:"expiring_link"`
	SizesJSON      string    `gorm:"type:text"               json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Sizes 返回升序去重后的缩略图尺寸.
func (p *Plan) Sizes() ([]int, error) {
	if p.SizesJSON == "" {
		return nil, nil
	}

	var sizes []int
	if err := sonic.UnmarshalString(p.SizesJSON, &sizes); err != nil {
		return nil, fmt.Errorf("unmarshal plan sizes: %w", err)
	}

	return sizes, nil
}

// SetSizes 规范化（升序、去重）并写入尺寸列表.
func (p *Plan) SetSizes(sizes []int) error {
	norm := slices.Clone(sizes)
	slices.Sort(norm)
	norm = slices.Compact(norm)

	s, err := sonic.MarshalString(norm)
	if err != nil {
		return fmt.Errorf("marshal plan sizes: %w", err)
	}

	p.SizesJSON = s

	return nil
}

// AllowsSize 判断套餐是否包含指定尺寸.
func (p *Plan) AllowsSize(size int) bool {
	sizes, err := p.Sizes()
	if err != nil {
		return false
	}

	_, found := slices.BinarySearch(sizes, size)

	return found
}
