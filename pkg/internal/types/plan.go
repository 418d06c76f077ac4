package types

import "time"

// PlanRequest 创建或更新套餐.
type PlanRequest struct {
	Name           string `json:"name"             rule:"required,max=64"`
	LinkToOriginal bool   `json:"link_to_original"`
	ExpiringLink   bool   `json:"expiring_link"`
	// Sizes 缩略图高度（像素），服务端会排序去重
	Sizes []int `json:"sizes" rule:"dive,min=1,max=100000"`
}

// PlanInfo 套餐信息.
type PlanInfo struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	LinkToOriginal bool      `json:"link_to_original"`
	ExpiringLink   bool      `json:"expiring_link"`
	Sizes          []int     `json:"sizes"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListPlansResponse 套餐列表.
type ListPlansResponse struct {
	Plans []PlanInfo `json:"plans"`
}

// AssignTierRequest 修改用户等级.
type AssignTierRequest struct {
	Plan string `json:"plan" rule:"required,max=64"`
}
