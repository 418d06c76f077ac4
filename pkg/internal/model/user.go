package model

import "time"

// User 由认证代理传入的身份，首次请求时自动登记.
type User struct {
	Username  string    `gorm:"primaryKey;size:255" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Tier      *Tier     `gorm:"foreignKey:Username;references:Username;constraint:OnDelete:CASCADE" json:"tier,omitempty"`
}

// Tier 用户与套餐的一对一关系，随用户创建、随用户删除.
type Tier struct {
	Username  string    `gorm:"primaryKey;size:255" json:"username"`
	PlanID    uint      `gorm:"index"               json:"plan_id"`
	Plan      Plan      `gorm:"foreignKey:PlanID"   json:"plan"`
	UpdatedAt time.Time `json:"updated_at"`
}
