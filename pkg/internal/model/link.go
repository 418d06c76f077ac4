package model

import "time"

const (
	// MinLinkDuration 过期链接最短有效期（秒）.
	MinLinkDuration = 300
	// MaxLinkDuration 过期链接最长有效期（秒）.
	MaxLinkDuration = 30000
	// MaxIdentifierLen 标识最大长度.
	MaxIdentifierLen = 10
)

// ExpiringLink 当前生效的过期链接. 令牌本身是主键，(image_id, identifier) 唯一.
type ExpiringLink struct {
	Token      string    `gorm:"primaryKey;size:512"                          json:"token"`
	ImageID    string    `gorm:"size:36;uniqueIndex:idx_link_image_identifier" json:"image_id"`
	Identifier string    `gorm:"size:10;uniqueIndex:idx_link_image_identifier" json:"identifier" rule:"required,link_identifier"`
	Duration   int       `json:"duration"                                            rule:"min=300,max=30000"`
	Image      *Image    `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"index"                                        json:"updated_at"`
}

// MaxAge 返回记录有效期.
func (l *ExpiringLink) MaxAge() time.Duration {
	return time.Duration(l.Duration) * time.Second
}
