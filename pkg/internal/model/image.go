package model

import "time"

// Image 用户上传的图片. ContentType 在创建时根据内容嗅探一次，之后不再变化.
type Image struct {
	ID          string    `gorm:"primaryKey;size:36"  json:"id"`
	Owner       string    `gorm:"size:255;index"      json:"owner"`
	ObjectKey   string    `gorm:"size:1024"           json:"-"`
	FileName    string    `gorm:"size:512"            json:"file_name"`
	ContentType string    `gorm:"size:64;<-:create"   json:"content_type"`
	Size        int64     `json:"size"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `gorm:"index"               json:"created_at"`
}

// Extension 返回与内容类型对应的文件扩展名.
func (i *Image) Extension() string {
	switch i.ContentType {
	case "image/png":
		return "png"
	default:
		return "jpg"
	}
}
