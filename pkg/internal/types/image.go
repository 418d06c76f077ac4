package types

import "time"

// ImageInfo 图片列表项.
type ImageInfo struct {
	// URL 图片详情接口地址
	URL string `json:"url"`
	// ID 图片 UUID
	ID string `json:"uuid"`
	// Owner 上传者用户名
	Owner string `json:"owner"`
	// FileName 上传时的文件名
	FileName string `json:"file_name"`
	// ContentType 上传时嗅探得到的内容类型
	ContentType string `json:"content_type"`
	// Width / Height 原图像素尺寸
	Width  int `json:"width"`
	Height int `json:"height"`
	// Thumbnail 套餐最小尺寸缩略图的预签名地址，套餐无尺寸时省略
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListImagesResponse 图片列表响应体.
type ListImagesResponse struct {
	Images []ImageInfo `json:"images"`
}

// ImageDetailsResponse 图片详情，links 的键为 thumbnail_{N}px 或 original，值为链接视图地址.
type ImageDetailsResponse struct {
	URL   string            `json:"url"`
	ID    string            `json:"uuid"`
	Links map[string]string `json:"links"`
}
