package types

// LinkQuery 链接视图与签发接口的查询参数，size 为空表示原图.
type LinkQuery struct {
	Size string `form:"size" json:"size" rule:"omitempty,link_identifier"`
}

// IssueLinkRequest 签发过期链接请求体.
type IssueLinkRequest struct {
	// Duration 有效期（秒），范围 [300, 30000]
	Duration int `form:"duration" json:"duration" rule:"required,min=300,max=30000"`
}

// IssueLinkResponse 签发结果.
type IssueLinkResponse struct {
	Token        string `json:"token"`
	ExpiringLink string `json:"expiring_link"`
	Duration     int    `json:"duration"`
	Identifier   string `json:"identifier"`
}

// LinkViewResponse 链接视图. 不可用的字段直接省略，不输出 null.
type LinkViewResponse struct {
	URL               string `json:"url"`
	ID                string `json:"uuid"`
	ImageLink         string `json:"image_link"`
	ExpiringLink      string `json:"expiring_link,omitempty"`
	TempLinkGenerator string `json:"temp_link_generator,omitempty"`
}

// VerifyLinkResponse 命令行校验令牌的输出.
type VerifyLinkResponse struct {
	ImageID    string `json:"image_id"`
	Identifier string `json:"identifier"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
}
