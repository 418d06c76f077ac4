package types

// UserInfo 用户信息.
type UserInfo struct {
	URL      string   `json:"url"`
	Username string   `json:"username"`
	Images   []string `json:"user_images"`
	Tier     TierInfo `json:"user_tier"`
}

// TierInfo 用户等级，只暴露套餐名称.
type TierInfo struct {
	Plan string `json:"plan"`
}

// ListUsersResponse 用户列表.
type ListUsersResponse struct {
	Users []UserInfo `json:"users"`
}

// APIRootResponse API 根路径.
type APIRootResponse struct {
	Users  string `json:"users"`
	Images string `json:"images"`
}
