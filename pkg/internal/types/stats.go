package types

// UsageStats 用户用量统计.
type UsageStats struct {
	User      string `json:"user"`
	Images    int    `json:"images"`
	TotalSize int64  `json:"total_size"`
	// LinkRecords 当前保存的过期链接记录数
	LinkRecords int               `json:"link_records"`
	ByType      []StatsTypeItem   `json:"by_type"`
	BySize      []StatsSizeBucket `json:"by_size"`
}

// StatsTypeItem 按内容类型聚合.
type StatsTypeItem struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Size  int64  `json:"size"`
}

// StatsSizeBucket 单个大小分桶，Max 为 -1 表示无上限.
type StatsSizeBucket struct {
	Name  string `json:"name"`
	Min   int64  `json:"min"`
	Max   int64  `json:"max"`
	Count int    `json:"count"`
	Size  int64  `json:"size"`
}
