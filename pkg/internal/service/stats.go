package service

import (
	"context"
	"fmt"

	"github.com/yeisme/imagevault/pkg/internal/model"
	"github.com/yeisme/imagevault/pkg/internal/types"
)

const (
	oneMB  = 1 << 20
	fiveMB = 5 << 20
)

// StatsService 图片与链接的用量统计（基于 DB）.
type StatsService struct {
	d Deps
}

// NewStatsService 创建 StatsService.
func NewStatsService(d Deps) *StatsService {
	return &StatsService{d: d}
}

// Usage 统计 owner 的图片数量、总大小、按类型与大小分桶的分布，以及链接记录数.
// 链接记录数包含尚未被惰性淘汰的过期记录.
func (s *StatsService) Usage(ctx context.Context, owner string) (*types.UsageStats, error) {
	if s.d.DB == nil {
		return nil, ErrUnavailable
	}

	if owner == "" {
		return nil, invalid("user", "is required")
	}

	dbx := s.d.db(ctx)
	out := &types.UsageStats{User: owner}

	var total struct {
		Cnt int64 `gorm:"column:cnt"`
		Sum int64 `gorm:"column:sum"`
	}

	if err := dbx.Model(&model.Image{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum").
		Where("owner = ?", owner).
		Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("stats total: %w", err)
	}

	out.Images = int(total.Cnt)
	out.TotalSize = total.Sum

	var rows []struct {
		CT  string `gorm:"column:ct"`
		Cnt int64  `gorm:"column:cnt"`
		Sum int64  `gorm:"column:sum"`
	}

	if err := dbx.Model(&model.Image{}).
		Select("content_type AS ct, COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum").
		Where("owner = ?", owner).
		Group("content_type").
		Order("content_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("stats by type: %w", err)
	}

	out.ByType = make([]types.StatsTypeItem, 0, len(rows))
	for _, r := range rows {
		out.ByType = append(out.ByType, types.StatsTypeItem{Type: r.CT, Count: int(r.Cnt), Size: r.Sum})
	}

	out.BySize = []types.StatsSizeBucket{
		{Name: "0-1MB", Min: 0, Max: oneMB},
		{Name: "1-5MB", Min: oneMB, Max: fiveMB},
		{Name: ">=5MB", Min: fiveMB, Max: -1},
	}

	for i := range out.BySize {
		b := &out.BySize[i]

		q := dbx.Model(&model.Image{}).Where("owner = ? AND size >= ?", owner, b.Min)
		if b.Max > 0 {
			q = q.Where("size < ?", b.Max)
		}

		var agg struct {
			Cnt int64 `gorm:"column:cnt"`
			Sum int64 `gorm:"column:sum"`
		}

		if err := q.Select("COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum").Scan(&agg).Error; err != nil {
			return nil, fmt.Errorf("stats by size: %w", err)
		}

		b.Count = int(agg.Cnt)
		b.Size = agg.Sum
	}

	var links int64
	if err := dbx.Model(&model.ExpiringLink{}).
		Joins("JOIN images ON images.id = expiring_links.image_id").
		Where("images.owner = ?", owner).
		Count(&links).Error; err != nil {
		return nil, fmt.Errorf("stats links: %w", err)
	}

	out.LinkRecords = int(links)

	return out, nil
}
