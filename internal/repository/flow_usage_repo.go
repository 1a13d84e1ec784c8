package repository

import (
	"context"
	"time"

	"github.com/greendental/backend/internal/model"
	"gorm.io/gorm"
)

// FlowUsageRepository flow 用量仓储接口
type FlowUsageRepository interface {
	// Create 新增用量记录
	Create(ctx context.Context, usage *model.FlowUsage) error

	// StatsByFlow 按 flow 聚合统计，since 为零值时统计全部
	StatsByFlow(ctx context.Context, since time.Time) ([]*model.FlowUsageStats, error)

	// ListRecent 最近的用量记录
	ListRecent(ctx context.Context, flow string, limit int) ([]*model.FlowUsage, error)
}

type flowUsageRepository struct {
	db *gorm.DB
}

// NewFlowUsageRepository 创建 FlowUsage 仓储
func NewFlowUsageRepository(db *gorm.DB) FlowUsageRepository {
	return &flowUsageRepository{db: db}
}

func (r *flowUsageRepository) Create(ctx context.Context, usage *model.FlowUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *flowUsageRepository) StatsByFlow(ctx context.Context, since time.Time) ([]*model.FlowUsageStats, error) {
	query := r.db.WithContext(ctx).
		Model(&model.FlowUsage{}).
		Select(`
			flow,
			COUNT(*) as calls,
			COALESCE(SUM(prompt_tokens), 0) as prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) as completion_tokens,
			COALESCE(SUM(total_tokens), 0) as total_tokens,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms
		`)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var stats []*model.FlowUsageStats
	err := query.Group("flow").Order("flow ASC").Scan(&stats).Error
	return stats, err
}

func (r *flowUsageRepository) ListRecent(ctx context.Context, flow string, limit int) ([]*model.FlowUsage, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if flow != "" {
		query = query.Where("flow = ?", flow)
	}
	var usages []*model.FlowUsage
	err := query.Find(&usages).Error
	return usages, err
}
