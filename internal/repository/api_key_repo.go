package repository

import (
	"context"
	"errors"
	"time"

	"github.com/greendental/backend/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrAPIKeyNotFound API Key 不存在错误
	ErrAPIKeyNotFound = errors.New("api key not found")
	// ErrAPIKeyDuplicate API Key 名称重复错误
	ErrAPIKeyDuplicate = errors.New("api key name already exists")
)

// APIKeyRepository API Key 仓储接口
type APIKeyRepository interface {
	// Create 创建 API Key 配置
	Create(ctx context.Context, apiKey *model.APIKey) error

	// Update 更新 API Key 配置
	Update(ctx context.Context, apiKey *model.APIKey) error

	// Delete 软删除 API Key 配置
	Delete(ctx context.Context, id uint) error

	// GetByID 根据 ID 获取
	GetByID(ctx context.Context, id uint) (*model.APIKey, error)

	// GetByName 根据名称获取
	GetByName(ctx context.Context, name string) (*model.APIKey, error)

	// List 列出所有配置（按优先级排序，包含已禁用）
	List(ctx context.Context) ([]*model.APIKey, error)

	// ListActive 列出启用或处于限流冷却中的配置（按优先级排序）
	ListActive(ctx context.Context) ([]*model.APIKey, error)

	// UpdateStatus 更新状态
	UpdateStatus(ctx context.Context, id uint, status string) error

	// IncrementStats 增加统计信息并刷新最后使用时间
	IncrementStats(ctx context.Context, id uint, requestCount int, errorCount int) error

	// SetRateLimitReset 标记限流并设置重置时间
	SetRateLimitReset(ctx context.Context, id uint, resetTime time.Time) error

	// ClearRateLimit 冷却结束后恢复为启用
	ClearRateLimit(ctx context.Context, id uint) error

	// GetStats 获取统计信息
	GetStats(ctx context.Context) (*APIKeyStats, error)
}

// APIKeyStats 模型池统计
type APIKeyStats struct {
	TotalCount       int64 `json:"total_count"`
	EnabledCount     int64 `json:"enabled_count"`
	DisabledCount    int64 `json:"disabled_count"`
	UnavailableCount int64 `json:"unavailable_count"`
	TotalRequests    int64 `json:"total_requests"`
	TotalErrors      int64 `json:"total_errors"`
}

type apiKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository 创建 API Key 仓储
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, apiKey *model.APIKey) error {
	return r.db.WithContext(ctx).Create(apiKey).Error
}

func (r *apiKeyRepository) Update(ctx context.Context, apiKey *model.APIKey) error {
	return r.db.WithContext(ctx).Save(apiKey).Error
}

func (r *apiKeyRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.APIKey{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

func (r *apiKeyRepository) GetByID(ctx context.Context, id uint) (*model.APIKey, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *apiKeyRepository) GetByName(ctx context.Context, name string) (*model.APIKey, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *apiKeyRepository) first(ctx context.Context, query string, arg any) (*model.APIKey, error) {
	var apiKey model.APIKey
	err := r.db.WithContext(ctx).Where(query, arg).First(&apiKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	return &apiKey, nil
}

func (r *apiKeyRepository) List(ctx context.Context) ([]*model.APIKey, error) {
	var apiKeys []*model.APIKey
	err := r.db.WithContext(ctx).
		Order("priority ASC, id ASC").
		Find(&apiKeys).Error
	return apiKeys, err
}

func (r *apiKeyRepository) ListActive(ctx context.Context) ([]*model.APIKey, error) {
	var apiKeys []*model.APIKey
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{model.APIKeyStatusEnabled, model.APIKeyStatusUnavailable}).
		Order("priority ASC, id ASC").
		Find(&apiKeys).Error
	return apiKeys, err
}

func (r *apiKeyRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == model.APIKeyStatusEnabled {
		updates["rate_limit_reset_at"] = nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

func (r *apiKeyRepository) IncrementStats(ctx context.Context, id uint, requestCount int, errorCount int) error {
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", requestCount),
			"error_count":   gorm.Expr("error_count + ?", errorCount),
			"last_used_at":  time.Now(),
		}).Error
}

func (r *apiKeyRepository) SetRateLimitReset(ctx context.Context, id uint, resetTime time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":              model.APIKeyStatusUnavailable,
			"rate_limit_reset_at": resetTime,
		}).Error
}

func (r *apiKeyRepository) ClearRateLimit(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ? AND status = ?", id, model.APIKeyStatusUnavailable).
		Updates(map[string]interface{}{
			"status":              model.APIKeyStatusEnabled,
			"rate_limit_reset_at": nil,
		}).Error
}

func (r *apiKeyRepository) GetStats(ctx context.Context) (*APIKeyStats, error) {
	var result APIKeyStats
	err := r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Select(`
			COUNT(*) as total_count,
			COALESCE(SUM(CASE WHEN status = 'enabled' THEN 1 ELSE 0 END), 0) as enabled_count,
			COALESCE(SUM(CASE WHEN status = 'disabled' THEN 1 ELSE 0 END), 0) as disabled_count,
			COALESCE(SUM(CASE WHEN status = 'unavailable' THEN 1 ELSE 0 END), 0) as unavailable_count,
			COALESCE(SUM(request_count), 0) as total_requests,
			COALESCE(SUM(error_count), 0) as total_errors
		`).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}
