package service

import (
	"context"
	"errors"
	"time"

	"github.com/greendental/backend/internal/model"
	"github.com/greendental/backend/internal/repository"
	"k8s.io/klog/v2"
)

// ErrInvalidStatus 无效的状态
var ErrInvalidStatus = errors.New("invalid status")

// APIKeyService API Key 服务接口
type APIKeyService interface {
	// CreateAPIKey 创建 API Key 配置
	CreateAPIKey(ctx context.Context, req *CreateAPIKeyRequest) (*model.APIKey, error)

	// UpdateAPIKey 更新 API Key 配置
	UpdateAPIKey(ctx context.Context, id uint, req *UpdateAPIKeyRequest) (*model.APIKey, error)

	// DeleteAPIKey 删除 API Key 配置
	DeleteAPIKey(ctx context.Context, id uint) error

	// GetAPIKey 获取 API Key 配置
	GetAPIKey(ctx context.Context, id uint) (*model.APIKey, error)

	// ListAPIKeys 列出所有 API Key 配置
	ListAPIKeys(ctx context.Context) ([]*model.APIKey, error)

	// UpdateAPIKeyStatus 更新状态，只允许 enabled / disabled
	UpdateAPIKeyStatus(ctx context.Context, id uint, status string) error

	// GetStats 获取统计信息
	GetStats(ctx context.Context) (*repository.APIKeyStats, error)

	// ListAvailable 当前可用于调用的 Key，冷却已结束的自动恢复
	ListAvailable(ctx context.Context) ([]*model.APIKey, error)

	// RecordRequest 记录请求
	RecordRequest(ctx context.Context, apiKeyID uint, success bool) error

	// MarkUnavailable 标记为不可用
	MarkUnavailable(ctx context.Context, apiKeyID uint, resetTime time.Time) error
}

// CreateAPIKeyRequest 创建 API Key 请求
type CreateAPIKeyRequest struct {
	Name     string `json:"name" binding:"required"`
	Provider string `json:"provider" binding:"required"`
	BaseURL  string `json:"base_url" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
	Model    string `json:"model" binding:"required"`
	Priority int    `json:"priority"`
}

// UpdateAPIKeyRequest 更新 API Key 请求，空值字段不修改
type UpdateAPIKeyRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	Priority *int   `json:"priority"`
}

type apiKeyService struct {
	repo repository.APIKeyRepository
	now  func() time.Time
}

// NewAPIKeyService 创建 API Key 服务
func NewAPIKeyService(repo repository.APIKeyRepository) APIKeyService {
	return &apiKeyService{repo: repo, now: time.Now}
}

func (s *apiKeyService) CreateAPIKey(ctx context.Context, req *CreateAPIKeyRequest) (*model.APIKey, error) {
	klog.V(6).Infof("[APIKeyService] 创建 API Key: name=%s", req.Name)

	existing, err := s.repo.GetByName(ctx, req.Name)
	if err == nil && existing != nil {
		klog.Warningf("[APIKeyService] API Key 名称已存在: %s", req.Name)
		return nil, repository.ErrAPIKeyDuplicate
	}
	if err != nil && !errors.Is(err, repository.ErrAPIKeyNotFound) {
		return nil, err
	}

	apiKey := &model.APIKey{
		Name:     req.Name,
		Provider: req.Provider,
		BaseURL:  req.BaseURL,
		APIKey:   req.APIKey,
		Model:    req.Model,
		Priority: req.Priority,
		Status:   model.APIKeyStatusEnabled,
	}
	if err := s.repo.Create(ctx, apiKey); err != nil {
		klog.Errorf("[APIKeyService] 创建 API Key 失败: %v", err)
		return nil, err
	}

	klog.V(6).Infof("[APIKeyService] 创建 API Key 成功: id=%d", apiKey.ID)
	return apiKey, nil
}

func (s *apiKeyService) UpdateAPIKey(ctx context.Context, id uint, req *UpdateAPIKeyRequest) (*model.APIKey, error) {
	klog.V(6).Infof("[APIKeyService] 更新 API Key: id=%d", id)

	apiKey, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" && req.Name != apiKey.Name {
		existing, err := s.repo.GetByName(ctx, req.Name)
		if err == nil && existing != nil && existing.ID != id {
			klog.Warningf("[APIKeyService] API Key 名称已存在: %s", req.Name)
			return nil, repository.ErrAPIKeyDuplicate
		}
		apiKey.Name = req.Name
	}
	if req.Provider != "" {
		apiKey.Provider = req.Provider
	}
	if req.BaseURL != "" {
		apiKey.BaseURL = req.BaseURL
	}
	if req.APIKey != "" {
		apiKey.APIKey = req.APIKey
	}
	if req.Model != "" {
		apiKey.Model = req.Model
	}
	if req.Priority != nil {
		apiKey.Priority = *req.Priority
	}

	if err := s.repo.Update(ctx, apiKey); err != nil {
		klog.Errorf("[APIKeyService] 更新 API Key 失败: %v", err)
		return nil, err
	}
	return apiKey, nil
}

func (s *apiKeyService) DeleteAPIKey(ctx context.Context, id uint) error {
	klog.V(6).Infof("[APIKeyService] 删除 API Key: id=%d", id)
	if err := s.repo.Delete(ctx, id); err != nil {
		klog.Errorf("[APIKeyService] 删除 API Key 失败: %v", err)
		return err
	}
	return nil
}

func (s *apiKeyService) GetAPIKey(ctx context.Context, id uint) (*model.APIKey, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *apiKeyService) ListAPIKeys(ctx context.Context) ([]*model.APIKey, error) {
	return s.repo.List(ctx)
}

func (s *apiKeyService) UpdateAPIKeyStatus(ctx context.Context, id uint, status string) error {
	if !model.ValidAPIKeyStatus(status) {
		return ErrInvalidStatus
	}
	klog.V(6).Infof("[APIKeyService] 更新状态: id=%d, status=%s", id, status)
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *apiKeyService) GetStats(ctx context.Context) (*repository.APIKeyStats, error) {
	return s.repo.GetStats(ctx)
}

func (s *apiKeyService) ListAvailable(ctx context.Context) ([]*model.APIKey, error) {
	keys, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	available := make([]*model.APIKey, 0, len(keys))
	for _, k := range keys {
		if !k.IsAvailable(now) {
			continue
		}
		if k.Status == model.APIKeyStatusUnavailable {
			klog.V(6).Infof("[APIKeyService] API Key %s 限流冷却结束，恢复可用", k.Name)
			if err := s.repo.ClearRateLimit(ctx, k.ID); err != nil {
				klog.Warningf("[APIKeyService] 恢复 API Key %s 失败: %v", k.Name, err)
			}
			k.Status = model.APIKeyStatusEnabled
			k.RateLimitResetAt = nil
		}
		available = append(available, k)
	}
	return available, nil
}

func (s *apiKeyService) RecordRequest(ctx context.Context, apiKeyID uint, success bool) error {
	errorCount := 0
	if !success {
		errorCount = 1
	}
	return s.repo.IncrementStats(ctx, apiKeyID, 1, errorCount)
}

func (s *apiKeyService) MarkUnavailable(ctx context.Context, apiKeyID uint, resetTime time.Time) error {
	klog.Warningf("[APIKeyService] API Key id=%d 进入限流冷却，恢复时间 %v", apiKeyID, resetTime)
	if err := s.repo.SetRateLimitReset(ctx, apiKeyID, resetTime); err != nil {
		klog.Errorf("[APIKeyService] 标记不可用失败: %v", err)
		return err
	}
	return nil
}
