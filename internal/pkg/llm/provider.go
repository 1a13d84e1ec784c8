package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/greendental/backend/internal/model"
	"k8s.io/klog/v2"
)

// KeyStore 模型池依赖的 API Key 存储
type KeyStore interface {
	// ListAvailable 返回当前可用的 Key，按优先级排序
	ListAvailable(ctx context.Context) ([]*model.APIKey, error)
	RecordRequest(ctx context.Context, apiKeyID uint, success bool) error
	MarkUnavailable(ctx context.Context, apiKeyID uint, resetTime time.Time) error
}

// PooledModel 带来源信息的模型
type PooledModel struct {
	einomodel.BaseChatModel
	APIKeyID   uint // 0 表示配置文件中的默认模型
	APIKeyName string
	ModelName  string
}

// ModelFactory 根据 API Key 创建模型
type ModelFactory func(ctx context.Context, apiKey *model.APIKey) (einomodel.BaseChatModel, error)

// ModelProvider 模型池：数据库中的 API Key 按优先级排列，默认模型兜底
type ModelProvider struct {
	keys         KeyStore
	defaultModel *PooledModel
	factory      ModelFactory

	mu    sync.RWMutex
	cache map[string]*PooledModel
}

// NewModelProvider 创建模型池
func NewModelProvider(keys KeyStore, defaultModel *PooledModel, factory ModelFactory) *ModelProvider {
	return &ModelProvider{
		keys:         keys,
		defaultModel: defaultModel,
		factory:      factory,
		cache:        make(map[string]*PooledModel),
	}
}

// OpenAIFactory 使用 eino-ext openai 组件创建模型
func OpenAIFactory(maxTokens int) ModelFactory {
	return func(ctx context.Context, apiKey *model.APIKey) (einomodel.BaseChatModel, error) {
		return newKeyChatModel(ctx, apiKey, maxTokens)
	}
}

// Default 默认模型
func (p *ModelProvider) Default() *PooledModel {
	return p.defaultModel
}

// Pool 返回当前可用的模型（按优先级排序）
func (p *ModelProvider) Pool(ctx context.Context) ([]*PooledModel, error) {
	if p.keys == nil {
		return nil, nil
	}
	apiKeys, err := p.keys.ListAvailable(ctx)
	if err != nil {
		klog.Errorf("[ModelProvider] 获取 API Key 失败: %v", err)
		return nil, err
	}

	models := make([]*PooledModel, 0, len(apiKeys))
	for _, apiKey := range apiKeys {
		m, err := p.modelFor(ctx, apiKey)
		if err != nil {
			klog.Errorf("[ModelProvider] 创建模型失败 %s: %v", apiKey.Name, err)
			continue
		}
		models = append(models, m)
	}
	klog.V(6).Infof("[ModelProvider] 可用模型 %d 个", len(models))
	return models, nil
}

// modelFor 读缓存，Key 被修改后（UpdatedAt 变化）重新创建
func (p *ModelProvider) modelFor(ctx context.Context, apiKey *model.APIKey) (*PooledModel, error) {
	cacheKey := fmt.Sprintf("%d:%d", apiKey.ID, apiKey.UpdatedAt.UnixNano())

	p.mu.RLock()
	cached, ok := p.cache[cacheKey]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	cm, err := p.factory(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	m := &PooledModel{
		BaseChatModel: cm,
		APIKeyID:      apiKey.ID,
		APIKeyName:    apiKey.Name,
		ModelName:     apiKey.Model,
	}

	p.mu.Lock()
	for k, v := range p.cache {
		if v.APIKeyID == apiKey.ID {
			delete(p.cache, k)
		}
	}
	p.cache[cacheKey] = m
	p.mu.Unlock()
	return m, nil
}

// MarkModelUnavailable 标记模型在 resetTime 前不可用
func (p *ModelProvider) MarkModelUnavailable(ctx context.Context, m *PooledModel, resetTime time.Time) error {
	if m == nil || m.APIKeyID == 0 || p.keys == nil {
		return nil
	}
	return p.keys.MarkUnavailable(ctx, m.APIKeyID, resetTime)
}

// RecordRequest 记录请求结果
func (p *ModelProvider) RecordRequest(ctx context.Context, m *PooledModel, success bool) {
	if m == nil || m.APIKeyID == 0 || p.keys == nil {
		return
	}
	if err := p.keys.RecordRequest(ctx, m.APIKeyID, success); err != nil {
		klog.Warningf("[ModelProvider] 记录请求失败 %s: %v", m.APIKeyName, err)
	}
}
