package llm

import (
	"context"
	"errors"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"k8s.io/klog/v2"

	"github.com/greendental/backend/internal/pkg/flow"
)

// ErrNoAvailableModel 模型池为空且未配置默认模型
var ErrNoAvailableModel = errors.New("no available model")

// ProxyChatModel 文本 flow 使用的代理模型
//
// 每次调用取模型池中优先级最高的可用模型，池为空时使用默认模型。
// 限流错误会让该 Key 进入冷却，但本次调用仍直接返回错误，不做切换和重试。
type ProxyChatModel struct {
	provider    *ModelProvider
	rateLimiter *RateLimiter
}

// NewProxyChatModel 创建代理模型
func NewProxyChatModel(provider *ModelProvider, cooldown time.Duration) *ProxyChatModel {
	return &ProxyChatModel{
		provider:    provider,
		rateLimiter: NewRateLimiter(provider, cooldown),
	}
}

// Generate 实现 model.BaseChatModel 接口
func (p *ProxyChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m, err := p.pick(ctx)
	if err != nil {
		return nil, err
	}
	klog.V(6).Infof("[ProxyChatModel] 使用模型 %s (ID: %d)", m.APIKeyName, m.APIKeyID)

	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, p.fail(ctx, m, err)
	}
	p.provider.RecordRequest(ctx, m, true)

	if msg != nil {
		if msg.Extra == nil {
			msg.Extra = map[string]any{}
		}
		msg.Extra[flow.ExtraModelName] = m.APIKeyName
		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			klog.V(6).Infof("[ProxyChatModel] 模型返回用量: model=%s, total=%d", m.APIKeyName, msg.ResponseMeta.Usage.TotalTokens)
		}
	}
	return msg, nil
}

// Stream 实现 model.BaseChatModel 接口
func (p *ProxyChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	m, err := p.pick(ctx)
	if err != nil {
		return nil, err
	}
	sr, err := m.Stream(ctx, input, opts...)
	if err != nil {
		return nil, p.fail(ctx, m, err)
	}
	p.provider.RecordRequest(ctx, m, true)
	return sr, nil
}

func (p *ProxyChatModel) fail(ctx context.Context, m *PooledModel, err error) error {
	p.provider.RecordRequest(ctx, m, false)
	if p.rateLimiter.IsRateLimitError(err) {
		return p.rateLimiter.HandleRateLimit(ctx, m, err)
	}
	return err
}

// pick 选择模型，数据库异常或池为空时兜底到默认模型
func (p *ProxyChatModel) pick(ctx context.Context) (*PooledModel, error) {
	models, err := p.provider.Pool(ctx)
	if err != nil {
		klog.Warningf("[ProxyChatModel] 读取模型池失败，使用默认模型: %v", err)
	}
	if len(models) > 0 {
		return models[0], nil
	}
	if def := p.provider.Default(); def != nil && def.BaseChatModel != nil {
		klog.V(6).Infof("[ProxyChatModel] 模型池为空，使用默认模型")
		return def, nil
	}
	return nil, ErrNoAvailableModel
}
