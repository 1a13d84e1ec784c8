package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/model"
	"k8s.io/klog/v2"
)

// NewChatModel 用全局 LLM 配置创建默认的 OpenAI 兼容模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (*openai.ChatModel, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.APIURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: intPtr(cfg.MaxTokens),
	})
	if err != nil {
		klog.Errorf("[LLMChatModel] 创建 ChatModel 失败: %v", err)
		return nil, err
	}
	klog.V(6).Infof("[LLMChatModel] ChatModel 创建成功: model=%s", cfg.Model)
	return chatModel, nil
}

// newKeyChatModel 为模型池中的 API Key 创建模型
func newKeyChatModel(ctx context.Context, apiKey *model.APIKey, maxTokens int) (*openai.ChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   apiKey.BaseURL,
		APIKey:    apiKey.APIKey,
		Model:     apiKey.Model,
		MaxTokens: intPtr(maxTokens),
	})
}

func intPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
