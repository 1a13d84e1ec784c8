package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/greendental/backend/config"
	"github.com/greendental/backend/internal/pkg/flow"
)

// contentGenerator genai.Models 的子集，便于测试替换
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// 图片编辑场景适当放宽仇恨言论以外的拦截阈值
var visionSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// GeminiChatModel 基于 Gemini 的 model.BaseChatModel 实现，支持图片输入输出
type GeminiChatModel struct {
	models contentGenerator
	model  string
}

// NewGeminiChatModel 创建 Gemini 模型
func NewGeminiChatModel(ctx context.Context, cfg config.VisionConfig) (*GeminiChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		klog.Errorf("[GeminiChatModel] 创建客户端失败: %v", err)
		return nil, err
	}
	klog.V(6).Infof("[GeminiChatModel] 客户端创建成功: model=%s", cfg.Model)
	return &GeminiChatModel{models: client.Models, model: cfg.Model}, nil
}

// Generate 实现 model.BaseChatModel 接口
// 文本部分拼接为 Content，生成的图片以 data URI 形式放入 MultiContent
func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	contents, system, err := toGenaiContents(input)
	if err != nil {
		return nil, err
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction:  system,
		ResponseModalities: []string{"TEXT", "IMAGE"},
		SafetySettings:     visionSafetySettings,
	}

	klog.V(6).Infof("[GeminiChatModel] 请求: model=%s, contents=%d", g.model, len(contents))
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, err
	}
	return fromGenaiResponse(resp, g.model), nil
}

// Stream 实现 model.BaseChatModel 接口，一次性返回完整结果
func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := g.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toGenaiContents(input []*schema.Message) ([]*genai.Content, *genai.Content, error) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(input))

	for _, msg := range input {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})
			continue
		}

		role := "user"
		if msg.Role == schema.Assistant {
			role = "model"
		}
		content := &genai.Content{Role: role}

		if len(msg.MultiContent) == 0 {
			content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
		}
		for _, part := range msg.MultiContent {
			switch part.Type {
			case schema.ChatMessagePartTypeText:
				content.Parts = append(content.Parts, &genai.Part{Text: part.Text})
			case schema.ChatMessagePartTypeImageURL:
				if part.ImageURL == nil {
					continue
				}
				mimeType, data, err := ParseDataURI(part.ImageURL.URL)
				if err != nil {
					return nil, nil, fmt.Errorf("image part: %w", err)
				}
				content.Parts = append(content.Parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: mimeType, Data: data},
				})
			}
		}
		contents = append(contents, content)
	}
	return contents, system, nil
}

func fromGenaiResponse(resp *genai.GenerateContentResponse, modelName string) *schema.Message {
	msg := &schema.Message{
		Role:  schema.Assistant,
		Extra: map[string]any{flow.ExtraModelName: modelName},
	}
	if resp == nil {
		return msg
	}

	var text []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				text = append(text, part.Text)
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				msg.MultiContent = append(msg.MultiContent, schema.ChatMessagePart{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL: FormatDataURI(part.InlineData.MIMEType, part.InlineData.Data),
					},
				})
			}
		}
		// 只取第一个有内容的候选
		if len(text) > 0 || len(msg.MultiContent) > 0 {
			break
		}
	}
	msg.Content = strings.TrimSpace(strings.Join(text, "\n"))

	if u := resp.UsageMetadata; u != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}}
	}
	return msg
}
