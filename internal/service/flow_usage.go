package service

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/greendental/backend/internal/model"
	"github.com/greendental/backend/internal/repository"
	"k8s.io/klog/v2"
)

// FlowUsageService flow 用量服务接口
type FlowUsageService interface {
	// RecordUsage 记录一次成功调用的 token 用量
	RecordUsage(ctx context.Context, runID, flowName, modelName string, usage *schema.TokenUsage, elapsed time.Duration) error
	// Stats 按 flow 汇总 since 之后的用量，since 为零值时统计全部
	Stats(ctx context.Context, since time.Time) ([]*model.FlowUsageStats, error)
	// Recent 最近的调用记录
	Recent(ctx context.Context, flowName string, limit int) ([]*model.FlowUsage, error)
}

type flowUsageService struct {
	repo repository.FlowUsageRepository
}

// NewFlowUsageService 创建 flow 用量服务
func NewFlowUsageService(repo repository.FlowUsageRepository) FlowUsageService {
	return &flowUsageService{repo: repo}
}

func (s *flowUsageService) RecordUsage(ctx context.Context, runID, flowName, modelName string, usage *schema.TokenUsage, elapsed time.Duration) error {
	if runID == "" {
		return errors.New("run id is empty")
	}

	// 将 SDK 的 usage 结构映射为数据库模型字段，模型未返回用量时只记录调用
	record := &model.FlowUsage{
		RunID:      runID,
		Flow:       flowName,
		ModelName:  modelName,
		DurationMs: elapsed.Milliseconds(),
	}
	if usage != nil {
		record.PromptTokens = usage.PromptTokens
		record.CompletionTokens = usage.CompletionTokens
		record.TotalTokens = usage.TotalTokens
		record.CachedTokens = usage.PromptTokenDetails.CachedTokens
		record.ReasoningTokens = usage.CompletionTokensDetails.ReasoningTokens
	}

	if err := s.repo.Create(ctx, record); err != nil {
		klog.Errorf("[FlowUsageService] 用量记录失败: run=%s, flow=%s, err=%v", runID, flowName, err)
		return err
	}
	klog.V(6).Infof("[FlowUsageService] 用量记录成功: run=%s, flow=%s, 模型=%s, total=%d", runID, flowName, modelName, record.TotalTokens)
	return nil
}

func (s *flowUsageService) Stats(ctx context.Context, since time.Time) ([]*model.FlowUsageStats, error) {
	return s.repo.StatsByFlow(ctx, since)
}

func (s *flowUsageService) Recent(ctx context.Context, flowName string, limit int) ([]*model.FlowUsage, error) {
	return s.repo.ListRecent(ctx, flowName, limit)
}
