package model

import "time"

// FlowUsage 一次成功 flow 调用的用量记录
type FlowUsage struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	RunID            string    `json:"run_id" gorm:"size:36;uniqueIndex;not null"`
	Flow             string    `json:"flow" gorm:"size:100;index;not null"`
	ModelName        string    `json:"model_name" gorm:"size:255"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CachedTokens     int       `json:"cached_tokens"`
	ReasoningTokens  int       `json:"reasoning_tokens"`
	DurationMs       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at" gorm:"index"`
}

func (FlowUsage) TableName() string {
	return "flow_usages"
}

// FlowUsageStats 按 flow 聚合的用量统计
type FlowUsageStats struct {
	Flow             string  `json:"flow"`
	Calls            int64   `json:"calls"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
}
