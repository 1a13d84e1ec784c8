// Package flowtest 提供测试用的假模型
package flowtest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel 记录调用并返回预设回复的 model.BaseChatModel
type ChatModel struct {
	mu       sync.Mutex
	calls    [][]*schema.Message
	Reply    *schema.Message
	Err      error
	// GenerateFunc 不为空时优先使用
	GenerateFunc func(ctx context.Context, input []*schema.Message) (*schema.Message, error)
}

// NewChatModel 返回固定文本回复的假模型
func NewChatModel(content string) *ChatModel {
	return &ChatModel{Reply: schema.AssistantMessage(content, nil)}
}

// NewFailingChatModel 返回固定错误的假模型
func NewFailingChatModel(err error) *ChatModel {
	return &ChatModel{Err: err}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Reply == nil {
		return nil, nil
	}
	reply := *m.Reply
	return &reply, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls 调用次数
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastInput 最近一次调用的输入
func (m *ChatModel) LastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
