package eventbus

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

type FlowEventType string

const (
	FlowEventCompleted FlowEventType = "FlowCompleted"
	FlowEventFailed    FlowEventType = "FlowFailed"
)

// FlowEvent 一次 flow 调用结束
type FlowEvent struct {
	Type    FlowEventType
	RunID   string
	Flow    string
	Model   string
	Usage   *schema.TokenUsage
	Elapsed time.Duration
	// ErrKind 失败时的错误分类
	ErrKind string
	Err     error
}

type FlowEventBus = Bus[FlowEventType, FlowEvent]

func NewFlowEventBus() *FlowEventBus {
	return NewBus[FlowEventType, FlowEvent]()
}
