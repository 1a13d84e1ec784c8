package subscriber

import (
	"context"

	"github.com/greendental/backend/internal/eventbus"
	"github.com/greendental/backend/internal/service"
	"k8s.io/klog/v2"
)

// FlowEventSubscriber 记录 flow 调用结果
type FlowEventSubscriber struct {
	usage service.FlowUsageService
}

func NewFlowEventSubscriber(usage service.FlowUsageService) *FlowEventSubscriber {
	return &FlowEventSubscriber{usage: usage}
}

func (s *FlowEventSubscriber) Register(bus *eventbus.FlowEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.FlowEventCompleted, s.handleFlowCompleted)
	bus.Subscribe(eventbus.FlowEventFailed, s.handleFlowFailed)
}

// handleFlowCompleted 只有成功的调用才落库
func (s *FlowEventSubscriber) handleFlowCompleted(ctx context.Context, event eventbus.FlowEvent) error {
	return s.usage.RecordUsage(ctx, event.RunID, event.Flow, event.Model, event.Usage, event.Elapsed)
}

// handleFlowFailed 失败不持久化
func (s *FlowEventSubscriber) handleFlowFailed(ctx context.Context, event eventbus.FlowEvent) error {
	klog.V(6).Infof("flow 失败事件: run=%s, flow=%s, kind=%s, err=%v", event.RunID, event.Flow, event.ErrKind, event.Err)
	return nil
}
