package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/greendental/backend/internal/eventbus"
	"github.com/greendental/backend/internal/pkg/flow"
	"github.com/greendental/backend/internal/service/orchestrator"
	"k8s.io/klog/v2"
)

// FlowRun 一次 flow 调用的对外结果
type FlowRun struct {
	RunID     string `json:"run_id"`
	Flow      string `json:"flow"`
	Output    any    `json:"output"`
	Model     string `json:"model,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// FlowService 按名称调用 flow，并发布调用事件
type FlowService struct {
	registry *flow.Registry
	runtime  *flow.Runtime
	bus      *eventbus.FlowEventBus
	newRunID func() string

	orchestrator *orchestrator.Orchestrator
}

// NewFlowService 创建 flow 服务，bus 可为空
func NewFlowService(registry *flow.Registry, runtime *flow.Runtime, bus *eventbus.FlowEventBus) *FlowService {
	return &FlowService{
		registry: registry,
		runtime:  runtime,
		bus:      bus,
		newRunID: uuid.NewString,
	}
}

// SetOrchestrator 设置并发控制，未设置时直接调用
func (s *FlowService) SetOrchestrator(o *orchestrator.Orchestrator) {
	s.orchestrator = o
}

// Orchestrator 当前的并发控制
func (s *FlowService) Orchestrator() *orchestrator.Orchestrator {
	return s.orchestrator
}

// List 所有 flow 描述
func (s *FlowService) List() []flow.Info {
	return s.registry.List()
}

// Get 单个 flow 描述
func (s *FlowService) Get(name string) (flow.Info, error) {
	f, err := s.registry.Get(name)
	if err != nil {
		return flow.Info{}, err
	}
	return f.Info(), nil
}

// Invoke 执行 flow，raw 为 JSON 输入
func (s *FlowService) Invoke(ctx context.Context, name string, raw []byte) (*FlowRun, error) {
	f, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}

	runID := s.newRunID()
	start := time.Now()
	klog.V(6).Infof("[FlowService] 开始执行 flow=%s, run=%s", name, runID)

	var out *flow.Outcome
	invoke := func(ctx context.Context) error {
		var err error
		out, err = f.Invoke(ctx, s.runtime, raw)
		return err
	}
	if s.orchestrator != nil {
		err = s.orchestrator.Run(ctx, invoke)
	} else {
		err = invoke(ctx)
	}
	if err != nil {
		kind := flow.KindOf(err)
		if kind != flow.KindValidation {
			klog.Warningf("[FlowService] flow=%s run=%s 执行失败: %v", name, runID, err)
		}
		s.publish(ctx, eventbus.FlowEventFailed, eventbus.FlowEvent{
			Type:    eventbus.FlowEventFailed,
			RunID:   runID,
			Flow:    name,
			Elapsed: time.Since(start),
			ErrKind: string(kind),
			Err:     err,
		})
		return nil, err
	}

	s.publish(ctx, eventbus.FlowEventCompleted, eventbus.FlowEvent{
		Type:    eventbus.FlowEventCompleted,
		RunID:   runID,
		Flow:    name,
		Model:   out.Model,
		Usage:   out.Usage,
		Elapsed: out.Elapsed,
	})
	klog.V(6).Infof("[FlowService] flow=%s run=%s 执行完成, 耗时=%v", name, runID, out.Elapsed)

	return &FlowRun{
		RunID:     runID,
		Flow:      out.Flow,
		Output:    out.Output,
		Model:     out.Model,
		ElapsedMs: out.Elapsed.Milliseconds(),
	}, nil
}

// publish 订阅者的错误只记录日志，不影响调用结果
func (s *FlowService) publish(ctx context.Context, eventType eventbus.FlowEventType, event eventbus.FlowEvent) {
	if s.bus == nil {
		return
	}
	// 客户端断开后仍需完成记录
	if err := s.bus.Publish(context.WithoutCancel(ctx), eventType, event); err != nil {
		klog.Warningf("[FlowService] 事件处理失败: type=%s, run=%s, err=%v", eventType, event.RunID, err)
	}
}
