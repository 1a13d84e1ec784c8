package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// -----------------------------
// 错误定义
// -----------------------------
var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrQueueFull           = errors.New("too many pending requests")
)

const defaultMaxQueued = 100

// Status 运行状态
type Status struct {
	Capacity   int   `json:"capacity"`
	QueueLimit int   `json:"queue_limit"`
	Running    int   `json:"running"`
	Waiting    int   `json:"waiting"`
	Rejected   int64 `json:"rejected"`
}

// -----------------------------
// Orchestrator
// -----------------------------
// Orchestrator 限制同时进行的模型调用数量，超出的请求排队等待
type Orchestrator struct {
	pool      *ants.Pool
	maxQueued int
	stopped   atomic.Bool
	rejected  atomic.Int64
	stopOnce  sync.Once
}

// NewOrchestrator
// 说明：maxWorkers 为并发上限，maxQueued 为排队上限，超出时直接拒绝
// maxQueued <= 0 时使用默认值，ants 把 0 当作不限制
func NewOrchestrator(maxWorkers, maxQueued int) (*Orchestrator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if maxQueued <= 0 {
		maxQueued = defaultMaxQueued
	}
	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(maxQueued),
		ants.WithExpiryDuration(5*time.Minute),
		ants.WithPanicHandler(func(r any) {
			klog.Errorf("[Orchestrator] worker panic recovered: %v", r)
		}),
	)
	if err != nil {
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}
	return &Orchestrator{pool: pool, maxQueued: maxQueued}, nil
}

// Run 在工作池中执行 fn 并等待结果
// 排队或执行期间 ctx 结束时立即返回，排队中的 fn 不会再被调用
func (o *Orchestrator) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if o.stopped.Load() {
		return ErrOrchestratorStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				klog.Errorf("[Orchestrator] task panic recovered: %v", r)
				done <- errors.New("task panicked")
			}
		}()
		// 排队期间调用方已放弃
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- fn(ctx)
	}

	// 队列未满时 Submit 会阻塞到有空闲 worker，放到单独的 goroutine 里以便响应 ctx
	submitted := make(chan error, 1)
	go func() {
		submitted <- o.pool.Submit(task)
	}()

	select {
	case err := <-submitted:
		if err != nil {
			return o.submitError(err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) submitError(err error) error {
	switch {
	case errors.Is(err, ants.ErrPoolOverload):
		o.rejected.Add(1)
		klog.Warningf("[Orchestrator] queue full: running=%d, waiting=%d", o.pool.Running(), o.pool.Waiting())
		return ErrQueueFull
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrOrchestratorStopped
	}
	return err
}

// Status 当前运行状态
func (o *Orchestrator) Status() Status {
	return Status{
		Capacity:   o.pool.Cap(),
		QueueLimit: o.maxQueued,
		Running:    o.pool.Running(),
		Waiting:    o.pool.Waiting(),
		Rejected:   o.rejected.Load(),
	}
}

// -----------------------------
// 停止
// -----------------------------
// Stop 拒绝新请求，并等待执行中的调用完成
func (o *Orchestrator) Stop(timeout time.Duration) {
	o.stopOnce.Do(func() {
		o.stopped.Store(true)
		if running := o.pool.Running(); running > 0 {
			klog.V(6).Infof("[Orchestrator] waiting for %d running calls (timeout: %v)", running, timeout)
		}
		if err := o.pool.ReleaseTimeout(timeout); err != nil {
			klog.Warningf("[Orchestrator] timeout after %v: some calls may be forced to stop", timeout)
			return
		}
		klog.V(6).Infof("[Orchestrator] stopped completely")
	})
}
