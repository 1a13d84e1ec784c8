package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewFlowEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(FlowEventCompleted, func(ctx context.Context, event FlowEvent) error {
		calledA = event.Flow == "symptom-checker"
		return nil
	})
	bus.Subscribe(FlowEventCompleted, func(ctx context.Context, event FlowEvent) error {
		calledB = true
		return nil
	})

	if err := bus.Publish(context.Background(), FlowEventCompleted, FlowEvent{Type: FlowEventCompleted, Flow: "symptom-checker"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusOnlyMatchingType(t *testing.T) {
	bus := NewFlowEventBus()
	called := false
	bus.Subscribe(FlowEventFailed, func(ctx context.Context, event FlowEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), FlowEventCompleted, FlowEvent{Type: FlowEventCompleted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler for another event type should not be called")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewFlowEventBus()
	called := false
	unsubscribe := bus.Subscribe(FlowEventCompleted, func(ctx context.Context, event FlowEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), FlowEventCompleted, FlowEvent{Type: FlowEventCompleted}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewFlowEventBus()
	bus.Subscribe(FlowEventCompleted, func(ctx context.Context, event FlowEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(FlowEventCompleted, func(ctx context.Context, event FlowEvent) error {
		return errors.New("err-b")
	})

	err := bus.Publish(context.Background(), FlowEventCompleted, FlowEvent{Type: FlowEventCompleted})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "err-a\nerr-b" && err.Error() != "err-b\nerr-a" {
		t.Fatalf("unexpected joined error: %v", err)
	}
}
