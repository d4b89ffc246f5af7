package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestHook_TriggerOrder(t *testing.T) {
	h := NewHook[string]("update")

	var got []string
	h.Register(func(ctx context.Context, event string) error {
		got = append(got, "first:"+event)
		return nil
	})
	h.Register(func(ctx context.Context, event string) error {
		got = append(got, "second:"+event)
		return nil
	})

	if err := h.Trigger(context.Background(), "x"); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	if len(got) != 2 || got[0] != "first:x" || got[1] != "second:x" {
		t.Errorf("callbacks ran out of order: %v", got)
	}
}

func TestHook_TriggerRunsAllDespiteErrors(t *testing.T) {
	h := NewHook[int]("step")
	errFirst := errors.New("first failed")

	secondRan := false
	h.Register(func(ctx context.Context, event int) error { return errFirst })
	h.Register(func(ctx context.Context, event int) error {
		secondRan = true
		return nil
	})

	err := h.Trigger(context.Background(), 1)
	if !errors.Is(err, errFirst) {
		t.Errorf("Trigger error = %v, want first callback's error", err)
	}
	if !secondRan {
		t.Error("second callback should run even when the first fails")
	}
}

func TestHook_Once(t *testing.T) {
	h := NewHook[string]("finish")

	count := 0
	h.Once(func(ctx context.Context, event string) error {
		count++
		return nil
	})

	ctx := context.Background()
	_ = h.Trigger(ctx, "a")
	_ = h.Trigger(ctx, "b")

	if count != 1 {
		t.Errorf("once callback ran %d times, want 1", count)
	}
}

func TestHook_Len(t *testing.T) {
	h := NewHook[string]("error")
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}

	h.Register(func(ctx context.Context, event string) error { return nil })
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
}

func TestNewHooks_AllHooksPresent(t *testing.T) {
	hooks := NewHooks()

	if hooks.OnUpdate == nil || hooks.OnStateChange == nil || hooks.OnStep == nil ||
		hooks.OnError == nil || hooks.OnResult == nil || hooks.OnSuccess == nil ||
		hooks.OnFailure == nil || hooks.OnFinish == nil {
		t.Error("NewHooks should initialize every hook")
	}
}
