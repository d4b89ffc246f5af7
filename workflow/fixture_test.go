package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func staticProvider(value any) Provider {
	return func(ctx context.Context, s *Scope) (any, error) {
		return value, nil
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("work_path", staticProvider("/work")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, ok := r.Provider("work_path"); !ok {
		t.Error("registered provider not found")
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("job", staticProvider(1)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := r.Register("job", staticProvider(2)); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("", staticProvider(1)); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register("x", nil); err == nil {
		t.Error("expected error for nil provider")
	}
}

func TestRegistry_Aliases(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("number_of_processes", staticProvider(4), "proc")

	s := NewScope(r)
	ctx := context.Background()

	a, err := s.Get(ctx, "number_of_processes")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := s.Get(ctx, "proc")
	if err != nil {
		t.Fatalf("Get by alias failed: %v", err)
	}

	if a != b {
		t.Error("alias should resolve to the same value")
	}
}

func TestRegistry_AliasCollision(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("proc", staticProvider(1))

	if err := r.Register("number_of_processes", staticProvider(2), "proc"); err == nil {
		t.Error("expected error for colliding alias")
	}
}

func TestRegistry_ParentFallback(t *testing.T) {
	parent := NewRegistry()
	parent.MustRegister("base", staticProvider("from parent"))

	child := NewChildRegistry(parent)
	child.MustRegister("extra", staticProvider("from child"))

	if !child.Has("base") {
		t.Error("child should resolve parent fixtures")
	}
	if parent.Has("extra") {
		t.Error("parent should not see child fixtures")
	}
}

func TestRegistry_ChildShadowsParent(t *testing.T) {
	parent := NewRegistry()
	parent.MustRegister("mode", staticProvider("production"))

	child := NewChildRegistry(parent)
	child.MustRegister("mode", staticProvider("dev"))

	s := NewScope(child)
	got, err := s.Get(context.Background(), "mode")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "dev" {
		t.Errorf("Get = %v, want child value", got)
	}
}

func TestRegistry_Names(t *testing.T) {
	parent := NewRegistry()
	parent.MustRegister("b", staticProvider(1))

	child := NewChildRegistry(parent)
	child.MustRegister("a", staticProvider(2), "c")

	want := []string{"a", "b", "c"}
	if got := child.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegister should panic on duplicate")
		}
	}()

	r := NewRegistry()
	r.MustRegister("x", staticProvider(1))
	r.MustRegister("x", staticProvider(2))
}

func TestProviderErrorsWrapName(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("connect refused")
	r.MustRegister("database", func(ctx context.Context, s *Scope) (any, error) {
		return nil, boom
	})

	_, err := NewScope(r).Get(context.Background(), "database")
	if !errors.Is(err, boom) {
		t.Errorf("provider error should be wrapped, got %v", err)
	}
}
