package protomock

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/bridge/internal/core/domain"
)

func newTyped(t *testing.T) (*Backend, string) {
	t.Helper()
	b := New(Options{})
	t.Cleanup(func() { b.Close() })

	id, err := b.CreateProgram(context.Background(), domain.ProgramConfig{Signature: domain.Signature{
		Inputs: []domain.Field{
			{Name: "question", Type: "str"},
			{Name: "attempts", Type: "int"},
			{Name: "tags", Type: "list[str]"},
		},
		Outputs: []domain.Field{{Name: "answer", Type: "str"}},
	}})
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	return b, id
}

func TestWireShapeAccepted(t *testing.T) {
	b, id := newTyped(t)

	out, err := b.Execute(context.Background(), id, map[string]any{
		"question": "what",
		"attempts": 3,
		"tags":     []any{"a", "b"},
	}, domain.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := out["answer"].(string); !ok {
		t.Errorf("answer = %v (%T), want string", out["answer"], out["answer"])
	}
}

func TestWireShapeRejected(t *testing.T) {
	b, id := newTyped(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		inputs map[string]any
	}{
		{"wrong scalar", map[string]any{"question": 1, "attempts": 3, "tags": []any{}}},
		{"wrong list element", map[string]any{"question": "q", "attempts": 3, "tags": []any{1}}},
		{"not a list", map[string]any{"question": "q", "attempts": 3, "tags": "a"}},
		{"fractional int", map[string]any{"question": "q", "attempts": 3.5, "tags": []any{}}},
	}

	for _, tt := range tests {
		_, err := b.Execute(ctx, id, tt.inputs, domain.ExecOptions{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: got %v, want ErrValidation", tt.name, err)
		}
	}
}

func TestBadDeclaredTypeIsValidation(t *testing.T) {
	b := New(Options{})
	defer b.Close()
	ctx := context.Background()

	id, err := b.CreateProgram(ctx, domain.ProgramConfig{Signature: domain.Signature{
		Inputs:  []domain.Field{{Name: "q", Type: "tuple[str"}},
		Outputs: []domain.Field{{Name: "a", Type: "str"}},
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = b.Execute(ctx, id, map[string]any{"q": "x"}, domain.ExecOptions{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("malformed declared type gave %v, want ErrValidation", err)
	}
}

func TestSimulatorSkipsWhatMockRejects(t *testing.T) {
	// Same call shape: the mock rejects it, proving the validation
	// really is the mock's distinguishing behavior.
	b, id := newTyped(t)

	_, err := b.Execute(context.Background(), id, map[string]any{
		"question": 1, "attempts": 3, "tags": []any{},
	}, domain.ExecOptions{})
	if err == nil {
		t.Fatal("mock accepted a wire-shape violation")
	}
}

func TestMockServesBothTestTiers(t *testing.T) {
	b := New(Options{})
	defer b.Close()

	if !b.SupportsTier(domain.TierMock) {
		t.Error("mock must serve its own tier")
	}
	if !b.SupportsTier(domain.TierSimulator) {
		t.Error("mock is faithful enough to stand in for the simulator tier")
	}
	if b.SupportsTier(domain.TierRemote) {
		t.Error("mock must not claim the remote tier")
	}
}
