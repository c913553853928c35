package backend

import (
	"errors"
	"testing"

	"github.com/vietddude/bridge/internal/core/domain"
)

type stubAdapter struct {
	Adapter
	name   string
	closed bool
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Close() error {
	s.closed = true
	return nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	a := &stubAdapter{name: "simulator"}
	if err := r.Register(a); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := r.Get("simulator")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != Adapter(a) {
		t.Error("lookup returned a different adapter")
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubAdapter{name: "simulator"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(&stubAdapter{name: "simulator"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("duplicate register gave %v, want configuration error", err)
	}
}

func TestRegistryMissingNameNeverSubstitutes(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubAdapter{name: "simulator"})

	a, err := r.Get("protomock")
	if a != nil {
		t.Error("lookup substituted a backend")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing name gave %v, want configuration error", err)
	}
}

func TestRegistryNamesKeepOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"simulator", "protomock", "remote"} {
		_ = r.Register(&stubAdapter{name: name})
	}
	names := r.Names()
	want := []string{"simulator", "protomock", "remote"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	a := &stubAdapter{name: "a"}
	b := &stubAdapter{name: "b"}
	_ = r.Register(a)
	_ = r.Register(b)

	if err := r.CloseAll(); err != nil {
		t.Fatalf("close all: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("not every backend was closed")
	}
}

func TestDeterministicOutputs(t *testing.T) {
	sig := domain.Signature{
		Outputs: []domain.Field{
			{Name: "answer", Type: "str"},
			{Name: "count", Type: "int"},
			{Name: "score", Type: "float"},
			{Name: "ok", Type: "bool"},
		},
	}
	inputs := map[string]any{"question": "why", "depth": 2}

	first := generateOutputs("prog_1", sig, inputs, nil)
	second := generateOutputs("prog_1", sig, inputs, nil)
	for name := range first {
		if first[name] != second[name] {
			t.Errorf("output %q not stable: %v vs %v", name, first[name], second[name])
		}
	}

	if _, ok := first["count"].(int); !ok {
		t.Errorf("count is %T, want int", first["count"])
	}
	score, ok := first["score"].(float64)
	if !ok || score < 0 || score >= 1 {
		t.Errorf("score = %v, want float64 in [0,1)", first["score"])
	}
	if _, ok := first["ok"].(bool); !ok {
		t.Errorf("ok is %T, want bool", first["ok"])
	}

	other := generateOutputs("prog_1", sig, map[string]any{"question": "how", "depth": 2}, nil)
	if first["answer"] == other["answer"] {
		t.Error("different inputs produced the same answer")
	}

	overridden := generateOutputs("prog_1", sig, inputs, map[string]any{"answer": "forced"})
	if overridden["answer"] != "forced" {
		t.Errorf("scenario override lost: %v", overridden["answer"])
	}
	if overridden["count"] != first["count"] {
		t.Error("override leaked into other fields")
	}
}
