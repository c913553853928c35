package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

func qaSignature() domain.Signature {
	return domain.Signature{
		Inputs:  []domain.Field{{Name: "question", Type: "str"}},
		Outputs: []domain.Field{{Name: "answer", Type: "str"}},
	}
}

func newQA(t *testing.T) (*Backend, string) {
	t.Helper()
	b := New(Options{})
	t.Cleanup(func() { b.Close() })

	id, err := b.CreateProgram(context.Background(), domain.ProgramConfig{Signature: qaSignature()})
	if err != nil {
		t.Fatalf("create program: %v", err)
	}
	return b, id
}

func TestDeterministicOutputs(t *testing.T) {
	b, id := newQA(t)
	ctx := context.Background()

	first, err := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	second, err := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if first["answer"] != second["answer"] {
		t.Errorf("same inputs diverged: %v vs %v", first["answer"], second["answer"])
	}

	other, err := b.Execute(ctx, id, map[string]any{"question": "y"}, domain.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if other["answer"] == first["answer"] {
		t.Errorf("different inputs collided on %v", first["answer"])
	}
}

func TestTypedOutputs(t *testing.T) {
	b := New(Options{})
	defer b.Close()
	ctx := context.Background()

	id, err := b.CreateProgram(ctx, domain.ProgramConfig{Signature: domain.Signature{
		Inputs: []domain.Field{{Name: "q", Type: "str"}},
		Outputs: []domain.Field{
			{Name: "text", Type: "str"},
			{Name: "count", Type: "int"},
			{Name: "score", Type: "float"},
			{Name: "flag", Type: "bool"},
		},
	}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := b.Execute(ctx, id, map[string]any{"q": "hello"}, domain.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := out["text"].(string); !ok {
		t.Errorf("text is %T, want string", out["text"])
	}
	if _, ok := out["count"].(int); !ok {
		t.Errorf("count is %T, want int", out["count"])
	}
	score, ok := out["score"].(float64)
	if !ok || score < 0 || score >= 1 {
		t.Errorf("score = %v (%T), want float64 in [0,1)", out["score"], out["score"])
	}
	if _, ok := out["flag"].(bool); !ok {
		t.Errorf("flag is %T, want bool", out["flag"])
	}
}

func TestUnknownProgramIsResource(t *testing.T) {
	b, _ := newQA(t)

	_, err := b.Execute(context.Background(), "prog_missing", map[string]any{"question": "x"}, domain.ExecOptions{})
	if err == nil {
		t.Fatal("expected error for unknown program")
	}
	if kind := domain.Classify(err); kind != domain.KindResource {
		t.Errorf("Classify = %v, want resource", kind)
	}
}

func TestMissingInputIsValidation(t *testing.T) {
	b, id := newQA(t)

	_, err := b.Execute(context.Background(), id, map[string]any{}, domain.ExecOptions{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing input gave %v, want ErrValidation", err)
	}
}

func TestScenarioOverride(t *testing.T) {
	b, id := newQA(t)
	ctx := context.Background()

	if err := b.SetScenario(ctx, "answer", "forty-two"); err != nil {
		t.Fatalf("set scenario: %v", err)
	}
	out, err := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out["answer"] != "forty-two" {
		t.Errorf("answer = %v, want scenario override", out["answer"])
	}
}

func TestFaultInjection(t *testing.T) {
	b, id := newQA(t)
	ctx := context.Background()

	err := b.SetFault(ctx, backend.FaultSpec{
		Operation:   backend.OpExecute,
		Probability: 1.0,
		Kind:        domain.KindConnection,
		Message:     "injected outage",
	})
	if err != nil {
		t.Fatalf("set fault: %v", err)
	}

	_, execErr := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{})
	if execErr == nil {
		t.Fatal("expected injected fault")
	}
	if kind := domain.Classify(execErr); kind != domain.KindConnection {
		t.Errorf("Classify = %v, want connection", kind)
	}

	// Faults target only their operation.
	if _, err := b.ListPrograms(ctx); err != nil {
		t.Errorf("list should not be affected: %v", err)
	}

	if err := b.ClearFaults(ctx); err != nil {
		t.Fatalf("clear faults: %v", err)
	}
	if _, err := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{}); err != nil {
		t.Errorf("execute after clear: %v", err)
	}
}

func TestLifecycleAndStats(t *testing.T) {
	b, id := newQA(t)
	ctx := context.Background()

	ids, err := b.ListPrograms(ctx)
	if err != nil || len(ids) != 1 || ids[0] != id {
		t.Fatalf("list = %v, %v", ids, err)
	}

	if _, err := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	info, err := b.ProgramInfo(ctx, id)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.InvocationCount != 1 {
		t.Errorf("invocation count = %d, want 1", info.InvocationCount)
	}

	if err := b.DeleteProgram(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.DeleteProgram(ctx, id); !errors.Is(err, domain.ErrProgramNotFound) {
		t.Errorf("double delete gave %v, want ErrProgramNotFound", err)
	}

	stats, err := b.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ProgramsActive != 0 {
		t.Errorf("programs active = %d, want 0", stats.ProgramsActive)
	}
	// create + list + execute + info + delete + failed delete
	if stats.RequestsTotal != 6 {
		t.Errorf("requests total = %d, want 6", stats.RequestsTotal)
	}
	if stats.Failures != 1 {
		t.Errorf("failures = %d, want 1", stats.Failures)
	}
}

func TestReset(t *testing.T) {
	b, id := newQA(t)
	ctx := context.Background()

	if err := b.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := b.Execute(ctx, id, map[string]any{"question": "x"}, domain.ExecOptions{}); !errors.Is(err, domain.ErrProgramNotFound) {
		t.Errorf("program survived reset: %v", err)
	}
	stats, err := b.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	// Only the post-reset failed execute is counted.
	if stats.RequestsTotal != 1 {
		t.Errorf("requests after reset = %d, want 1", stats.RequestsTotal)
	}
}

func TestConcurrentCallersSerialized(t *testing.T) {
	b, id := newQA(t)
	ctx := context.Background()

	const callers = 16
	const perCaller = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers*perCaller)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				inputs := map[string]any{"question": fmt.Sprintf("%d-%d", n, j)}
				if _, err := b.Execute(ctx, id, inputs, domain.ExecOptions{}); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent execute: %v", err)
	}

	// Stats first: ProgramInfo is itself a counted request.
	stats, err := b.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	// create + executions; no call was torn or lost.
	if stats.RequestsTotal != int64(callers*perCaller)+1 {
		t.Errorf("requests = %d, want %d", stats.RequestsTotal, callers*perCaller+1)
	}

	info, err := b.ProgramInfo(ctx, id)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.InvocationCount != callers*perCaller {
		t.Errorf("invocation count = %d, want %d", info.InvocationCount, callers*perCaller)
	}
}

func TestSupportsTier(t *testing.T) {
	b := New(Options{})
	defer b.Close()

	if !b.SupportsTier(domain.TierSimulator) {
		t.Error("simulator must serve the simulator tier")
	}
	if b.SupportsTier(domain.TierRemote) {
		t.Error("simulator must not claim the remote tier")
	}
	if !b.Descriptor().Capabilities[backend.CapDeterministicOutputs] {
		t.Error("simulator should advertise deterministic outputs")
	}
}
