package domain

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		expect Kind
	}{
		{fmt.Errorf("create failed: %w", ErrConfiguration), KindConfiguration},
		{fmt.Errorf("bad input: %w", ErrValidation), KindValidation},
		{fmt.Errorf("lookup: %w", ErrProgramNotFound), KindResource},
		{context.DeadlineExceeded, KindTimeout},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{syscall.ECONNREFUSED, KindConnection},
		{fmt.Errorf("dial: %w", syscall.ECONNRESET), KindConnection},
		{&ExecutionError{Op: "execute_program", Message: "worker raised"}, KindExecution},
		{status.Error(codes.Unavailable, "transport closing"), KindConnection},
		{status.Error(codes.DeadlineExceeded, "deadline"), KindTimeout},
		{status.Error(codes.NotFound, "no such program"), KindResource},
		{status.Error(codes.InvalidArgument, "bad signature"), KindValidation},
		{status.Error(codes.Internal, "worker fault"), KindExecution},
		{errors.New("read tcp: connection reset by peer"), KindConnection},
		{errors.New("rpc timeout waiting for worker"), KindTimeout},
		{errors.New("program does not exist"), KindResource},
		{errors.New("missing required field question"), KindValidation},
		{errors.New("something inexplicable"), KindUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expect {
			t.Errorf("Classify(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestRecoverableMatrix(t *testing.T) {
	tests := []struct {
		kind   Kind
		tier   Tier
		expect bool
	}{
		{KindValidation, TierRemote, false},
		{KindValidation, TierSimulator, false},
		{KindConfiguration, TierRemote, false},
		{KindConnection, TierRemote, true},
		{KindConnection, TierMock, true},
		{KindConnection, TierSimulator, false},
		{KindTimeout, TierRemote, true},
		{KindTimeout, TierMock, true},
		// The simulator is deterministic; a timeout there is a caller
		// bug and must surface.
		{KindTimeout, TierSimulator, false},
		{KindExecution, TierRemote, false},
		{KindResource, TierRemote, false},
		{KindUnknown, TierRemote, false},
	}

	for _, tt := range tests {
		if got := Recoverable(tt.kind, tt.tier); got != tt.expect {
			t.Errorf("Recoverable(%v, %v) = %v, want %v", tt.kind, tt.tier, got, tt.expect)
		}
	}
}

func TestClassifyError(t *testing.T) {
	ce := ClassifyError(fmt.Errorf("dial: %w", syscall.ECONNREFUSED), TierMock)
	if ce.Kind != KindConnection {
		t.Fatalf("kind = %v, want connection", ce.Kind)
	}
	if !ce.Recoverable {
		t.Error("connection under mock tier should be recoverable")
	}
	if ce.RetryAfter != RetryDelay(TierMock) {
		t.Errorf("retry after = %v, want %v", ce.RetryAfter, RetryDelay(TierMock))
	}
	if !errors.Is(ce, syscall.ECONNREFUSED) {
		t.Error("classified error should unwrap to its cause")
	}

	// Already-classified errors keep their kind but re-derive
	// recoverability for the new tier.
	again := ClassifyError(ce, TierSimulator)
	if again.Kind != KindConnection {
		t.Errorf("kind changed on reclassification: %v", again.Kind)
	}
	if again.Recoverable {
		t.Error("connection under simulator tier must not be recoverable")
	}
}

func TestEnrichDoesNotMutate(t *testing.T) {
	base := &ClassifiedError{
		Kind:    KindExecution,
		Message: "boom",
		Context: map[string]any{"operation": "execute_program"},
	}
	enriched := base.Enrich(map[string]any{"backend": "simulator", "operation": "overridden"})

	if len(base.Context) != 1 || base.Context["operation"] != "execute_program" {
		t.Errorf("original context mutated: %v", base.Context)
	}
	if enriched.Context["backend"] != "simulator" || enriched.Context["operation"] != "overridden" {
		t.Errorf("enriched context wrong: %v", enriched.Context)
	}
	if enriched.Kind != base.Kind || enriched.Message != base.Message {
		t.Error("enrich changed error identity")
	}
}
