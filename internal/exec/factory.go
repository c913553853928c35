// Package exec orchestrates program execution across tiered backends.
//
// This package offers a single reliable "run an operation" surface with:
//   - Backend resolution by hint, mode selector or configured default
//   - Per-attempt deadlines
//   - Tier-dependent retry with backoff
//   - Cross-backend fallback chains
//   - Error classification into a fixed taxonomy
//
// # Quick Start
//
//	import "github.com/vietddude/bridge/internal/exec"
//
//	// Setup
//	registry := backend.NewRegistry()
//	registry.Register(simulator.New(simulator.Options{}))
//	resolver := exec.NewResolver(registry, exec.ResolverConfig{Mode: os.Getenv(exec.ModeEnvVar)})
//	factory := exec.NewFactory(resolver, nil)
//
//	// Run operations
//	res, err := factory.Run(ctx, "", exec.ExecuteOp(id, inputs, domain.ExecOptions{}),
//	    exec.DefaultPolicy(domain.TierSimulator))
//
// Every failure leaving Run is a *domain.ClassifiedError carrying the
// taxonomy kind, recovery metadata and enough context to reproduce the
// call. Raw backend faults never escape.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

// FailureRecorder receives exhausted failures for later inspection.
type FailureRecorder interface {
	Record(ctx context.Context, rec domain.FailureRecord) error
}

// NopRecorder discards failure records.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, domain.FailureRecord) error { return nil }

// RunResult is the success outcome of a Run call. Backend and Tier
// identify which backend actually served the operation.
type RunResult struct {
	Value    any
	Backend  string
	Tier     domain.Tier
	Attempts int
}

// Factory executes operations with timeouts, retries and fallback. It
// is stateless and safe for unlimited concurrent callers.
type Factory struct {
	resolver *Resolver
	journal  FailureRecorder
}

// NewFactory builds a factory. A nil journal disables failure
// recording.
func NewFactory(resolver *Resolver, journal FailureRecorder) *Factory {
	if journal == nil {
		journal = NopRecorder{}
	}
	return &Factory{resolver: resolver, journal: journal}
}

// Run resolves a backend and executes op under the policy. On failure
// it retries recoverable errors against the same backend, then walks
// the fallback chain with a fresh retry budget per backend. The error
// returned is always a *domain.ClassifiedError.
func (f *Factory) Run(ctx context.Context, hint string, op Operation, policy Policy) (RunResult, error) {
	if !policy.Tier.Valid() {
		err := fmt.Errorf("%w: invalid execution tier %q", domain.ErrConfiguration, policy.Tier)
		return RunResult{}, domain.ClassifyError(err, policy.Tier).Enrich(opContext(op, "", 0))
	}
	policy = policy.normalized()

	primary, err := f.resolver.Resolve(hint)
	if err != nil {
		return RunResult{}, domain.ClassifyError(err, policy.Tier).Enrich(opContext(op, hint, 0))
	}

	chain := []backend.Adapter{primary}
	for _, name := range policy.FallbackChain {
		if name == primary.Name() {
			continue
		}
		a, err := f.resolver.Registry().Get(name)
		if err != nil {
			return RunResult{}, domain.ClassifyError(err, policy.Tier).Enrich(opContext(op, name, 0))
		}
		chain = append(chain, a)
	}

	var last *domain.ClassifiedError
	for i, a := range chain {
		if i > 0 {
			fallbacksTotal.WithLabelValues(chain[i-1].Name(), a.Name()).Inc()
			slog.Info("falling back to next backend",
				"from", chain[i-1].Name(), "to", a.Name(), "operation", op.Name)
		}

		if !a.SupportsTier(policy.Tier) {
			if policy.Strict {
				err := fmt.Errorf("%w: backend %q does not serve tier %q",
					domain.ErrConfiguration, a.Name(), policy.Tier)
				return RunResult{}, domain.ClassifyError(err, policy.Tier).Enrich(opContext(op, a.Name(), 0))
			}
			slog.Warn("tier mismatch bypassed",
				"backend", a.Name(), "backend_tier", a.Descriptor().Tier, "requested_tier", policy.Tier)
		}

		value, attempts, ce := f.attempt(ctx, a, op, policy)
		if ce == nil {
			return RunResult{
				Value:    value,
				Backend:  a.Name(),
				Tier:     a.Descriptor().Tier,
				Attempts: attempts,
			}, nil
		}

		last = ce.Enrich(opContext(op, a.Name(), attempts))
		f.record(ctx, a, op, last, attempts)

		// Validation and Configuration surface immediately; a
		// different backend would reject the same call.
		if last.Kind == domain.KindValidation || last.Kind == domain.KindConfiguration {
			return RunResult{}, last
		}
	}

	return RunResult{}, last
}

// attempt runs op against one backend with the per-backend retry
// budget. It returns the classified error of the final attempt.
func (f *Factory) attempt(
	ctx context.Context,
	a backend.Adapter,
	op Operation,
	policy Policy,
) (any, int, *domain.ClassifiedError) {
	var (
		value    any
		final    *domain.ClassifiedError
		attempts int
	)

	backoff := retry.WithMaxRetries(uint64(policy.MaxRetries), retry.NewConstant(policy.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			retriesTotal.WithLabelValues(a.Name()).Inc()
		}
		operationsTotal.WithLabelValues(a.Name(), op.Name).Inc()

		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		defer cancel()

		start := time.Now()
		v, err := safeInvoke(attemptCtx, a, op)
		operationLatency.WithLabelValues(a.Name(), op.Name).Observe(time.Since(start).Seconds())

		if err == nil {
			value = v
			final = nil
			return nil
		}

		ce := domain.ClassifyError(err, policy.Tier)
		if override, ok := policy.RecoverOverrides[ce.Kind]; ok &&
			ce.Kind != domain.KindValidation && ce.Kind != domain.KindConfiguration {
			ce.Recoverable = override
			if ce.Recoverable && ce.RetryAfter == 0 {
				ce.RetryAfter = policy.RetryDelay
			}
		}
		failuresTotal.WithLabelValues(a.Name(), op.Name, ce.Kind.String()).Inc()
		final = ce

		if ce.Recoverable {
			return retry.RetryableError(ce)
		}
		return ce
	})

	if err == nil {
		return value, attempts, nil
	}
	if final == nil {
		// Cancelled between attempts.
		final = domain.ClassifyError(err, policy.Tier)
	}
	return nil, attempts, final
}

// safeInvoke converts a panicking backend into an execution fault so
// nothing propagates unhandled past the factory boundary.
func safeInvoke(ctx context.Context, a backend.Adapter, op Operation) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ExecutionError{Op: op.Name, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return op.Invoke(ctx, a)
}

func (f *Factory) record(
	ctx context.Context,
	a backend.Adapter,
	op Operation,
	ce *domain.ClassifiedError,
	attempts int,
) {
	rec := domain.FailureRecord{
		ID:        uuid.NewString(),
		Backend:   a.Name(),
		Tier:      a.Descriptor().Tier,
		Operation: op.Name,
		Kind:      ce.Kind.String(),
		Message:   ce.Message,
		Attempts:  attempts,
		At:        time.Now(),
	}
	// The caller's deadline may already be gone; journal writes get
	// their own short one.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := f.journal.Record(jctx, rec); err != nil {
		slog.Warn("failure journal write failed", "error", err, "backend", a.Name())
	}
}

func opContext(op Operation, backendName string, attempts int) map[string]any {
	ctx := map[string]any{
		"operation": op.Name,
		"at":        time.Now().UTC().Format(time.RFC3339Nano),
	}
	if op.Summary != "" {
		ctx["args"] = op.Summary
	}
	if backendName != "" {
		ctx["backend"] = backendName
	}
	if attempts > 0 {
		ctx["attempts"] = attempts
	}
	return ctx
}
