// Package backend defines the execution adapter contract and the
// shared stateful core the in-process backends are built on.
//
// An Adapter is one concrete way to execute programs: the fast
// deterministic simulator, the protocol-accurate mock, or the proxy to
// a real remote worker. All of them expose the same method set; the
// execution factory never branches on which one it holds.
package backend

import (
	"context"
	"time"

	"github.com/vietddude/bridge/internal/core/domain"
)

// Capability tags. Diagnostics and test-suite gating only; runtime
// behavior never branches on these.
const (
	CapDeterministicOutputs = "deterministic_outputs"
	CapProtocolValidation   = "protocol_validation"
	CapPythonExecution      = "python_execution"
	CapFaultInjection       = "fault_injection"
	CapScenarioOverrides    = "scenario_overrides"
)

// Descriptor is the static self-description of a backend.
type Descriptor struct {
	Tier            domain.Tier
	Capabilities    map[string]bool
	CompatibleTiers []domain.Tier
}

// Supports reports whether the backend is willing to serve tier.
func (d Descriptor) Supports(tier domain.Tier) bool {
	for _, t := range d.CompatibleTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Adapter is the contract every backend implementation satisfies.
type Adapter interface {
	// Name returns the registry identifier (e.g. "simulator").
	Name() string

	// Descriptor returns the static tier/capability description.
	Descriptor() Descriptor

	// SupportsTier reports whether this backend serves the tier.
	SupportsTier(tier domain.Tier) bool

	// CreateProgram registers a program and returns its id.
	CreateProgram(ctx context.Context, cfg domain.ProgramConfig) (string, error)

	// Execute runs a program against inputs and returns its outputs.
	Execute(ctx context.Context, id string, inputs map[string]any, opts domain.ExecOptions) (map[string]any, error)

	// ListPrograms returns the ids of all live programs.
	ListPrograms(ctx context.Context) ([]string, error)

	// DeleteProgram destroys a program.
	DeleteProgram(ctx context.Context, id string) error

	// ProgramInfo returns the stored record for a program.
	ProgramInfo(ctx context.Context, id string) (*domain.ProgramRecord, error)

	// HealthCheck verifies the backend is responsive.
	HealthCheck(ctx context.Context) error

	// Stats returns the observability snapshot. Side-effect free.
	Stats(ctx context.Context) (domain.Stats, error)

	// ConfigureGlobal applies backend-wide settings (e.g. model config).
	ConfigureGlobal(ctx context.Context, settings map[string]any) error

	// Reset drops all programs and zeroes counters.
	Reset(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// FaultSpec configures injected failures on a test backend. Before
// dispatching a matching operation the backend rolls Probability and,
// if it triggers, short-circuits to the configured error.
type FaultSpec struct {
	// Operation the fault applies to ("execute", "create_program", ...).
	// Empty matches every operation.
	Operation   string
	Probability float64
	Kind        domain.Kind
	Message     string

	// RetryAfter, when set, is carried into the injected error's
	// classification as the suggested backoff.
	RetryAfter time.Duration
}
