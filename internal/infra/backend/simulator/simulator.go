// Package simulator implements the fast deterministic backend. It
// holds programs in memory, answers from a hash of the inputs, and
// skips wire-shape validation entirely so unit-tier tests stay cheap.
package simulator

import (
	"context"
	"time"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

// DefaultName is the registry identifier.
const DefaultName = "simulator"

// Options configures a simulator instance.
type Options struct {
	// Name overrides the registry identifier. Empty means DefaultName.
	Name string

	// Delay is an artificial latency applied before every operation.
	Delay time.Duration
}

// Backend is the simulator adapter.
type Backend struct {
	*backend.Core
	descriptor backend.Descriptor
}

var _ backend.Adapter = (*Backend)(nil)

// New starts a simulator backend.
func New(opts Options) *Backend {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	b := &Backend{
		Core: backend.NewCore(name),
		descriptor: backend.Descriptor{
			Tier: domain.TierSimulator,
			Capabilities: map[string]bool{
				backend.CapDeterministicOutputs: true,
				backend.CapFaultInjection:       true,
				backend.CapScenarioOverrides:    true,
			},
			CompatibleTiers: []domain.Tier{domain.TierSimulator},
		},
	}
	if opts.Delay > 0 {
		// Core just started; the admin call cannot block for long.
		_ = b.SetDelay(context.Background(), opts.Delay)
	}
	return b
}

// Descriptor returns the static tier/capability description.
func (b *Backend) Descriptor() backend.Descriptor { return b.descriptor }

// SupportsTier reports whether the simulator serves the tier.
func (b *Backend) SupportsTier(tier domain.Tier) bool { return b.descriptor.Supports(tier) }

// Execute runs a program without any wire-shape validation.
func (b *Backend) Execute(
	ctx context.Context,
	id string,
	inputs map[string]any,
	opts domain.ExecOptions,
) (map[string]any, error) {
	return b.ExecuteProgram(ctx, id, inputs, nil)
}
