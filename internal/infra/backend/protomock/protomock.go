// Package protomock implements the protocol-accurate mock backend.
// It behaves like the simulator but additionally validates that every
// execution input conforms to the wire type its program signature
// declares, which is its reason to exist as a separate tier.
package protomock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/core/schema"
	"github.com/vietddude/bridge/internal/infra/backend"
)

// DefaultName is the registry identifier.
const DefaultName = "protomock"

// Options configures a protocol mock instance.
type Options struct {
	Name  string
	Delay time.Duration
}

// Backend is the protocol mock adapter.
type Backend struct {
	*backend.Core
	descriptor backend.Descriptor
}

var _ backend.Adapter = (*Backend)(nil)

// New starts a protocol mock backend.
func New(opts Options) *Backend {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	b := &Backend{
		Core: backend.NewCore(name),
		descriptor: backend.Descriptor{
			Tier: domain.TierMock,
			Capabilities: map[string]bool{
				backend.CapDeterministicOutputs: true,
				backend.CapProtocolValidation:   true,
				backend.CapFaultInjection:       true,
				backend.CapScenarioOverrides:    true,
			},
			// The mock is faithful enough to stand in for the fast tier.
			CompatibleTiers: []domain.Tier{domain.TierMock, domain.TierSimulator},
		},
	}
	if opts.Delay > 0 {
		_ = b.SetDelay(context.Background(), opts.Delay)
	}
	return b
}

// Descriptor returns the static tier/capability description.
func (b *Backend) Descriptor() backend.Descriptor { return b.descriptor }

// SupportsTier reports whether the mock serves the tier.
func (b *Backend) SupportsTier(tier domain.Tier) bool { return b.descriptor.Supports(tier) }

// Execute runs a program after checking each input against the wire
// type declared for it.
func (b *Backend) Execute(
	ctx context.Context,
	id string,
	inputs map[string]any,
	opts domain.ExecOptions,
) (map[string]any, error) {
	return b.ExecuteProgram(ctx, id, inputs, validateWireShapes)
}

func validateWireShapes(rec *domain.ProgramRecord, inputs map[string]any) error {
	for _, f := range rec.Signature.Inputs {
		d, err := schema.FromWire(f.Type)
		if err != nil {
			if errors.Is(err, schema.ErrDescriptorParse) {
				return fmt.Errorf("%w: input %q declares %q: %v", domain.ErrValidation, f.Name, f.Type, err)
			}
			return err
		}
		if err := schema.Validate(inputs[f.Name], d, domain.TierMock); err != nil {
			return fmt.Errorf("input %q: %w", f.Name, err)
		}
	}
	return nil
}
