package exec

import (
	"fmt"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

// ModeEnvVar is the environment selector selecting an execution tier
// for the whole process. Its value is snapshotted into ResolverConfig
// by the entrypoint; resolution itself never reads the environment.
const ModeEnvVar = "BRIDGE_MODE"

// Fixed selector -> backend table. Unit tests run on the simulator,
// integration tests on the protocol mock, live traffic on the remote
// worker.
var modeBackends = map[string]string{
	"unit":        "simulator",
	"integration": "protomock",
	"live":        "remote",
}

// ResolverConfig is the immutable input to backend resolution.
type ResolverConfig struct {
	// Mode is the snapshotted value of the process-wide tier selector.
	Mode string

	// DefaultBackend is the configured default, used when neither a
	// hint nor a mode applies.
	DefaultBackend string
}

// Resolver picks a concrete backend for a call. Resolution is a pure
// function of (hint, snapshotted mode, config) and is safe for
// concurrent use.
type Resolver struct {
	registry *backend.Registry
	cfg      ResolverConfig
}

// NewResolver builds a resolver over the registry.
func NewResolver(registry *backend.Registry, cfg ResolverConfig) *Resolver {
	return &Resolver{registry: registry, cfg: cfg}
}

// Resolve applies the priority order: explicit hint, mode selector,
// configured default, hard default (remote). A name that cannot be
// located fails with a Configuration classification; resolution never
// substitutes a backend the caller named.
func (r *Resolver) Resolve(hint string) (backend.Adapter, error) {
	name := hint
	if name == "" && r.cfg.Mode != "" {
		mapped, ok := modeBackends[r.cfg.Mode]
		if !ok {
			return nil, fmt.Errorf("%w: unknown %s value %q", domain.ErrConfiguration, ModeEnvVar, r.cfg.Mode)
		}
		name = mapped
	}
	if name == "" {
		name = r.cfg.DefaultBackend
	}
	if name == "" {
		name = "remote"
	}
	return r.registry.Get(name)
}

// Registry exposes the underlying registry for fallback lookups.
func (r *Resolver) Registry() *backend.Registry { return r.registry }
