package exec

import (
	"errors"
	"testing"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

func testRegistry(t *testing.T) *backend.Registry {
	t.Helper()
	r := backend.NewRegistry()
	for _, name := range []string{"simulator", "protomock", "remote"} {
		fb := &fakeBackend{name: name, tier: domain.TierMock}
		if err := r.Register(fb); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return r
}

func TestResolvePriority(t *testing.T) {
	registry := testRegistry(t)

	tests := []struct {
		name string
		cfg  ResolverConfig
		hint string
		want string
	}{
		{"hint beats everything", ResolverConfig{Mode: "unit", DefaultBackend: "protomock"}, "remote", "remote"},
		{"mode beats default", ResolverConfig{Mode: "integration", DefaultBackend: "simulator"}, "", "protomock"},
		{"unit mode picks simulator", ResolverConfig{Mode: "unit"}, "", "simulator"},
		{"live mode picks remote", ResolverConfig{Mode: "live"}, "", "remote"},
		{"default when no mode", ResolverConfig{DefaultBackend: "protomock"}, "", "protomock"},
		{"remote is the hard default", ResolverConfig{}, "", "remote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(registry, tt.cfg)
			a, err := r.Resolve(tt.hint)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if a.Name() != tt.want {
				t.Errorf("resolved %q, want %q", a.Name(), tt.want)
			}
		})
	}
}

func TestResolveNeverSubstitutes(t *testing.T) {
	registry := backend.NewRegistry()
	_ = registry.Register(&fakeBackend{name: "simulator", tier: domain.TierSimulator})

	r := NewResolver(registry, ResolverConfig{})
	if _, err := r.Resolve("protomock"); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("unregistered hint gave %v, want configuration error", err)
	}

	// Even when the named backend is missing and another is registered,
	// resolution fails rather than handing back a different one.
	if _, err := r.Resolve(""); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing hard default gave %v, want configuration error", err)
	}
}

func TestResolveUnknownMode(t *testing.T) {
	r := NewResolver(testRegistry(t), ResolverConfig{Mode: "staging"})
	_, err := r.Resolve("")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("unknown mode gave %v, want configuration error", err)
	}
}
