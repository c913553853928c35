package exec

import (
	"time"

	"github.com/vietddude/bridge/internal/core/domain"
)

// Policy carries the reliability knobs for one Run call. Zero values
// fall back to the tier defaults below.
type Policy struct {
	// Tier is the execution tier the caller wants served.
	Tier domain.Tier

	// Timeout bounds a single backend attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the initial attempt
	// against one backend.
	MaxRetries int

	// RetryDelay overrides the tier-default backoff between retries.
	RetryDelay time.Duration

	// FallbackChain names backends to try, in order, after the
	// resolved backend exhausts its retries.
	FallbackChain []string

	// Strict makes a tier mismatch fail fast with Configuration.
	// When false the mismatch is logged and bypassed, a deliberate
	// relaxation for cross-tier testing.
	Strict bool

	// RecoverOverrides forces recoverability per kind, e.g. marking
	// Execution recoverable for an idempotent read. Validation and
	// Configuration stay non-recoverable regardless.
	RecoverOverrides map[domain.Kind]bool
}

// DefaultPolicy returns the static per-tier defaults.
func DefaultPolicy(tier domain.Tier) Policy {
	p := Policy{Tier: tier, Strict: true}
	switch tier {
	case domain.TierSimulator:
		p.Timeout = 1 * time.Second
		p.MaxRetries = 0
	case domain.TierMock:
		p.Timeout = 5 * time.Second
		p.MaxRetries = 2
	default:
		p.Timeout = 30 * time.Second
		p.MaxRetries = 3
	}
	return p
}

// normalized fills zero fields from the tier defaults.
func (p Policy) normalized() Policy {
	if !p.Tier.Valid() {
		return p
	}
	def := DefaultPolicy(p.Tier)
	if p.Timeout == 0 {
		p.Timeout = def.Timeout
	}
	if p.RetryDelay <= 0 {
		p.RetryDelay = domain.RetryDelay(p.Tier)
	}
	return p
}
