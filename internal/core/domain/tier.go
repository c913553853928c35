package domain

import "fmt"

// Tier identifies the fidelity level a backend serves.
// Simulator is fast and deterministic, Mock is protocol-accurate,
// Remote talks to a real worker process.
type Tier string

const (
	TierSimulator Tier = "simulator"
	TierMock      Tier = "protomock"
	TierRemote    Tier = "remote"
)

// AllTiers lists tiers in ascending fidelity order.
var AllTiers = []Tier{TierSimulator, TierMock, TierRemote}

// ParseTier converts a config/env string into a Tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierSimulator, TierMock, TierRemote:
		return Tier(s), nil
	}
	return "", fmt.Errorf("%w: unknown tier %q", ErrConfiguration, s)
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierSimulator, TierMock, TierRemote:
		return true
	}
	return false
}
