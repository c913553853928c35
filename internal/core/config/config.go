package config

import (
	"time"

	redisclient "github.com/vietddude/bridge/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Logging   LoggingConfig      `yaml:"logging"`
	Execution ExecutionConfig    `yaml:"execution"`
	Redis     redisclient.Config `yaml:"redis"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ExecutionConfig holds backend and policy settings.
type ExecutionConfig struct {
	// DefaultBackend is used when neither a caller hint nor the mode
	// selector picks one. Empty falls through to "remote".
	DefaultBackend string `yaml:"default_backend"`

	Simulator InProcessConfig `yaml:"simulator"`
	Protomock InProcessConfig `yaml:"protomock"`
	Remote    RemoteConfig    `yaml:"remote"`

	// Tiers overrides the built-in policy defaults per tier, keyed by
	// tier name ("simulator", "protomock", "remote").
	Tiers map[string]TierPolicyConfig `yaml:"tiers"`
}

// InProcessConfig configures an in-process backend instance.
type InProcessConfig struct {
	// Delay is an artificial latency applied to every operation.
	Delay time.Duration `yaml:"delay"`
}

// RemoteConfig configures the remote worker proxy. An empty endpoint
// disables the remote backend.
type RemoteConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	WorkerID      string        `yaml:"worker_id"`
	InvokeTimeout time.Duration `yaml:"invoke_timeout"`
}

// TierPolicyConfig overrides the default timeout/retry policy for a tier.
type TierPolicyConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries *int          `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}
