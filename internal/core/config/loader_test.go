package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
logging:
  level: debug
  format: text
execution:
  default_backend: protomock
  simulator:
    delay: 5ms
  remote:
    endpoint: localhost:50051
    worker_id: worker-1
    invoke_timeout: 10s
  tiers:
    remote:
      timeout: 45s
      max_retries: 5
      retry_delay: 2s
redis:
  url: redis://localhost:6379/0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Execution.DefaultBackend != "protomock" {
		t.Errorf("default backend = %q", cfg.Execution.DefaultBackend)
	}
	if cfg.Execution.Simulator.Delay != 5*time.Millisecond {
		t.Errorf("simulator delay = %v", cfg.Execution.Simulator.Delay)
	}
	if cfg.Execution.Remote.Endpoint != "localhost:50051" || cfg.Execution.Remote.WorkerID != "worker-1" {
		t.Errorf("remote = %+v", cfg.Execution.Remote)
	}
	tier, ok := cfg.Execution.Tiers["remote"]
	if !ok {
		t.Fatal("missing remote tier override")
	}
	if tier.Timeout != 45*time.Second || tier.MaxRetries == nil || *tier.MaxRetries != 5 || tier.RetryDelay != 2*time.Second {
		t.Errorf("tier override = %+v", tier)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("redis url = %q", cfg.Redis.URL)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
execution:
  default_backend: simulator
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Execution.Remote.WorkerID != "bridge-worker" {
		t.Errorf("default worker id = %q", cfg.Execution.Remote.WorkerID)
	}
	if cfg.Execution.Remote.Endpoint != "" {
		t.Errorf("remote endpoint should stay empty, got %q", cfg.Execution.Remote.Endpoint)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("GRPC_ENDPOINT", "worker.internal:443")
	t.Setenv("REDIS_PASSWORD", "s3cret")

	path := writeConfig(t, `
execution:
  remote:
    endpoint: ${GRPC_ENDPOINT}
redis:
  url: redis://localhost:6379
  password: ${REDIS_PASSWORD}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Execution.Remote.Endpoint != "worker.internal:443" {
		t.Errorf("endpoint = %q", cfg.Execution.Remote.Endpoint)
	}
	if cfg.Redis.Password != "s3cret" {
		t.Errorf("password not expanded")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
