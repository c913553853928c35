// Package control assembles the bridge: it builds the backend
// registry from configuration, wires the execution factory and the
// failure journal, and serves the health/stats/metrics endpoints.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/bridge/internal/core/config"
	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/exec"
	"github.com/vietddude/bridge/internal/infra/backend"
	"github.com/vietddude/bridge/internal/infra/backend/protomock"
	"github.com/vietddude/bridge/internal/infra/backend/remote"
	"github.com/vietddude/bridge/internal/infra/backend/simulator"
	redisclient "github.com/vietddude/bridge/internal/infra/redis"
)

// Config is the assembled runtime configuration.
type Config struct {
	Port      int
	Mode      string // snapshotted tier selector (exec.ModeEnvVar)
	Execution config.ExecutionConfig
	Redis     redisclient.Config
}

// Bridge owns the backends, factory and HTTP surface.
type Bridge struct {
	cfg      Config
	registry *backend.Registry
	resolver *exec.Resolver
	factory  *exec.Factory
	redis    *redisclient.Client
	server   *http.Server
}

// New builds the bridge from configuration. The remote backend is
// only registered when an endpoint is configured.
func New(ctx context.Context, cfg Config) (*Bridge, error) {
	registry := backend.NewRegistry()

	if err := registry.Register(simulator.New(simulator.Options{
		Delay: cfg.Execution.Simulator.Delay,
	})); err != nil {
		return nil, err
	}
	if err := registry.Register(protomock.New(protomock.Options{
		Delay: cfg.Execution.Protomock.Delay,
	})); err != nil {
		return nil, err
	}

	if cfg.Execution.Remote.Endpoint != "" {
		collab, err := remote.NewGRPCCollaborator(ctx, cfg.Execution.Remote.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("remote collaborator: %w", err)
		}
		proxy, err := remote.New(ctx, collab, remote.Options{
			WorkerID:      cfg.Execution.Remote.WorkerID,
			InvokeTimeout: cfg.Execution.Remote.InvokeTimeout,
		})
		if err != nil {
			collab.Close()
			return nil, fmt.Errorf("remote backend: %w", err)
		}
		if err := registry.Register(proxy); err != nil {
			return nil, err
		}
	} else {
		slog.Info("remote backend disabled, no endpoint configured")
	}

	resolver := exec.NewResolver(registry, exec.ResolverConfig{
		Mode:           cfg.Mode,
		DefaultBackend: cfg.Execution.DefaultBackend,
	})

	var journal exec.FailureRecorder
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failure journal: %w", err)
		}
		redisClient = client
		journal = redisclient.NewFailureJournal(client)
		slog.Info("failure journal enabled")
	}

	b := &Bridge{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		factory:  exec.NewFactory(resolver, journal),
		redis:    redisClient,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", b.handleHealth)
	mux.HandleFunc("/stats", b.handleStats)
	mux.Handle("/metrics", promhttp.Handler())
	b.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	return b, nil
}

// Factory returns the execution factory.
func (b *Bridge) Factory() *exec.Factory { return b.factory }

// Registry returns the backend registry.
func (b *Bridge) Registry() *backend.Registry { return b.registry }

// PolicyFor returns the tier's default policy with config overrides
// applied.
func (b *Bridge) PolicyFor(tier domain.Tier) exec.Policy {
	p := exec.DefaultPolicy(tier)
	override, ok := b.cfg.Execution.Tiers[string(tier)]
	if !ok {
		return p
	}
	if override.Timeout > 0 {
		p.Timeout = override.Timeout
	}
	if override.MaxRetries != nil {
		p.MaxRetries = *override.MaxRetries
	}
	if override.RetryDelay > 0 {
		p.RetryDelay = override.RetryDelay
	}
	return p
}

// Start serves the HTTP surface until the context is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	go func() {
		slog.Info("bridge listening", "addr", b.server.Addr)
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down.
func (b *Bridge) Stop(ctx context.Context) error {
	var first error
	if err := b.server.Shutdown(ctx); err != nil {
		first = err
	}
	if err := b.registry.CloseAll(); err != nil && first == nil {
		first = err
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	detail := make(map[string]string)
	for _, name := range b.registry.Names() {
		a, err := b.registry.Get(name)
		if err != nil {
			continue
		}
		if err := a.HealthCheck(ctx); err != nil {
			status = "degraded"
			detail[name] = err.Error()
		} else {
			detail[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]any{"status": status, "backends": detail})
}

func (b *Bridge) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats := make(map[string]domain.Stats)
	for _, name := range b.registry.Names() {
		a, err := b.registry.Get(name)
		if err != nil {
			continue
		}
		s, err := a.Stats(ctx)
		if err != nil {
			slog.Warn("stats query failed", "backend", name, "error", err)
			continue
		}
		stats[name] = s
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
