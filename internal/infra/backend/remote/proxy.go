package remote

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

// DefaultName is the registry identifier.
const DefaultName = "remote"

// Options configures a remote proxy.
type Options struct {
	Name          string
	WorkerID      string
	InvokeTimeout time.Duration
}

// Proxy is the stateless adapter over a started worker. It holds only
// immutable fields (the collaborator and the worker handle), so it
// needs no locking; serialization guarantees belong to the
// collaborator.
type Proxy struct {
	name          string
	collab        Collaborator
	handle        Handle
	invokeTimeout time.Duration
	descriptor    backend.Descriptor
}

var _ backend.Adapter = (*Proxy)(nil)

// New starts the worker and returns the proxy bound to its handle.
func New(ctx context.Context, collab Collaborator, opts Options) (*Proxy, error) {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	workerID := opts.WorkerID
	if workerID == "" {
		workerID = name
	}
	invokeTimeout := opts.InvokeTimeout
	if invokeTimeout == 0 {
		invokeTimeout = 30 * time.Second
	}

	handle, err := collab.Start(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("remote backend %s: %w", name, err)
	}

	return &Proxy{
		name:          name,
		collab:        collab,
		handle:        handle,
		invokeTimeout: invokeTimeout,
		descriptor: backend.Descriptor{
			Tier: domain.TierRemote,
			Capabilities: map[string]bool{
				backend.CapPythonExecution: true,
			},
			CompatibleTiers: []domain.Tier{
				domain.TierRemote, domain.TierMock, domain.TierSimulator,
			},
		},
	}, nil
}

// Name returns the registry identifier.
func (p *Proxy) Name() string { return p.name }

// Descriptor returns the static tier/capability description.
func (p *Proxy) Descriptor() backend.Descriptor { return p.descriptor }

// SupportsTier reports whether the remote backend serves the tier.
func (p *Proxy) SupportsTier(tier domain.Tier) bool { return p.descriptor.Supports(tier) }

func (p *Proxy) invoke(ctx context.Context, command string, args map[string]any) (any, error) {
	wire, err := structpb.NewStruct(args)
	if err != nil {
		return nil, fmt.Errorf("%w: args for %s not wire-encodable: %v", domain.ErrValidation, command, err)
	}
	out, err := p.collab.Invoke(ctx, p.handle, command, wire, p.invokeTimeout)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out.AsInterface(), nil
}

func (p *Proxy) invokeMap(ctx context.Context, command string, args map[string]any) (map[string]any, error) {
	out, err := p.invoke(ctx, command, args)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, &domain.ExecutionError{Op: command, Message: fmt.Sprintf("unexpected result shape %T", out)}
	}
	return m, nil
}

// CreateProgram registers a program on the worker.
func (p *Proxy) CreateProgram(ctx context.Context, cfg domain.ProgramConfig) (string, error) {
	args := map[string]any{"signature": signatureToWire(cfg.Signature)}
	if cfg.ID != "" {
		args["id"] = cfg.ID
	}
	if len(cfg.Metadata) > 0 {
		args["metadata"] = cfg.Metadata
	}
	m, err := p.invokeMap(ctx, backend.OpCreate, args)
	if err != nil {
		return "", err
	}
	id, ok := m["program_id"].(string)
	if !ok {
		return "", &domain.ExecutionError{Op: backend.OpCreate, Message: "worker returned no program_id"}
	}
	return id, nil
}

// Execute runs a program on the worker.
func (p *Proxy) Execute(
	ctx context.Context,
	id string,
	inputs map[string]any,
	opts domain.ExecOptions,
) (map[string]any, error) {
	args := map[string]any{"program_id": id, "inputs": inputs}
	if opts.SessionID != "" {
		args["session_id"] = opts.SessionID
	}
	if opts.Timeout > 0 {
		args["timeout_ms"] = opts.Timeout.Milliseconds()
	}
	m, err := p.invokeMap(ctx, backend.OpExecute, args)
	if err != nil {
		return nil, err
	}
	if outputs, ok := m["outputs"].(map[string]any); ok {
		return outputs, nil
	}
	return m, nil
}

// ListPrograms returns live program ids on the worker.
func (p *Proxy) ListPrograms(ctx context.Context) ([]string, error) {
	m, err := p.invokeMap(ctx, backend.OpList, map[string]any{})
	if err != nil {
		return nil, err
	}
	raw, _ := m["program_ids"].([]any)
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// DeleteProgram destroys a program on the worker.
func (p *Proxy) DeleteProgram(ctx context.Context, id string) error {
	_, err := p.invoke(ctx, backend.OpDelete, map[string]any{"program_id": id})
	return err
}

// ProgramInfo returns the worker's record for a program.
func (p *Proxy) ProgramInfo(ctx context.Context, id string) (*domain.ProgramRecord, error) {
	m, err := p.invokeMap(ctx, backend.OpInfo, map[string]any{"program_id": id})
	if err != nil {
		return nil, err
	}
	rec := &domain.ProgramRecord{ID: id}
	if s, ok := m["program_id"].(string); ok {
		rec.ID = s
	}
	if n, ok := m["invocation_count"].(float64); ok {
		rec.InvocationCount = int(n)
	}
	if s, ok := m["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			rec.CreatedAt = t
		}
	}
	rec.Signature = signatureFromWire(m["signature"])
	return rec, nil
}

// HealthCheck pings the worker.
func (p *Proxy) HealthCheck(ctx context.Context) error {
	_, err := p.invoke(ctx, backend.OpPing, map[string]any{})
	return err
}

// Stats returns the worker's counters.
func (p *Proxy) Stats(ctx context.Context) (domain.Stats, error) {
	m, err := p.invokeMap(ctx, backend.OpStats, map[string]any{})
	if err != nil {
		return domain.Stats{}, err
	}
	asInt := func(key string) int64 {
		if n, ok := m[key].(float64); ok {
			return int64(n)
		}
		return 0
	}
	return domain.Stats{
		RequestsTotal:  asInt("requests_total"),
		Successes:      asInt("successes"),
		Failures:       asInt("failures"),
		ProgramsActive: asInt("programs_active"),
	}, nil
}

// ConfigureGlobal forwards backend-wide settings to the worker.
func (p *Proxy) ConfigureGlobal(ctx context.Context, settings map[string]any) error {
	_, err := p.invoke(ctx, backend.OpConfigure, settings)
	return err
}

// Reset forwards the reset command to the worker.
func (p *Proxy) Reset(ctx context.Context) error {
	_, err := p.invoke(ctx, backend.OpReset, map[string]any{})
	return err
}

// Close stops the worker and releases the transport.
func (p *Proxy) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stopErr := p.collab.Stop(ctx, p.handle)
	if err := p.collab.Close(); err != nil && stopErr == nil {
		stopErr = err
	}
	return stopErr
}

func signatureToWire(sig domain.Signature) map[string]any {
	fields := func(fs []domain.Field) []any {
		out := make([]any, len(fs))
		for i, f := range fs {
			m := map[string]any{"name": f.Name, "type": f.Type}
			if f.Description != "" {
				m["description"] = f.Description
			}
			out[i] = m
		}
		return out
	}
	wire := map[string]any{
		"inputs":  fields(sig.Inputs),
		"outputs": fields(sig.Outputs),
	}
	if sig.Description != "" {
		wire["description"] = sig.Description
	}
	return wire
}

func signatureFromWire(v any) domain.Signature {
	m, ok := v.(map[string]any)
	if !ok {
		return domain.Signature{}
	}
	fields := func(v any) []domain.Field {
		items, _ := v.([]any)
		out := make([]domain.Field, 0, len(items))
		for _, item := range items {
			fm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			f := domain.Field{}
			f.Name, _ = fm["name"].(string)
			f.Type, _ = fm["type"].(string)
			f.Description, _ = fm["description"].(string)
			out = append(out, f)
		}
		return out
	}
	sig := domain.Signature{
		Inputs:  fields(m["inputs"]),
		Outputs: fields(m["outputs"]),
	}
	sig.Description, _ = m["description"].(string)
	return sig
}
