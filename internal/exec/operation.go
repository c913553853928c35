package exec

import (
	"context"

	"github.com/vietddude/bridge/internal/core/domain"
	"github.com/vietddude/bridge/internal/infra/backend"
)

// Operation is one adapter-contract call, abstracted so the factory
// can retry and fail it over without knowing which method it wraps.
type Operation struct {
	// Name identifies the operation for metrics, faults and journal
	// entries (e.g. "execute_program").
	Name string

	// Summary is a short argument description attached to error
	// context, e.g. the program id.
	Summary string

	// Invoke performs the call against a concrete backend.
	Invoke func(ctx context.Context, a backend.Adapter) (any, error)
}

// CreateOp registers a program.
func CreateOp(cfg domain.ProgramConfig) Operation {
	summary := cfg.ID
	if summary == "" {
		summary = "new program"
	}
	return Operation{
		Name:    backend.OpCreate,
		Summary: summary,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return a.CreateProgram(ctx, cfg)
		},
	}
}

// ExecuteOp runs a program.
func ExecuteOp(id string, inputs map[string]any, opts domain.ExecOptions) Operation {
	return Operation{
		Name:    backend.OpExecute,
		Summary: id,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return a.Execute(ctx, id, inputs, opts)
		},
	}
}

// ListOp lists live program ids.
func ListOp() Operation {
	return Operation{
		Name: backend.OpList,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return a.ListPrograms(ctx)
		},
	}
}

// DeleteOp destroys a program.
func DeleteOp(id string) Operation {
	return Operation{
		Name:    backend.OpDelete,
		Summary: id,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return nil, a.DeleteProgram(ctx, id)
		},
	}
}

// InfoOp fetches a program record.
func InfoOp(id string) Operation {
	return Operation{
		Name:    backend.OpInfo,
		Summary: id,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return a.ProgramInfo(ctx, id)
		},
	}
}

// PingOp checks backend health.
func PingOp() Operation {
	return Operation{
		Name: backend.OpPing,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return nil, a.HealthCheck(ctx)
		},
	}
}

// StatsOp fetches the backend counters.
func StatsOp() Operation {
	return Operation{
		Name: backend.OpStats,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return a.Stats(ctx)
		},
	}
}

// ConfigureOp applies backend-wide settings.
func ConfigureOp(settings map[string]any) Operation {
	return Operation{
		Name: backend.OpConfigure,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return nil, a.ConfigureGlobal(ctx, settings)
		},
	}
}

// ResetOp drops all backend state.
func ResetOp() Operation {
	return Operation{
		Name: backend.OpReset,
		Invoke: func(ctx context.Context, a backend.Adapter) (any, error) {
			return nil, a.Reset(ctx)
		},
	}
}
