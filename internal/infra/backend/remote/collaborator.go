// Package remote implements the adapter that proxies execution onto a
// real worker process. The worker's lifecycle and transport live
// behind the Collaborator interface; the proxy itself only marshals.
package remote

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Handle identifies a started worker within the collaborator.
type Handle string

// Collaborator is the narrow surface onto the external worker
// infrastructure: process supervision, registries and transport all
// hide behind these calls.
type Collaborator interface {
	// Start launches (or attaches to) a worker and returns its handle.
	Start(ctx context.Context, workerID string) (Handle, error)

	// Invoke sends one command with structured args and returns the
	// structured result.
	Invoke(ctx context.Context, h Handle, command string, args *structpb.Struct, timeout time.Duration) (*structpb.Value, error)

	// Stop shuts the worker down.
	Stop(ctx context.Context, h Handle) error

	// Close releases transport resources.
	Close() error
}
