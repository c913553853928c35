package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

const workerService = "/bridge.v1.Worker/"

// GRPCCollaborator talks to the worker supervisor over gRPC. Commands
// map onto unary methods of the worker service; args and results are
// protobuf Struct/Value so no generated code is needed here.
type GRPCCollaborator struct {
	endpoint string
	conn     *grpc.ClientConn
}

var _ Collaborator = (*GRPCCollaborator)(nil)

// NewGRPCCollaborator dials the worker supervisor endpoint.
func NewGRPCCollaborator(ctx context.Context, endpoint string) (*GRPCCollaborator, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial worker endpoint %s: %w", target, err)
	}

	return &GRPCCollaborator{endpoint: endpoint, conn: conn}, nil
}

// Start launches a worker.
func (g *GRPCCollaborator) Start(ctx context.Context, workerID string) (Handle, error) {
	args, err := structpb.NewStruct(map[string]any{"worker_id": workerID})
	if err != nil {
		return "", err
	}
	out := new(structpb.Value)
	if err := g.conn.Invoke(ctx, workerService+"Start", args, out); err != nil {
		return "", fmt.Errorf("start worker %s: %w", workerID, err)
	}
	fields := out.GetStructValue().GetFields()
	if h, ok := fields["handle"]; ok {
		return Handle(h.GetStringValue()), nil
	}
	return Handle(workerID), nil
}

// Invoke sends one command to a started worker.
func (g *GRPCCollaborator) Invoke(
	ctx context.Context,
	h Handle,
	command string,
	args *structpb.Struct,
	timeout time.Duration,
) (*structpb.Value, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if args == nil {
		args = &structpb.Struct{Fields: map[string]*structpb.Value{}}
	}
	if args.Fields == nil {
		args.Fields = map[string]*structpb.Value{}
	}
	args.Fields["handle"] = structpb.NewStringValue(string(h))
	args.Fields["command"] = structpb.NewStringValue(command)

	out := new(structpb.Value)
	if err := g.conn.Invoke(ctx, workerService+"Invoke", args, out); err != nil {
		return nil, fmt.Errorf("invoke %s: %w", command, err)
	}
	return out, nil
}

// Stop shuts a worker down.
func (g *GRPCCollaborator) Stop(ctx context.Context, h Handle) error {
	args, err := structpb.NewStruct(map[string]any{"handle": string(h)})
	if err != nil {
		return err
	}
	out := new(structpb.Value)
	if err := g.conn.Invoke(ctx, workerService+"Stop", args, out); err != nil {
		return fmt.Errorf("stop worker: %w", err)
	}
	return nil
}

// Close tears down the connection.
func (g *GRPCCollaborator) Close() error {
	return g.conn.Close()
}
