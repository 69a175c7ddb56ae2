// Package grpc holds the client-side dialing helpers forumctl uses to reach
// forumd.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	probeTimeout   = time.Second
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = time.Second
)

// Dial failure stages.
const (
	StageConnect = "connect"
	StageHealth  = "health"
)

// DialError reports which stage of DialWithHealth failed.
type DialError struct {
	Stage string
	Addr  string
	Err   error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("gRPC %s %s: %v", e.Stage, e.Addr, e.Err)
}

func (e *DialError) Unwrap() error { return e.Err }

// ClientOptions returns plaintext dial options that propagate trace context.
func ClientOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// DialWithHealth connects to addr and blocks until service reports SERVING
// or timeout elapses. The connection is closed on failure. Without opts,
// ClientOptions is used.
func DialWithHealth(ctx context.Context, addr, service string, timeout time.Duration, logf func(string, ...any), opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if len(opts) == 0 {
		opts = ClientOptions()
	}
	conn, err := gogrpc.NewClient(addr, opts...)
	if err != nil {
		return nil, &DialError{Stage: StageConnect, Addr: addr, Err: err}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := WaitForHealth(ctx, grpc_health_v1.NewHealthClient(conn), service, logf); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: StageHealth, Addr: addr, Err: err}
	}
	return conn, nil
}

// WaitForHealth polls client with exponential backoff until service reports
// SERVING or ctx ends.
func WaitForHealth(ctx context.Context, client grpc_health_v1.HealthClient, service string, logf func(string, ...any)) error {
	if client == nil {
		return errors.New("health client is required")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	backoff := initialBackoff
	for {
		status, err := CheckHealth(ctx, client, service)
		switch {
		case err != nil:
			logf("waiting for %q health: %v", service, err)
		case status == grpc_health_v1.HealthCheckResponse_SERVING:
			return nil
		default:
			logf("waiting for %q health: %s", service, status)
		}

		select {
		case <-ctx.Done():
			if err == nil {
				err = fmt.Errorf("status %s", status)
			}
			return fmt.Errorf("wait for health: %w (last: %v)", ctx.Err(), err)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// CheckHealth performs one health probe bounded to a second.
func CheckHealth(ctx context.Context, client grpc_health_v1.HealthClient, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	if client == nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, errors.New("health client is required")
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := client.Check(probeCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
