package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestObserveCommand(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCommand("post.add", OutcomeAccepted, 3*time.Millisecond)
	m.ObserveCommand("post.add", OutcomeRejected, time.Millisecond)
	m.ObserveCommand("post.add", OutcomeAccepted, time.Millisecond)

	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("post.add", OutcomeAccepted)); got != 2 {
		t.Fatalf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("post.add", OutcomeRejected)); got != 1 {
		t.Fatalf("rejected = %v, want 1", got)
	}
}

func TestObservePublish(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePublish("redis", nil)
	m.ObservePublish("redis", errors.New("down"))

	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("redis", "ok")); got != 1 {
		t.Fatalf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("redis", "error")); got != 1 {
		t.Fatalf("error = %v, want 1", got)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCommand("post.add", OutcomeAccepted, time.Millisecond)
	m.ObservePublish("log", nil)
}

func TestUnaryServerInterceptorCountsCodes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	interceptor := m.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/forum.v1.ForumService/AddPost"}

	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.PermissionDenied, "nope")
	})
	_, _ = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})

	if got := testutil.ToFloat64(m.GRPCRequests.WithLabelValues(info.FullMethod, codes.PermissionDenied.String())); got != 1 {
		t.Fatalf("permission denied = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GRPCRequests.WithLabelValues(info.FullMethod, codes.OK.String())); got != 1 {
		t.Fatalf("ok = %v, want 1", got)
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveCommand("category.create", OutcomeAccepted, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `forum_commands_total{command="category.create",outcome="accepted"} 1`) {
		t.Fatalf("metrics body missing command counter:\n%s", rec.Body.String())
	}
}
