package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "forum"

// Command outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the forum collectors.
type Metrics struct {
	// CommandsTotal counts commands by type and outcome.
	CommandsTotal *prometheus.CounterVec
	// CommandDuration measures time from validation to commit by type.
	CommandDuration *prometheus.HistogramVec
	// EventsPublished counts sink deliveries by sink and result.
	EventsPublished *prometheus.CounterVec
	// GRPCRequests counts unary calls by method and status code.
	GRPCRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled by type and outcome.",
		}, []string{"command", "outcome"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command handling latency by type.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"command"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Event batches delivered to sinks by result.",
		}, []string{"sink", "result"}),
		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Unary gRPC requests by method and code.",
		}, []string{"method", "code"}),
	}
}

// ObserveCommand records one handled command. Safe on a nil receiver.
func (m *Metrics) ObserveCommand(command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// ObservePublish records one sink delivery. Safe on a nil receiver.
func (m *Metrics) ObservePublish(sink string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(sink, result).Inc()
}

// UnaryServerInterceptor counts unary calls by method and status code.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if m != nil {
			m.GRPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		}
		return resp, err
	}
}

// Handler serves the metrics in g for scraping. A nil g uses the default
// gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
