package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/agoraledger/forum/internal/platform/id"
	"github.com/agoraledger/forum/internal/platform/storage/redisclient"
	"github.com/agoraledger/forum/internal/platform/telemetry/metrics"
	"github.com/agoraledger/forum/internal/platform/timeouts"
	"github.com/agoraledger/forum/internal/services/forum/api/grpc/auth"
	forumgrpc "github.com/agoraledger/forum/internal/services/forum/api/grpc/forum"
	grpcmeta "github.com/agoraledger/forum/internal/services/forum/api/grpc/metadata"
	"github.com/agoraledger/forum/internal/services/forum/domain/engine"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/genesis"
	"github.com/agoraledger/forum/internal/services/forum/membership"
	"github.com/agoraledger/forum/internal/services/forum/sink"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

// Server hosts the forum gRPC service and, optionally, a metrics endpoint.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	metricsSrv *http.Server
	ledger     storage.Ledger
	redis      *redis.Client
}

// New opens every dependency named by cfg and returns a server listening on
// cfg.Addr. Partially opened resources are released on failure.
func New(ctx context.Context, cfg Config) (_ *Server, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	genesisCfg, err := loadGenesis(cfg.GenesisPath)
	if err != nil {
		return nil, err
	}

	s := &Server{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.ledger, err = OpenLedger(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	applied, err := genesisCfg.Apply(ctx, s.ledger)
	if err != nil {
		return nil, err
	}
	if applied {
		log.Printf("genesis applied sudo=%q members=%d", genesisCfg.Sudo, len(genesisCfg.Members))
	}

	if cfg.Redis.Enabled() {
		s.redis, err = redisclient.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
	}
	members, err := s.membership(ctx, cfg, genesisCfg.MemberAccounts())
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	commands, err := forum.NewCommandRegistry()
	if err != nil {
		return nil, fmt.Errorf("build command registry: %w", err)
	}
	events, err := forum.NewEventRegistry()
	if err != nil {
		return nil, fmt.Errorf("build event registry: %w", err)
	}
	handler := &engine.Handler{
		Commands: commands,
		Events:   events,
		Ledger:   s.ledger,
		Members:  members,
		Clock:    cfg.Clock(),
		Sink:     s.sinks(cfg, m),
		Observer: m,
	}

	s.listener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(id.NewID),
			m.UnaryServerInterceptor(),
			auth.UnaryServerInterceptor(cfg.Auth()),
		),
	)
	forumgrpc.RegisterForumServer(s.grpcServer, forumgrpc.NewService(handler, s.ledger))
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(forumgrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		s.metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
		}
	}
	return s, nil
}

func loadGenesis(path string) (genesis.Config, error) {
	if path == "" {
		return genesis.Config{}, nil
	}
	return genesis.Load(path)
}

// membership prefers the Redis set when Redis is configured. Genesis members
// are added to whichever registry is chosen.
func (s *Server) membership(ctx context.Context, cfg Config, seed []forum.AccountID) (membership.Registry, error) {
	if s.redis == nil {
		return membership.NewStatic(seed...), nil
	}
	members := membership.NewRedis(s.redis, cfg.membersKey())
	if err := members.Add(ctx, seed...); err != nil {
		return nil, fmt.Errorf("seed members: %w", err)
	}
	return members, nil
}

func (s *Server) sinks(cfg Config, m *metrics.Metrics) engine.EventSink {
	var sinks []sink.Sink
	if cfg.LogEvents {
		sinks = append(sinks, sink.Log{})
	}
	if s.redis != nil {
		sinks = append(sinks, sink.NewRedis(s.redis, cfg.eventStream(), cfg.EventStreamMaxLen))
	}
	if len(sinks) == 0 {
		return nil
	}
	return sink.Multi{Sinks: sinks, OnResult: m.ObservePublish}
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a forum server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve blocks until the gRPC server stops or the context ends, then shuts
// everything down.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	log.Printf("forum server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 2)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()
	if s.metricsSrv != nil {
		log.Printf("metrics listening at %s", s.metricsSrv.Addr)
		go func() {
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("serve metrics: %w", err)
			}
		}()
	}

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		s.shutdown()
		return handleErr(<-serveErr)
	case err := <-serveErr:
		s.shutdown()
		return handleErr(err)
	}
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown metrics server: %v", err)
		}
	}
	s.grpcServer.GracefulStop()
}

func (s *Server) close() {
	if s == nil {
		return
	}
	if s.grpcServer == nil && s.listener != nil {
		_ = s.listener.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("close redis: %v", err)
		}
	}
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			log.Printf("close ledger: %v", err)
		}
	}
}
