package optd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/metrics"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// Config holds the daemon listen addresses. An empty address disables
// that surface.
type Config struct {
	GRPCAddr string
	HTTPAddr string
	Settings *config.Settings
}

// Daemon serves the run API over gRPC and HTTP.
type Daemon struct {
	cfg      Config
	Store    *RunStore
	Executor *RunExecutor
	registry *prometheus.Registry

	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// New wires the store, executor and both servers around models.
func New(cfg Config, models *adapter.Registry) *Daemon {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := NewRunStore()
	executor := NewRunExecutor(store, models, cfg.Settings, metrics.New(reg))

	// TODO: Configure gRPC server security (TLS, authentication) before
	// exposing the daemon outside a trusted network.
	grpcServer := grpc.NewServer()
	RegisterOptimizerServer(grpcServer, NewOptimizerGRPCServer(store, executor))
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &Daemon{
		cfg:        cfg,
		Store:      store,
		Executor:   executor,
		registry:   reg,
		grpcServer: grpcServer,
		health:     hs,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           NewHTTPServer(store, executor, models, reg).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
}

// Serve listens on the configured addresses until ctx is done, then stops
// running optimizations and shuts both servers down.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	errc := make(chan error, 2)

	if d.cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", d.cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC on %s: %w", d.cfg.GRPCAddr, err)
		}
		go func() {
			logger.Info("gRPC server listening", "addr", lis.Addr().String())
			if err := d.grpcServer.Serve(lis); err != nil {
				errc <- fmt.Errorf("gRPC server: %w", err)
				stop()
			}
		}()
	}

	if d.cfg.HTTPAddr != "" {
		lis, err := net.Listen("tcp", d.cfg.HTTPAddr)
		if err != nil {
			d.grpcServer.Stop()
			return fmt.Errorf("failed to listen for HTTP on %s: %w", d.cfg.HTTPAddr, err)
		}
		go func() {
			logger.Info("HTTP server listening", "addr", lis.Addr().String())
			if err := d.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("HTTP server: %w", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown requested")

	d.health.Shutdown()
	d.Executor.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d.grpcServer.GracefulStop()
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}
