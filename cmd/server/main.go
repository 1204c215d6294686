package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/wealthsim-backend/internal/adapter/grpc"
	"github.com/simaogato/wealthsim-backend/internal/app"
	"github.com/simaogato/wealthsim-backend/internal/config"
	"github.com/simaogato/wealthsim-backend/internal/platform/logging"
	"github.com/simaogato/wealthsim-backend/internal/platform/otel"
)

const serviceName = "wealthsim-server"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("invalid log level", "err", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, logging.FormatJSON, level).With("service", serviceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 2. Setup tracing
	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "err", err)
		}
	}()

	// 3. Setup storage
	store, closer, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closer.Close()

	// 4. Wire the simulation
	opts, err := app.OptionsFromConfig(cfg, store)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	opts.Logger = logger
	sim := app.New(opts)
	defer sim.Close()

	res := sim.Start(ctx)
	logger.Info("simulation loaded", "store", cfg.Store, "refresh", res.Status, "net_worth", res.Snapshot.TotalNetWorth.String())

	if cfg.DayEvery > 0 {
		go sim.Clock.Run(ctx, cfg.DayEvery)
	}

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
		grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.APIToken, grpcadapter.FullMethod("GetRefreshState"))),
	)

	grpcAdapter := grpcadapter.NewServer(sim.Ledger, sim.Character, sim.Ownership, sim.Refresh, sim.Dashboard, sim, sim.Clock, sim.Journal)
	grpcadapter.RegisterAssetServiceServer(grpcServer, grpcAdapter)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.GRPCAddr, "err", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped serving", "err", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down gracefully")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}
