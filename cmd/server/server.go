package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/KirkDiggler/rpg-combat/internal/config"
	"github.com/KirkDiggler/rpg-combat/internal/engine/actions"
	"github.com/KirkDiggler/rpg-combat/internal/engine/effects"
	"github.com/KirkDiggler/rpg-combat/internal/engine/registry"
	"github.com/KirkDiggler/rpg-combat/internal/engine/session"
	"github.com/KirkDiggler/rpg-combat/internal/entities/combat"
	"github.com/KirkDiggler/rpg-combat/internal/handlers/combat/v1alpha1"
	"github.com/KirkDiggler/rpg-combat/internal/orchestrators/encounter"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-combat/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-combat/internal/redis"
	"github.com/KirkDiggler/rpg-combat/internal/repositories/encounters"
)

const shutdownTimeout = 30 * time.Second

var (
	grpcPort  int
	redisAddr string
	envFile   string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gRPC server",
	Long: `Start the RPG Combat gRPC server. Settings come from COMBAT_* environment
variables or a .env file; flags override them.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 0, "gRPC server port (overrides COMBAT_GRPC_PORT)")
	serverCmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for the archive (overrides COMBAT_REDIS_ADDR)")
	serverCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load when present")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.GRPCPort = grpcPort
	}
	if cmd.Flags().Changed("redis") {
		cfg.RedisAddr = redisAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	slog.SetDefault(cfg.NewLogger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	service, err := newEncounterService(cfg, repo, newEventBus())
	if err != nil {
		return fmt.Errorf("failed to create encounter service: %w", err)
	}

	handler, err := v1alpha1.NewHandler(&v1alpha1.HandlerConfig{
		EncounterService: service,
	})
	if err != nil {
		return fmt.Errorf("failed to create combat handler: %w", err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(grpc_recovery.WithRecoveryHandler(recoverPanic)),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(grpc_recovery.WithRecoveryHandler(recoverPanic)),
		),
	)

	v1alpha1.RegisterCombatServiceServer(srv, handler)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(v1alpha1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("gRPC server starting", "port", cfg.GRPCPort, "archive", archiveKind(cfg))
		if err := srv.Serve(lis); err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return service.RunSweeper(gctx, cfg.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gRPC server")
		healthServer.Shutdown()
		gracefulStop(srv)
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newEncounterService(cfg *config.Config, repo encounters.Repository, bus events.EventBus) (encounter.Service, error) {
	reg, err := registry.New(&registry.Config{
		LockTimeout:       cfg.LockTimeout,
		InactivityTimeout: cfg.InactivityTimeout,
		ResultGrace:       cfg.ResultGrace,
	})
	if err != nil {
		return nil, err
	}

	tracker := effects.NewTracker(nil)
	resolver, err := actions.NewResolver(&actions.Config{Tracker: tracker})
	if err != nil {
		return nil, err
	}
	machine, err := session.NewMachine(&session.Config{
		Resolver:   resolver,
		Tracker:    tracker,
		Electorate: cfg.Electorate(),
	})
	if err != nil {
		return nil, err
	}

	return encounter.NewOrchestrator(&encounter.Config{
		IDGenerator: idgen.NewUUID("session"),
		Clock:       clock.New(),
		Registry:    reg,
		Machine:     machine,
		Repository:  repo,
		EventBus:    bus,
	})
}

// newArchive picks the Redis archive when an address is configured
func newArchive(ctx context.Context, cfg *config.Config) (encounters.Repository, func(), error) {
	if cfg.RedisAddr == "" {
		return encounters.NewInMemory(clock.New(), cfg.ArchiveTTL), func() {}, nil
	}

	client, err := redis.NewClient(cfg.RedisAddr, &redis.Options{
		PoolSize:        10,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		MaxRetries:      3,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}

	repo, err := encounters.NewRedisRepository(&encounters.Config{
		Client: client,
		Clock:  clock.New(),
		TTL:    cfg.ArchiveTTL,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create encounter repository: %w", err)
	}

	return repo, func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}, nil
}

// newEventBus returns a bus with a debug logger on every combat event type
func newEventBus() events.EventBus {
	bus := events.NewBus()
	for _, kind := range combat.AllEventKinds {
		bus.SubscribeFunc(encounter.EventTypePrefix+string(kind), 0, func(_ context.Context, e events.Event) error {
			slog.Debug("Combat event", "event_type", e.Type())
			return nil
		})
	}
	return bus
}

func gracefulStop(srv *grpc.Server) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(shutdownTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		slog.Warn("Graceful shutdown timeout exceeded, forcing stop")
		srv.Stop()
	case <-stopped:
		slog.Info("Server stopped gracefully")
	}
}

func archiveKind(cfg *config.Config) string {
	if cfg.RedisAddr == "" {
		return "memory"
	}
	return "redis"
}

func recoverPanic(p any) error {
	slog.Error("Recovered from panic in handler", "panic", p, "stack", string(debug.Stack()))
	return status.Errorf(codes.Internal, "internal error")
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	slog.Log(ctx, slog.Level(level), msg, fields...)
}
