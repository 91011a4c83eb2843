package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/hoodie-drop/internal/adapter/handler"
	"github.com/rl1809/hoodie-drop/internal/adapter/intake"
	"github.com/rl1809/hoodie-drop/internal/adapter/storage"
	"github.com/rl1809/hoodie-drop/internal/config"
	"github.com/rl1809/hoodie-drop/internal/core/service"
	"github.com/rl1809/hoodie-drop/internal/logging"
	"github.com/rl1809/hoodie-drop/internal/port"
	"github.com/rl1809/hoodie-drop/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	// Initialize draft store
	drafts, closeStore, err := openDraftStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize intake client and service
	intakeClient := intake.NewClient(cfg.IntakeURL, cfg.IntakeFields, cfg.IntakeTimeout,
		intake.WithLogger(logger.With(zap.String("component", "intake"))))

	checkoutService := service.NewCheckoutService(drafts, intakeClient,
		service.WithLogger(logger.With(zap.String("component", "checkout"))),
		service.WithConfirmationDelay(cfg.ConfirmationDelay),
		service.WithLockTTL(cfg.SubmitLockTTL()))

	// Initialize gRPC server
	grpcServer := handler.NewGRPCServer(handler.NewGRPCHandler(checkoutService, logger.With(zap.String("component", "grpc"))))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpLogger := logger.With(zap.String("component", "http"))
	router := handler.NewRouter(
		handler.NewHTTPHandler(checkoutService, httpLogger),
		handler.NewPageHandler(checkoutService, httpLogger),
		httpLogger,
		cfg.RequestTimeout,
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server forced to shut down", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	return nil
}

func openDraftStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (port.DraftRepository, func(), error) {
	if cfg.DraftStore != config.StoreRedis {
		logger.Info("using in-memory draft store", zap.Duration("ttl", cfg.DraftTTL))
		return storage.NewMemoryAdapter(cfg.DraftTTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 100,
	})
	adapter := storage.NewRedisAdapter(rdb, cfg.DraftTTL).WithLockTTL(cfg.SubmitLockTTL())
	if err := adapter.Ping(ctx); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("connected to redis",
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("ttl", cfg.DraftTTL),
		zap.Duration("lock_ttl", cfg.SubmitLockTTL()))

	return adapter, func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("failed to close redis", zap.Error(err))
		}
	}, nil
}
