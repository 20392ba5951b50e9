// Package main is the entry point for the ueep-ha-system HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Garrettc123/ueep-ha-system/internal/breaker"
	"github.com/Garrettc123/ueep-ha-system/internal/cache"
	"github.com/Garrettc123/ueep-ha-system/internal/config"
	"github.com/Garrettc123/ueep-ha-system/internal/handler"
	"github.com/Garrettc123/ueep-ha-system/internal/metrics"
	"github.com/Garrettc123/ueep-ha-system/internal/middleware"
	"github.com/Garrettc123/ueep-ha-system/internal/monitor"
	"github.com/Garrettc123/ueep-ha-system/internal/repository"
	"github.com/Garrettc123/ueep-ha-system/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Dependencies may be down at boot. The breakers absorb that, so a
	// failed initial ping is logged and startup continues.
	db, err := sqlx.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("Failed to open database handle", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Warn("Database unreachable at startup, continuing", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Redis unreachable at startup, continuing", zap.Error(err))
	}

	m := metrics.New()

	registry := breaker.NewRegistry(
		breaker.WithOnStateChange(func(name string, from, to breaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("dependency", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.SetBreakerState(name, to)
		}),
		breaker.WithOnOutcome(func(name string, outcome breaker.Outcome) {
			m.ObserveGuardedCall(name, outcome)
		}),
	)

	repo := repository.NewRepository(db)
	c := cache.New(redisClient)

	svc, err := service.NewService(cfg, registry, repo, c, m, logger)
	if err != nil {
		logger.Fatal("Failed to wire services", zap.Error(err))
	}

	// Seed the state gauges so they report closed before any transition.
	for name, state := range registry.States() {
		m.SetBreakerState(name, state)
	}

	node, err := os.Hostname()
	if err != nil {
		node = "unknown"
	}

	h := handler.NewHandler(svc, handler.ServiceInfo{
		Name:        cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Node:        node,
	}, logger)

	router := setupRouter(h, m, &middleware.Config{
		Logger:         logger,
		Metrics:        m,
		RateLimit:      rate.Limit(cfg.Middleware.RateLimit),
		RateLimitBurst: cfg.Middleware.RateLimitBurst,
		RequestTimeout: time.Duration(cfg.Middleware.RequestTimeout) * time.Second,
	})

	healthMonitor := monitor.NewMonitor(logger,
		time.Duration(cfg.Monitor.IntervalSeconds)*time.Second,
		func(ctx context.Context) error {
			status := svc.Health.Check(ctx)
			if !status.Healthy {
				logger.Warn("Background health sweep found unhealthy dependencies",
					zap.Any("checks", status.Checks),
					zap.Any("breakers", status.Breakers))
			}
			return nil
		})

	if err := healthMonitor.Start(context.Background()); err != nil {
		logger.Error("Failed to start health monitor", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("node", node),
			zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if healthMonitor.IsRunning() {
		if err := healthMonitor.Stop(); err != nil {
			logger.Error("Failed to stop health monitor", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
