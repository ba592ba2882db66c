package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/qr-tracker/internal/container"
	"github.com/serroba/qr-tracker/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	opts := &container.Options{
		RedisAddr:     getEnv("SERVICE_REDIS_ADDR", "localhost:6379"),
		DatabaseURL:   getEnv("SERVICE_DATABASE_URL", ""),
		GeoEndpoint:   getEnv("SERVICE_GEO_ENDPOINT", "http://ip-api.com/json/"),
		GeoTimeoutMs:  getEnvInt("SERVICE_GEO_TIMEOUT_MS", 2000),
		LogFormat:     getEnv("SERVICE_LOG_FORMAT", "console"),
		ConsumerGroup: getEnv("SERVICE_CONSUMER_GROUP", "qr-analytics"),
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.AnalyticsStorePackage(injector)
	container.CachePackage(injector)
	container.GeoPackage(injector)
	container.MetricsPackage(injector)
	container.TransportPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)

	// An in-process channel would never see the server's scans.
	if !do.MustInvoke[*container.Redis](injector).Available {
		logger.Fatal("standalone consumer requires a reachable redis", zap.String("redis", opts.RedisAddr))
	}

	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, cancel := context.WithCancel(context.Background())

	if err := group.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer group", zap.Error(err))
	}

	logger.Info("consumer started",
		zap.String("redis", opts.RedisAddr),
		zap.String("group", opts.ConsumerGroup),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	cancel()

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return n
}
