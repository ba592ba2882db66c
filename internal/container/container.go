// Package container wires the application services with samber/do.
package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/cache"
	"github.com/serroba/qr-tracker/internal/geo"
	"github.com/serroba/qr-tracker/internal/handlers"
	"github.com/serroba/qr-tracker/internal/health"
	"github.com/serroba/qr-tracker/internal/messaging"
	"github.com/serroba/qr-tracker/internal/metrics"
	"github.com/serroba/qr-tracker/internal/middleware"
	"github.com/serroba/qr-tracker/internal/qrcode"
	"github.com/serroba/qr-tracker/internal/ratelimit"
	"github.com/serroba/qr-tracker/internal/store"
	"go.uber.org/zap"
)

const (
	connectTimeout   = 5 * time.Second
	qrCacheTTL       = 5 * time.Minute
	inProcessBuffer  = 1024
	redisCachePrefix = "qr:cache:"
)

// Redis owns the shared Redis client. Available is false when the server did not
// answer at startup; the client is kept so health checks can report it.
type Redis struct {
	Client    *redis.Client
	Available bool
}

// Shutdown closes the client.
func (r *Redis) Shutdown() error {
	return r.Client.Close()
}

// Postgres owns the shared connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.Pool.Close()

	return nil
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "console" {
			return zap.NewDevelopment()
		}

		return zap.NewProduction()
	})
}

// RedisPackage provides the Redis client. It is only invoked when RedisAddr is set.
// An unreachable server is logged and leaves every Redis-backed package on its
// in-process fallback.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, falling back to in-process state",
				zap.String("addr", opts.RedisAddr),
				zap.Error(err),
			)

			return &Redis{Client: client}, nil
		}

		return &Redis{Client: client, Available: true}, nil
	})
}

// redisClient returns the shared client, or nil when Redis is not configured or did not answer.
func redisClient(i *do.Injector, opts *Options) *redis.Client {
	if !opts.redisEnabled() {
		return nil
	}

	r := do.MustInvoke[*Redis](i)
	if !r.Available {
		return nil
	}

	return r.Client
}

// PostgresPackage provides a migrated connection pool. It is only invoked when DatabaseURL is set.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the QR code repository: Postgres, then Redis, then memory.
// With both configured, short code lookups are cached in Redis.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (qrcode.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		client := redisClient(i, opts)

		switch {
		case opts.postgresEnabled():
			var repo qrcode.Repository = store.NewPostgresStore(do.MustInvoke[*Postgres](i).Pool)

			if client != nil {
				repo = store.NewRedisCacheRepository(repo, client, qrCacheTTL)
			}

			return repo, nil
		case client != nil:
			return store.NewRedisStore(client), nil
		default:
			return store.NewMemoryStore(), nil
		}
	})
}

// AnalyticsStorePackage provides the analytics event store.
func AnalyticsStorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.postgresEnabled() {
			return store.NewAnalyticsPostgresStore(do.MustInvoke[*Postgres](i).Pool), nil
		}

		return store.NewAnalyticsMemoryStore(), nil
	})
}

// CachePackage provides the key/value cache used by geolocation.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (cache.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		if client := redisClient(i, opts); client != nil {
			return cache.NewRedis(client, redisCachePrefix), nil
		}

		return cache.NewMemory(), nil
	})
}

// GeoPackage provides the IP locator, cached, or a no-op when no endpoint is configured.
func GeoPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (geo.Locator, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.GeoEndpoint == "" {
			return geo.Noop{}, nil
		}

		timeout := time.Duration(opts.GeoTimeoutMs) * time.Millisecond
		locator := geo.NewHTTPLocator(&http.Client{}, opts.GeoEndpoint, timeout, logger)

		return geo.NewCachedLocator(locator, do.MustInvoke[cache.Cache](i), geo.DefaultCacheTTL, logger), nil
	})
}

// RateLimitPackage provides the scan rate limiter. Redis-backed counters fail open
// when Redis is slow or down.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeShortCode, int64(opts.CodeScanLimit), time.Hour).
			AddLimit(ratelimit.ScopeIP, int64(opts.IPScanLimit), time.Minute).
			Build()

		if client := redisClient(i, opts); client != nil {
			counters := ratelimit.NewWindowLimiter(store.NewRateLimitRedisStore(client))

			return ratelimit.NewPolicyLimiter(
				ratelimit.NewFailOpenLimiter(counters, ratelimit.DefaultCheckTimeout, logger),
				policy,
			), nil
		}

		return ratelimit.NewPolicyLimiter(ratelimit.NewWindowLimiter(store.NewRateLimitMemoryStore()), policy), nil
	})
}

// MetricsPackage provides the Prometheus collectors.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

// TransportPackage provides the analytics message bus: Redis streams when Redis is
// reachable, an in-process channel otherwise.
func TransportPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.Transport, error) {
		opts := do.MustInvoke[*Options](i)
		logger := messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))

		if client := redisClient(i, opts); client != nil {
			return messaging.NewRedisStreamTransport(client, opts.ConsumerGroup, logger)
		}

		return messaging.NewInProcessTransport(inProcessBuffer, logger), nil
	})
}

// PublisherGroupPackage provides the publisher side of the transport.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		return messaging.NewPublisherGroup(do.MustInvoke[*messaging.Transport](i).Publisher), nil
	})
}

// ConsumerGroupPackage provides the analytics consumers.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		transport := do.MustInvoke[*messaging.Transport](i)

		recorder := analytics.NewRecorder(
			do.MustInvoke[analytics.Store](i),
			do.MustInvoke[*metrics.Metrics](i),
			logger,
		)
		pipeline := analytics.NewPipeline(do.MustInvoke[geo.Locator](i), recorder)

		group := messaging.NewConsumerGroup(transport.Subscriber, logger)
		group.Add(messaging.NewConsumer[analytics.ScanRequested](
			transport.Subscriber,
			analytics.TopicScanRequested,
			pipeline.Handle,
			logger,
		))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.RequestID, chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		repo := do.MustInvoke[qrcode.Repository](i)

		api := humachi.New(router, huma.DefaultConfig("QR Tracker", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.PolicyRateLimiter(api, do.MustInvoke[*ratelimit.PolicyLimiter](i), m, logger),
		)

		codes, err := qrcode.NewAlphanumericCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		scanHandler := handlers.NewScanHandler(
			qrcode.NewResolver(repo),
			repo,
			messaging.NewPublishFunc[analytics.ScanRequested](publisher, analytics.TopicScanRequested),
			m,
			logger,
		)
		qrHandler := handlers.NewQRCodeHandler(
			qrcode.NewService(repo, qrcode.NewGenerator(repo, codes, qrcode.DefaultMaxAttempts)),
			do.MustInvoke[analytics.Store](i),
			opts.PublicURL(),
			logger,
		)

		handlers.RegisterRoutes(api, scanHandler, qrHandler)
		health.RegisterRoutes(api, health.NewHandler(healthChecks(i, opts)))
		router.Handle("/metrics", m.Handler())

		return api, nil
	})
}

func healthChecks(i *do.Injector, opts *Options) map[string]health.Checker {
	checks := make(map[string]health.Checker)

	if opts.redisEnabled() {
		checks["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
	}

	if opts.postgresEnabled() {
		checks["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
	}

	return checks
}

// Register provides every package the server needs.
func Register(i *do.Injector, opts *Options) {
	do.ProvideValue(i, opts)
	LoggerPackage(i)
	RedisPackage(i)
	PostgresPackage(i)
	RepositoryPackage(i)
	AnalyticsStorePackage(i)
	CachePackage(i)
	GeoPackage(i)
	RateLimitPackage(i)
	MetricsPackage(i)
	TransportPackage(i)
	PublisherGroupPackage(i)
	ConsumerGroupPackage(i)
	HTTPPackage(i)
}
