package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/bankbook/internal/adapter/http"
	"github.com/iho/bankbook/internal/adapter/http/handler"
	"github.com/iho/bankbook/internal/adapter/http/middleware"
	"github.com/iho/bankbook/internal/adapter/repository/jsonfile"
	redisRepo "github.com/iho/bankbook/internal/adapter/repository/redis"
	"github.com/iho/bankbook/internal/infrastructure/config"
	"github.com/iho/bankbook/internal/infrastructure/logger"
	"github.com/iho/bankbook/internal/infrastructure/metrics"
	"github.com/iho/bankbook/internal/infrastructure/redis"
	"github.com/iho/bankbook/internal/usecase"
)

// limiterIdleTimeout is how long a client's limiter survives without traffic.
const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// app is the wired server and the resources it owns.
type app struct {
	server      *http.Server
	rateLimiter *middleware.RateLimiter
	redisClient *goredis.Client
}

func (a *app) close() {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
}

// newApp wires storage, optional Redis, use cases and the HTTP router.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	businessMetrics := metrics.New(reg)

	store, err := jsonfile.Open(cfg.StorePath,
		jsonfile.WithLogger(log.With().Str("component", "store").Logger()),
		jsonfile.WithWriteObserver(businessMetrics),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info().Str("path", store.Path()).Msg("account store opened")

	a := &app{}
	checks := []handler.HealthCheck{{Name: "store", Pinger: store}}

	// Interfaces stay nil unless Redis is configured.
	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisEnabled() {
		client, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redisClient = client

		redisCache := redisRepo.NewCache(client)
		cache = redisCache
		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		checks = append(checks, handler.HealthCheck{Name: "redis", Pinger: redisCache})
	} else {
		log.Info().Msg("redis disabled, running without cache and idempotency")
	}

	accountUC := usecase.NewAccountUseCase(store, cache, businessMetrics, log.With().Str("component", "usecase").Logger())

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(accountUC),
		HealthHandler:      handler.NewHealthHandler(checks...),
		Logger:             log.With().Str("component", "http").Logger(),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		HTTPMetrics:        middleware.NewHTTPMetrics(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if cfg.RateLimitEnabled() {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = a.rateLimiter
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return a, nil
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if a.rateLimiter != nil {
		go cleanupLimiters(ctx, a.rateLimiter, log)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, log zerolog.Logger) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rl.CleanupLimiters(limiterIdleTimeout); removed > 0 {
				log.Debug().Int("removed", removed).Msg("dropped idle rate limiters")
			}
		}
	}
}
