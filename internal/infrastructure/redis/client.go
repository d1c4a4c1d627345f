package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/bankbook/internal/infrastructure/retry"
)

// NewClient creates a Redis client and waits for the server to answer a
// PING, retrying a few times before giving up.
func NewClient(ctx context.Context, redisURL string, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	retrier := retry.New(
		retry.WithMaxAttempts(3),
		retry.WithInitialInterval(100*time.Millisecond),
		retry.WithMaxInterval(time.Second),
		retry.WithLogger(logger.With().Str("component", "redis").Logger()),
	)

	if err := retrier.Retry(ctx, func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Msg("connected to redis")

	return client, nil
}
