package dedupe

import (
	"ColorPredict/internal/core/ports"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "colorpredict:update:"

// redisDeduper shares seen keys across replicas.
type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var _ ports.UpdateDeduper = (*redisDeduper)(nil) // Ensure compliance

// NewRedis connects to url (redis://...) and pings it.
func NewRedis(ctx context.Context, url string, ttl time.Duration, baseLogger *zerolog.Logger) (ports.UpdateDeduper, error) {
	log := baseLogger.With().Str("component", "redis_deduper").Logger()

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Error().Err(err).Msg("Failed to ping redis")
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("Redis deduper connected")
	return &redisDeduper{client: client, ttl: ttl, log: log}, nil
}

func (d *redisDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, keyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		d.log.Error().Err(err).Str("key", key).Msg("SETNX failed")
		return false, err
	}
	if !ok {
		d.log.Debug().Str("key", key).Msg("Duplicate update dropped")
	}
	return ok, nil
}

func (d *redisDeduper) Close() error {
	return d.client.Close()
}
