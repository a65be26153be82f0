// Package dedupe drops inbound bot updates that were already processed,
// which happens when a webhook is retried or polling restarts.
package dedupe

import (
	"ColorPredict/internal/core/ports"
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// localDeduper keeps seen keys in process memory.
type localDeduper struct {
	cache *cache.Cache
	log   zerolog.Logger
}

var _ ports.UpdateDeduper = (*localDeduper)(nil) // Ensure compliance

// NewLocal creates an in-process deduper whose keys expire after ttl.
func NewLocal(ttl time.Duration, baseLogger *zerolog.Logger) ports.UpdateDeduper {
	return &localDeduper{
		cache: cache.New(ttl, ttl*2),
		log:   baseLogger.With().Str("component", "local_deduper").Logger(),
	}
}

// FirstSeen uses Add, which fails atomically when the key exists.
func (d *localDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	if err := d.cache.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		d.log.Debug().Str("key", key).Msg("Duplicate update dropped")
		return false, nil
	}
	return true, nil
}

func (d *localDeduper) Close() error {
	d.cache.Flush()
	return nil
}
