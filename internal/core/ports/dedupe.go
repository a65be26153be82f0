package ports

import "context"

// UpdateDeduper remembers inbound update keys so redelivered updates are dropped.
type UpdateDeduper interface {
	// FirstSeen returns true the first time key is observed within the TTL.
	FirstSeen(ctx context.Context, key string) (bool, error)
	Close() error
}
