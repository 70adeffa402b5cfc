// Package store defines the backend abstraction used by redikit.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). The same holds
// for set members and pub/sub payloads. If a store performs internal
// transforms (e.g., compression), they MUST be fully reversed.
//
// Connection lifecycle (dial/retry/pool) belongs to the implementation; the
// facade never retries and never manages connections.
package store

import (
	"context"
	"time"
)

// Message is a single pub/sub delivery.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription is a live listener registration on one channel.
// Messages() is closed after Close (or when the backend drops the
// subscription); Close deregisters the listener and guarantees no further
// deliveries. Safe to call Close multiple times.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

// Store is a string-keyed value store with set collections and pub/sub.
// Must be safe for concurrent use.
type Store interface {
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// MGet returns one entry per requested key, in request order.
	// Missing keys yield nil entries, not errors.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	// Set stores value. ttl <= 0 means no expiry from this call (a backend
	// default may still apply). Returns ok=false when the backend accepted
	// the call but reported the write did not take effect.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// MSet stores all entries in one batch call.
	MSet(ctx context.Context, entries map[string][]byte) error

	// Expire sets a TTL on an existing key. Returns ok=false when the key
	// does not exist or the backend reported no effect.
	Expire(ctx context.Context, key string, ttl time.Duration) (ok bool, err error)

	// SAdd adds member to the set at key and returns the number of members
	// actually added (0 for a duplicate).
	SAdd(ctx context.Context, key string, member []byte) (int64, error)

	// SMembers returns all members of the set at key. Order is
	// backend-defined; callers must not rely on it.
	SMembers(ctx context.Context, key string) ([][]byte, error)

	// SIsMember reports whether member is in the set at key.
	SIsMember(ctx context.Context, key string, member []byte) (bool, error)

	// Publish sends payload to channel and returns the number of listeners
	// that received it (0 is not an error).
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)

	// Subscribe registers a listener on channel. The subscription stays
	// live until closed; ctx only bounds the registration itself.
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
