package redikit

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/redikit/codec"
	st "github.com/unkn0wn-root/redikit/store"
)

// Facade is the typed convenience API over a key-value/set/pub-sub backend.
// Values are arbitrary caller shapes serialized by the configured Codec;
// TTLs are plain durations, ttl <= 0 meaning "no expiry set by this call".
//
// Every operation is a single forward to the store (plus codec work at the
// boundary); there is no retry, no fallback, and no local state beyond the
// codec. Callers must treat every operation as fallible.
type Facade interface {
	// Exists reports whether key is present in the backend.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the raw stored value decoded through the codec
	// (map[string]any / []any / scalars for JSON). ok=false on miss.
	Get(ctx context.Context, key string) (v any, ok bool, err error)

	// MultiGet batch-fetches keys in order; missing keys yield nil entries.
	// Empty input completes immediately without a backend call.
	MultiGet(ctx context.Context, keys []string) ([]any, error)

	// MGet is MultiGet without the empty-input short-circuit: it always
	// issues the batch call.
	MGet(ctx context.Context, keys []string) ([]any, error)

	// Set writes value with no expiry. Fails with *WriteError when the
	// backend reports the write did not take effect.
	Set(ctx context.Context, key string, value any) error

	// SetTTL writes value with the given expiry. Same failure semantics
	// as Set.
	SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// MultiSet batch-writes all entries. Empty input is a no-op success.
	MultiSet(ctx context.Context, entries map[string]any) error

	// MultiSetTTL batch-writes all entries, then applies one shared TTL to
	// every key as a second, non-atomic step. The per-key expire calls run
	// concurrently and are joined; their failures are logged but do not
	// fail the operation.
	MultiSetTTL(ctx context.Context, entries map[string]any, ttl time.Duration) error

	// MultiSetTTLs is MultiSetTTL with a per-key TTL map: keys present in
	// both maps get their own TTL, keys absent from ttls get no expiry.
	MultiSetTTLs(ctx context.Context, entries map[string]any, ttls map[string]time.Duration) error

	// Members returns all members of the set at key, decoded raw.
	// Backend order; callers must not rely on it.
	Members(ctx context.Context, key string) ([]any, error)

	// AddToSet adds value to the set at key and returns the backend's
	// added count (0 for a duplicate; not an error here).
	AddToSet(ctx context.Context, key string, value any) (int64, error)

	// AddToSetTTL adds value, failing with *WriteError when the add had no
	// effect, then sets an expiry on the whole key, failing with
	// *WriteError when the expire reports false. Returns the added count.
	AddToSetTTL(ctx context.Context, key string, value any, ttl time.Duration) (int64, error)

	// IsMember reports set membership of value at key.
	IsMember(ctx context.Context, key string, value any) (bool, error)

	// Publish sends message to channel and returns the number of listeners
	// notified at publish time (0 is not an error).
	Publish(ctx context.Context, channel string, message any) (int64, error)

	// Subscribe opens a live, unbounded textual stream of messages on
	// channel. See Subscription for the sentinel policy on undecodable
	// messages.
	Subscribe(ctx context.Context, channel string) (*Subscription, error)

	// Store exposes the underlying backend for operations this facade does
	// not wrap.
	Store() st.Store

	// Codec exposes the codec shared by all operations.
	Codec() c.Codec

	// Close releases the facade and, when it owns it, the store.
	Close(ctx context.Context) error
}

// Options tune the facade. Only Store is required.
type Options struct {
	// Required.
	Store st.Store

	Codec           c.Codec // nil => codec.JSON{}
	Logger          Logger  // nil => NopLogger
	SubscribeBuffer int     // per-subscription channel capacity; 0 => 64
	CloseStore      bool    // set true only if the facade exclusively owns the store
}

func New(opts Options) (Facade, error) {
	return newFacade(opts)
}
