// Package redis backs redikit with a Redis server (or cluster) through
// redis/go-redis/v9.
package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/unkn0wn-root/redikit/store"
)

var ErrNilClient = errors.New("redis store: nil client")

// subscribeBuffer is the capacity of the per-subscription delivery channel.
const subscribeBuffer = 100

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ st.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Dial builds a client from opts, verifies connectivity with a ping, and
// returns a store that owns the client.
func Dial(ctx context.Context, opts Options) (*Redis, error) {
	rdb := goredis.NewClient(opts.redisOptions())

	pingCtx := ctx
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb, closeClient: true}, nil
}

func (s *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Redis) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// miss; leave nil
		case string:
			out[i] = []byte(vv)
		case []byte:
			out[i] = vv
		}
	}
	return out, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // non-positive TTLs mean "no expiry" per store contract
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Redis) MSet(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	pairs := make([]any, 0, 2*len(entries))
	for k, v := range entries {
		pairs = append(pairs, k, v)
	}
	return s.rdb.MSet(ctx, pairs...).Err()
}

func (s *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.Expire(ctx, key, ttl).Result()
}

func (s *Redis) SAdd(ctx context.Context, key string, member []byte) (int64, error) {
	return s.rdb.SAdd(ctx, key, member).Result()
}

func (s *Redis) SMembers(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (s *Redis) SIsMember(ctx context.Context, key string, member []byte) (bool, error) {
	return s.rdb.SIsMember(ctx, key, member).Result()
}

func (s *Redis) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	return s.rdb.Publish(ctx, channel, payload).Result()
}

func (s *Redis) Subscribe(ctx context.Context, channel string) (st.Subscription, error) {
	ps := s.rdb.Subscribe(ctx, channel)
	// Wait for the server to confirm the SUBSCRIBE before handing out the
	// stream, so a Publish right after Subscribe is not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return newSubscription(ps), nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

type subscription struct {
	ps   *goredis.PubSub
	out  chan st.Message
	stop chan struct{}
	once sync.Once
}

var _ st.Subscription = (*subscription)(nil)

func newSubscription(ps *goredis.PubSub) *subscription {
	s := &subscription{
		ps:   ps,
		out:  make(chan st.Message, subscribeBuffer),
		stop: make(chan struct{}),
	}
	go func() {
		defer close(s.out)
		for m := range ps.Channel() {
			select {
			case s.out <- st.Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *subscription) Messages() <-chan st.Message { return s.out }

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.ps.Close()
	})
	return err
}
