package redikit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	c "github.com/unkn0wn-root/redikit/codec"
	st "github.com/unkn0wn-root/redikit/store"
)

type facade struct {
	store      st.Store
	codec      c.Codec
	log        Logger
	subBuf     int
	closeStore bool
}

func newFacade(opts Options) (*facade, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("redikit: store is required")
	}

	f := &facade{
		store:      opts.Store,
		closeStore: opts.CloseStore,
	}

	// defaults
	if opts.Codec != nil {
		f.codec = opts.Codec
	} else {
		f.codec = c.JSON{}
	}
	f.log = coalesce[Logger](opts.Logger, NopLogger{})
	f.subBuf = coalesce[int](opts.SubscribeBuffer, 64)

	return f, nil
}

func (f *facade) Store() st.Store { return f.store }
func (f *facade) Codec() c.Codec  { return f.codec }

func (f *facade) Close(ctx context.Context) error {
	if f.closeStore {
		return f.store.Close(ctx)
	}
	return nil
}

func (f *facade) Exists(ctx context.Context, key string) (bool, error) {
	return f.store.Exists(ctx, key)
}

func (f *facade) Get(ctx context.Context, key string) (any, bool, error) {
	raw, ok, err := f.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var v any
	if err := f.codec.Unmarshal(raw, &v); err != nil {
		return nil, false, &ConversionError{Key: key, Err: err}
	}
	return v, true, nil
}

func (f *facade) MultiGet(ctx context.Context, keys []string) ([]any, error) {
	if len(keys) == 0 {
		return nil, nil // no backend call
	}
	return f.MGet(ctx, keys)
}

func (f *facade) MGet(ctx context.Context, keys []string) ([]any, error) {
	raws, err := f.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(raws))
	for i, b := range raws {
		if b == nil {
			continue // miss stays nil, position preserved
		}
		var v any
		if err := f.codec.Unmarshal(b, &v); err != nil {
			return nil, &ConversionError{Key: keys[i], Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func (f *facade) Set(ctx context.Context, key string, value any) error {
	return f.set(ctx, key, value, 0)
}

func (f *facade) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return f.set(ctx, key, value, ttl)
}

func (f *facade) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := f.codec.Marshal(value)
	if err != nil {
		return err
	}
	ok, err := f.store.Set(ctx, key, b, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return &WriteError{Key: key, Op: OpSet}
	}
	return nil
}

func (f *facade) MultiSet(ctx context.Context, entries map[string]any) error {
	return f.multiSet(ctx, entries, 0, nil)
}

func (f *facade) MultiSetTTL(ctx context.Context, entries map[string]any, ttl time.Duration) error {
	return f.multiSet(ctx, entries, ttl, nil)
}

func (f *facade) MultiSetTTLs(ctx context.Context, entries map[string]any, ttls map[string]time.Duration) error {
	return f.multiSet(ctx, entries, 0, ttls)
}

func (f *facade) multiSet(ctx context.Context, entries map[string]any, shared time.Duration, perKey map[string]time.Duration) error {
	if len(entries) == 0 {
		return nil // no backend call
	}

	enc := make(map[string][]byte, len(entries))
	for k, v := range entries {
		b, err := f.codec.Marshal(v)
		if err != nil {
			return err
		}
		enc[k] = b
	}
	if err := f.store.MSet(ctx, enc); err != nil {
		return err
	}

	// TTLs go on as a second, non-atomic step once the batch write landed.
	// The expire fan-out is joined before returning; individual failures
	// are logged, not returned (keys already hold their values at this
	// point, they just won't expire).
	var g errgroup.Group
	issued := 0
	for k := range entries {
		ttl := shared
		if perKey != nil {
			t, ok := perKey[k]
			if !ok {
				continue
			}
			ttl = t
		}
		if ttl <= 0 {
			continue
		}
		issued++
		g.Go(func() error {
			ok, err := f.store.Expire(ctx, k, ttl)
			if err != nil {
				return fmt.Errorf("expire %q: %w", k, err)
			}
			if !ok {
				return fmt.Errorf("expire %q: no effect", k)
			}
			return nil
		})
	}
	if issued == 0 {
		return nil
	}
	if err := g.Wait(); err != nil {
		f.log.Warn("multi-set ttl fan-out reported failures", Fields{"err": err, "issued": issued})
	}
	return nil
}

func (f *facade) Members(ctx context.Context, key string) ([]any, error) {
	raws, err := f.store.SMembers(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(raws))
	for i, b := range raws {
		var v any
		if err := f.codec.Unmarshal(b, &v); err != nil {
			return nil, &ConversionError{Key: key, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func (f *facade) AddToSet(ctx context.Context, key string, value any) (int64, error) {
	b, err := f.codec.Marshal(value)
	if err != nil {
		return 0, err
	}
	return f.store.SAdd(ctx, key, b)
}

func (f *facade) AddToSetTTL(ctx context.Context, key string, value any, ttl time.Duration) (int64, error) {
	added, err := f.AddToSet(ctx, key, value)
	if err != nil {
		return 0, err
	}
	if added == 0 {
		return 0, &WriteError{Key: key, Op: OpSetAdd}
	}
	ok, err := f.store.Expire(ctx, key, ttl)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &WriteError{Key: key, Op: OpExpire}
	}
	return added, nil
}

func (f *facade) IsMember(ctx context.Context, key string, value any) (bool, error) {
	b, err := f.codec.Marshal(value)
	if err != nil {
		return false, err
	}
	return f.store.SIsMember(ctx, key, b)
}
