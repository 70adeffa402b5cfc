package redikit

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/redikit/codec"
)

// Typed reads live here as package-level generics (Go methods cannot have
// type parameters). Conversion is structural through the facade's codec:
// unknown fields in the stored value are dropped, incompatible shapes fail
// with *ConversionError.

// GetAs fetches key and converts the raw value into T.
func GetAs[T any](ctx context.Context, f Facade, key string) (T, bool, error) {
	var zero T
	raw, ok, err := f.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := codec.Convert(f.Codec(), raw, &v); err != nil {
		return zero, false, &ConversionError{Key: key, Err: err}
	}
	return v, true, nil
}

// MembersAs returns the set at key with every member converted to T.
// The first member that fails conversion fails the whole result; there is
// no partial success.
func MembersAs[T any](ctx context.Context, f Facade, key string) ([]T, error) {
	raws, err := f.Members(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(raws))
	for i, r := range raws {
		if err := codec.Convert(f.Codec(), r, &out[i]); err != nil {
			return nil, &ConversionError{Key: key, Err: err}
		}
	}
	return out, nil
}

// TypedSubscription is a Subscription whose messages are decoded into T.
//
// Unlike the textual stream, the decode step here is NOT downgraded to a
// sentinel: the first message that fails to decode terminates the stream,
// closes C, and is reported by Err.
type TypedSubscription[T any] struct {
	inner *Subscription
	out   chan T
	stop  chan struct{}
	once  sync.Once

	mu  sync.Mutex
	err error
}

// C returns the typed message channel. It is closed on Close or on the
// first decode failure.
func (s *TypedSubscription[T]) C() <-chan T { return s.out }

// Err returns the error that terminated the stream, if any. Meaningful
// after C is closed.
func (s *TypedSubscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *TypedSubscription[T]) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.inner.Close()
	})
	return err
}

func (s *TypedSubscription[T]) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	_ = s.Close()
}

// SubscribeAs opens a typed stream on channel: each textual message is
// decoded into T through the facade's codec.
func SubscribeAs[T any](ctx context.Context, f Facade, channel string) (*TypedSubscription[T], error) {
	inner, err := f.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	s := &TypedSubscription[T]{
		inner: inner,
		out:   make(chan T, cap(inner.out)),
		stop:  make(chan struct{}),
	}
	go func() {
		defer close(s.out)
		for text := range inner.C() {
			var v T
			if err := f.Codec().Unmarshal([]byte(text), &v); err != nil {
				s.fail(&ConversionError{Key: channel, Err: err})
				return
			}
			select {
			case s.out <- v:
			case <-s.stop:
				return
			}
		}
	}()
	return s, nil
}
