package redikit

import (
	"context"
	"sync"

	st "github.com/unkn0wn-root/redikit/store"
)

// ErrParsingPrefix marks a delivered message that could not be rendered to
// text. The sentinel travels in-band so one bad message never terminates a
// subscription; everything after the prefix is the underlying error detail.
const ErrParsingPrefix = "ERROR_PARSING:"

// Subscription is a live, unbounded stream of textual messages on one
// channel. Structured messages are rendered to their codec form (JSON by
// default); plain string messages pass through as-is; messages that cannot
// be rendered arrive as ErrParsingPrefix sentinels.
//
// C is closed after Close (or when the backend drops the subscription).
// Close deregisters the listener; no further deliveries happen after it
// returns. Safe to call Close multiple times.
type Subscription struct {
	inner st.Subscription
	out   chan string
	stop  chan struct{}
	once  sync.Once
}

// C returns the message channel.
func (s *Subscription) C() <-chan string { return s.out }

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.inner.Close()
	})
	return err
}

func (f *facade) Publish(ctx context.Context, channel string, message any) (int64, error) {
	b, err := f.codec.Marshal(message)
	if err != nil {
		return 0, err
	}
	return f.store.Publish(ctx, channel, b)
}

func (f *facade) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	inner, err := f.store.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	s := &Subscription{
		inner: inner,
		out:   make(chan string, f.subBuf),
		stop:  make(chan struct{}),
	}
	go f.pump(channel, s)
	f.log.Debug("subscribed", Fields{"channel": channel})
	return s, nil
}

func (f *facade) pump(channel string, s *Subscription) {
	defer close(s.out)
	for m := range s.inner.Messages() {
		select {
		case s.out <- f.renderText(channel, m.Payload):
		case <-s.stop:
			return
		}
	}
}

// renderText produces the textual form of one delivery: decode the payload,
// pass strings through, re-encode anything else. Failures at either step
// become sentinels, never stream errors.
func (f *facade) renderText(channel string, payload []byte) string {
	var v any
	if err := f.codec.Unmarshal(payload, &v); err != nil {
		f.log.Warn("undecodable message on channel", Fields{"channel": channel, "err": err})
		return ErrParsingPrefix + err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := f.codec.Marshal(v)
	if err != nil {
		f.log.Warn("unrenderable message on channel", Fields{"channel": channel, "err": err})
		return ErrParsingPrefix + err.Error()
	}
	return string(b)
}
