// Package local backs redikit with an in-process store. It exists for tests
// and single-process deployments; semantics mirror the Redis backend where
// they matter (per-key expiry, duplicate set adds, pub/sub receiver counts).
package local

import (
	"context"
	"sync"
	"time"

	st "github.com/unkn0wn-root/redikit/store"
)

// subscribeBuffer is the capacity of the per-subscription delivery channel.
// Slow subscribers that fall this far behind lose messages, same as a
// disconnected Redis subscriber would.
const subscribeBuffer = 100

type kvEntry struct {
	value []byte
	exp   time.Time // zero => no expiry
}

type setEntry struct {
	members map[string][]byte // keyed by string(member) for dedupe
	exp     time.Time
}

// Local is an in-process store.Store. Expired entries are dropped lazily on
// access; an optional janitor sweeps them in the background.
type Local struct {
	mu   sync.RWMutex
	kv   map[string]kvEntry
	sets map[string]*setEntry
	subs map[string]map[*subscription]struct{}

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

var _ st.Store = (*Local)(nil)

// New creates a local store. sweepInterval > 0 starts a janitor that prunes
// expired entries periodically; 0 relies on lazy expiry only.
func New(sweepInterval time.Duration) *Local {
	l := &Local{
		kv:   make(map[string]kvEntry),
		sets: make(map[string]*setEntry),
		subs: make(map[string]map[*subscription]struct{}),
	}
	if sweepInterval > 0 {
		l.ticker = time.NewTicker(sweepInterval)
		l.stopCh = make(chan struct{})
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			for {
				select {
				case <-l.ticker.C:
					l.sweep()
				case <-l.stopCh:
					return
				}
			}
		}()
	}
	return l
}

func alive(exp time.Time) bool {
	return exp.IsZero() || time.Now().Before(exp)
}

func (l *Local) sweep() {
	now := time.Now()
	l.mu.Lock()
	for k, e := range l.kv {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(l.kv, k)
		}
	}
	for k, e := range l.sets {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(l.sets, k)
		}
	}
	l.mu.Unlock()
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.kv[key]; ok && alive(e.exp) {
		return true, nil
	}
	if e, ok := l.sets[key]; ok && alive(e.exp) {
		return true, nil
	}
	return false, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	l.mu.RLock()
	e, ok := l.kv[key]
	l.mu.RUnlock()
	if !ok || !alive(e.exp) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (l *Local) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	l.mu.RLock()
	for i, k := range keys {
		if e, ok := l.kv[k]; ok && alive(e.exp) {
			out[i] = e.value
		}
	}
	l.mu.RUnlock()
	return out, nil
}

func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	l.mu.Lock()
	l.kv[key] = kvEntry{value: value, exp: exp}
	l.mu.Unlock()
	return true, nil
}

func (l *Local) MSet(_ context.Context, entries map[string][]byte) error {
	l.mu.Lock()
	for k, v := range entries {
		l.kv[k] = kvEntry{value: v}
	}
	l.mu.Unlock()
	return nil
}

func (l *Local) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	exp := time.Now().Add(ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.kv[key]; ok && alive(e.exp) {
		e.exp = exp
		l.kv[key] = e
		return true, nil
	}
	if e, ok := l.sets[key]; ok && alive(e.exp) {
		e.exp = exp
		return true, nil
	}
	return false, nil
}

// Deadline reports the expiry set on key, if any. Test/introspection helper,
// not part of the store.Store contract.
func (l *Local) Deadline(key string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.kv[key]; ok && !e.exp.IsZero() {
		return e.exp, true
	}
	if e, ok := l.sets[key]; ok && !e.exp.IsZero() {
		return e.exp, true
	}
	return time.Time{}, false
}

func (l *Local) SAdd(_ context.Context, key string, member []byte) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.sets[key]
	if !ok || !alive(e.exp) {
		e = &setEntry{members: make(map[string][]byte)}
		l.sets[key] = e
	}
	if _, dup := e.members[string(member)]; dup {
		return 0, nil
	}
	e.members[string(member)] = member
	return 1, nil
}

func (l *Local) SMembers(_ context.Context, key string) ([][]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.sets[key]
	if !ok || !alive(e.exp) {
		return nil, nil
	}
	out := make([][]byte, 0, len(e.members))
	for _, m := range e.members {
		out = append(out, m)
	}
	return out, nil
}

func (l *Local) SIsMember(_ context.Context, key string, member []byte) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.sets[key]
	if !ok || !alive(e.exp) {
		return false, nil
	}
	_, in := e.members[string(member)]
	return in, nil
}

func (l *Local) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	msg := st.Message{Channel: channel, Payload: payload}
	var n int64
	l.mu.RLock()
	for s := range l.subs[channel] {
		select {
		case s.out <- msg:
		default: // slow subscriber; drop
		}
		n++
	}
	l.mu.RUnlock()
	return n, nil
}

func (l *Local) Subscribe(_ context.Context, channel string) (st.Subscription, error) {
	s := &subscription{
		l:       l,
		channel: channel,
		out:     make(chan st.Message, subscribeBuffer),
	}
	l.mu.Lock()
	if l.subs[channel] == nil {
		l.subs[channel] = make(map[*subscription]struct{})
	}
	l.subs[channel][s] = struct{}{}
	l.mu.Unlock()
	return s, nil
}

func (l *Local) Close(_ context.Context) error {
	if l.stopCh != nil {
		close(l.stopCh)
		l.ticker.Stop()
		l.wg.Wait()
		l.stopCh = nil
	}
	l.mu.Lock()
	for ch, set := range l.subs {
		for s := range set {
			close(s.out)
		}
		delete(l.subs, ch)
	}
	l.mu.Unlock()
	return nil
}

type subscription struct {
	l       *Local
	channel string
	out     chan st.Message
	once    sync.Once
}

var _ st.Subscription = (*subscription)(nil)

func (s *subscription) Messages() <-chan st.Message { return s.out }

// Close deregisters the subscription. Publishes send under the store's read
// lock and deregistration takes the write lock, so no send can race the
// channel close.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.l.mu.Lock()
		if set, ok := s.l.subs[s.channel]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.l.subs, s.channel)
			}
			close(s.out)
		}
		s.l.mu.Unlock()
	})
	return nil
}
