package redikit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	st "github.com/unkn0wn-root/redikit/store"
	"github.com/unkn0wn-root/redikit/store/local"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// countingStore records backend traffic so tests can assert which calls were
// (not) issued. Delegates everything to the wrapped store.
type countingStore struct {
	st.Store
	mu      sync.Mutex
	calls   map[string]int
	expires map[string]time.Duration
}

func newCountingStore(inner st.Store) *countingStore {
	return &countingStore{
		Store:   inner,
		calls:   make(map[string]int),
		expires: make(map[string]time.Duration),
	}
}

func (s *countingStore) bump(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *countingStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *countingStore) expireTTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, ok := s.expires[key]
	return ttl, ok
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.bump("get")
	return s.Store.Get(ctx, key)
}

func (s *countingStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	s.bump("mget")
	return s.Store.MGet(ctx, keys...)
}

func (s *countingStore) MSet(ctx context.Context, entries map[string][]byte) error {
	s.bump("mset")
	return s.Store.MSet(ctx, entries)
}

func (s *countingStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.bump("expire")
	s.mu.Lock()
	s.expires[key] = ttl
	s.mu.Unlock()
	return s.Store.Expire(ctx, key, ttl)
}

// flakyStore simulates a backend that acknowledges calls but reports no
// effect.
type flakyStore struct {
	st.Store
	rejectSet    bool
	rejectExpire bool
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if s.rejectSet {
		return false, nil
	}
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *flakyStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.rejectExpire {
		return false, nil
	}
	return s.Store.Expire(ctx, key, ttl)
}

func newTestFacade(t *testing.T, s st.Store) Facade {
	t.Helper()
	f, err := New(Options{Store: s})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("New without store should fail")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, local.New(0))

	v := user{ID: "1", Name: "Ada"}
	if err := f.Set(ctx, "u:1", v); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ok, err := f.Exists(ctx, "u:1")
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}

	// Raw get yields the codec's generic shape.
	raw, ok, err := f.Get(ctx, "u:1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	m, isMap := raw.(map[string]any)
	if !isMap || m["id"] != "1" || m["name"] != "Ada" {
		t.Fatalf("raw value mismatch: %#v", raw)
	}

	// Typed get converts back to the struct.
	got, ok, err := GetAs[user](ctx, f, "u:1")
	if err != nil || !ok || got != v {
		t.Fatalf("GetAs: ok=%v err=%v got=%v", ok, err, got)
	}
}

func TestGetMiss(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, local.New(0))

	if _, ok, err := f.Get(ctx, "nope"); err != nil || ok {
		t.Fatalf("Get miss: ok=%v err=%v", ok, err)
	}
	if _, ok, err := GetAs[user](ctx, f, "nope"); err != nil || ok {
		t.Fatalf("GetAs miss: ok=%v err=%v", ok, err)
	}
}

func TestGetAsConversionError(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, local.New(0))

	// An array cannot be shaped into a struct.
	if err := f.Set(ctx, "k", []int{1, 2, 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, _, err := GetAs[user](ctx, f, "k")
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Key != "k" {
		t.Fatalf("ConversionError key = %q", convErr.Key)
	}
}

func TestMultiGetEmptyShortCircuit(t *testing.T) {
	ctx := context.Background()
	cs := newCountingStore(local.New(0))
	f := newTestFacade(t, cs)

	out, err := f.MultiGet(ctx, nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("MultiGet(nil): out=%v err=%v", out, err)
	}
	if n := cs.total(); n != 0 {
		t.Fatalf("MultiGet(nil) issued %d backend calls", n)
	}

	// MGet is the overload without the short-circuit.
	if _, err := f.MGet(ctx, nil); err != nil {
		t.Fatalf("MGet(nil): %v", err)
	}
	if n := cs.count("mget"); n != 1 {
		t.Fatalf("MGet(nil) should hit the backend, mget calls = %d", n)
	}
}

func TestMultiGetOrderAndMisses(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, local.New(0))

	if err := f.Set(ctx, "a", 1); err != nil {
		t.Fatalf("Set a: %v", err)
	}
	if err := f.Set(ctx, "c", 3); err != nil {
		t.Fatalf("Set c: %v", err)
	}

	out, err := f.MultiGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MultiGet: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("MultiGet len = %d", len(out))
	}
	if out[0] != float64(1) || out[1] != nil || out[2] != float64(3) {
		t.Fatalf("MultiGet values = %#v", out)
	}
}

func TestSetNotAcknowledged(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, &flakyStore{Store: local.New(0), rejectSet: true})

	err := f.Set(ctx, "k1", "v")
	var wErr *WriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if !strings.Contains(err.Error(), "k1") {
		t.Fatalf("message should contain the key: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "Failed to save key:") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestMultiSetSharedTTL(t *testing.T) {
	ctx := context.Background()
	lp := local.New(0)
	cs := newCountingStore(lp)
	f := newTestFacade(t, cs)

	entries := map[string]any{"a": 1, "b": 2}
	if err := f.MultiSetTTL(ctx, entries, 5*time.Second); err != nil {
		t.Fatalf("MultiSetTTL: %v", err)
	}
	if n := cs.count("mset"); n != 1 {
		t.Fatalf("expected one batch write, got %d", n)
	}
	if n := cs.count("expire"); n != 2 {
		t.Fatalf("expected expire per key, got %d", n)
	}

	for _, k := range []string{"a", "b"} {
		dl, ok := lp.Deadline(k)
		if !ok {
			t.Fatalf("key %q has no deadline", k)
		}
		if d := time.Until(dl); d < 4*time.Second || d > 6*time.Second {
			t.Fatalf("key %q deadline %v off target", k, d)
		}
	}
}

func TestMultiSetIndividualTTL(t *testing.T) {
	ctx := context.Background()
	lp := local.New(0)
	f := newTestFacade(t, lp)

	entries := map[string]any{"a": 1, "b": 2}
	ttls := map[string]time.Duration{"a": 5 * time.Second}
	if err := f.MultiSetTTLs(ctx, entries, ttls); err != nil {
		t.Fatalf("MultiSetTTLs: %v", err)
	}

	if _, ok := lp.Deadline("a"); !ok {
		t.Fatalf("a should have a deadline")
	}
	if _, ok := lp.Deadline("b"); ok {
		t.Fatalf("b should not have a deadline")
	}
}

// Expire failures after the batch write are joined but swallowed; the
// operation still reports success and the values stay readable.
func TestMultiSetTTLSwallowsExpireFailures(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, &flakyStore{Store: local.New(0), rejectExpire: true})

	if err := f.MultiSetTTL(ctx, map[string]any{"a": 1, "b": 2}, time.Minute); err != nil {
		t.Fatalf("MultiSetTTL should swallow expire failures, got %v", err)
	}
	if _, ok, err := f.Get(ctx, "a"); err != nil || !ok {
		t.Fatalf("value should be written despite expire failure: ok=%v err=%v", ok, err)
	}
}

func TestMultiSetEmptyNoop(t *testing.T) {
	ctx := context.Background()
	cs := newCountingStore(local.New(0))
	f := newTestFacade(t, cs)

	if err := f.MultiSet(ctx, nil); err != nil {
		t.Fatalf("MultiSet(nil): %v", err)
	}
	if err := f.MultiSetTTL(ctx, map[string]any{}, time.Minute); err != nil {
		t.Fatalf("MultiSetTTL(empty): %v", err)
	}
	if n := cs.total(); n != 0 {
		t.Fatalf("empty batch writes issued %d backend calls", n)
	}
}

func TestSetCollection(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, local.New(0))

	a := user{ID: "1", Name: "Ada"}
	b := user{ID: "2", Name: "Bob"}

	if n, err := f.AddToSet(ctx, "users", a); err != nil || n != 1 {
		t.Fatalf("AddToSet a: n=%d err=%v", n, err)
	}
	if n, err := f.AddToSet(ctx, "users", b); err != nil || n != 1 {
		t.Fatalf("AddToSet b: n=%d err=%v", n, err)
	}
	// Duplicate add is 0, not an error, on the plain path.
	if n, err := f.AddToSet(ctx, "users", a); err != nil || n != 0 {
		t.Fatalf("AddToSet dup: n=%d err=%v", n, err)
	}

	in, err := f.IsMember(ctx, "users", a)
	if err != nil || !in {
		t.Fatalf("IsMember a: in=%v err=%v", in, err)
	}
	in, err = f.IsMember(ctx, "users", user{ID: "3"})
	if err != nil || in {
		t.Fatalf("IsMember stranger: in=%v err=%v", in, err)
	}

	members, err := MembersAs[user](ctx, f, "users")
	if err != nil {
		t.Fatalf("MembersAs: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("MembersAs len = %d", len(members))
	}
	seen := map[string]bool{}
	for _, m := range members {
		seen[m.ID] = true
	}
	if !seen["1"] || !seen["2"] {
		t.Fatalf("MembersAs members = %v", members)
	}
}

func TestMembersAsConversionFailsWhole(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, local.New(0))

	if _, err := f.AddToSet(ctx, "mixed", []int{1, 2}); err != nil {
		t.Fatalf("AddToSet: %v", err)
	}
	if _, err := MembersAs[user](ctx, f, "mixed"); err == nil {
		t.Fatalf("expected conversion failure")
	}
}

func TestAddToSetTTL(t *testing.T) {
	ctx := context.Background()
	lp := local.New(0)
	f := newTestFacade(t, lp)

	n, err := f.AddToSetTTL(ctx, "s", "v", time.Second)
	if err != nil || n != 1 {
		t.Fatalf("AddToSetTTL: n=%d err=%v", n, err)
	}
	if _, ok := lp.Deadline("s"); !ok {
		t.Fatalf("set key should have a deadline")
	}

	// Duplicate add reports zero effect and fails.
	_, err = f.AddToSetTTL(ctx, "s", "v", time.Second)
	if err == nil || !strings.Contains(err.Error(), "Failed to add value to set: s") {
		t.Fatalf("expected sadd WriteError, got %v", err)
	}
}

func TestAddToSetTTLExpireRejected(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t, &flakyStore{Store: local.New(0), rejectExpire: true})

	_, err := f.AddToSetTTL(ctx, "s", "v", time.Second)
	var wErr *WriteError
	if !errors.As(err, &wErr) || wErr.Op != OpExpire {
		t.Fatalf("expected expire WriteError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Failed to set TTL for key: s") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestCloseOwnership(t *testing.T) {
	ctx := context.Background()
	lp := local.New(0)

	// Not owned: Close leaves the store usable.
	f := newTestFacade(t, lp)
	if err := f.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := lp.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("store should survive facade close: %v", err)
	}

	// Owned: Close tears the store down.
	owned, err := New(Options{Store: local.New(0), CloseStore: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := owned.Close(ctx); err != nil {
		t.Fatalf("Close owned: %v", err)
	}
}
