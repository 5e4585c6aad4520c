package resultcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingBackend) Set(context.Context, string, string, time.Duration) error {
	return errors.New("disk on fire")
}

func TestKeyDependsOnExactText(t *testing.T) {
	a := Key("chars", "A detective hunts a thief.")
	b := Key("chars", "A detective hunts a thief.")
	c := Key("chars", "A detective hunts a thief. ")
	if a != b {
		t.Fatalf("identical text produced different keys: %q vs %q", a, b)
	}
	if a == c {
		t.Fatal("trailing space should change the key")
	}
	if !strings.HasPrefix(a, "chars:") {
		t.Fatalf("key missing prefix: %q", a)
	}
}

func TestCacheRoundTripMemory(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryStore(), "test", time.Hour, nil)

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	cache.Set(ctx, "k", "v", 0)
	got, ok := cache.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("Get = %q, %v; want v, true", got, ok)
	}
}

func TestBackendErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	cache := New(failingBackend{}, "test", time.Hour, nil)

	cache.Set(ctx, "k", "v", time.Minute)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("read error should be reported as a miss")
	}
	var out map[string]any
	if cache.GetJSON(ctx, "k", &out) {
		t.Fatal("GetJSON should miss on backend error")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	cache.Set(ctx, "k", "v", 0)
	cache.SetJSON(ctx, "k", map[string]int{"a": 1}, 0)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("nil cache should always miss")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("entry should be live before expiry")
	}
	now = now.Add(time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("entry should expire once its TTL elapses")
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry not evicted, len=%d", store.Len())
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	cache := New(NewMemoryStore(), "test", time.Hour, nil)

	type payload struct {
		Names []string `json:"names"`
	}
	cache.SetJSON(ctx, "p", payload{Names: []string{"Ada", "Grace"}}, 0)

	var got payload
	if !cache.GetJSON(ctx, "p", &got) {
		t.Fatal("expected hit")
	}
	if len(got.Names) != 2 || got.Names[1] != "Grace" {
		t.Fatalf("unexpected payload: %+v", got)
	}

	cache.Set(ctx, "bad", "{not json", 0)
	if cache.GetJSON(ctx, "bad", &got) {
		t.Fatal("undecodable entry should be a miss")
	}
}

func TestBadgerStore(t *testing.T) {
	store, err := openBadgerInMemory()
	if err != nil {
		t.Fatalf("openBadgerInMemory: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	cache := New(store, "test", time.Hour, nil)
	cache.Set(ctx, Key("chars", "plot"), `{"characters":[]}`, 0)

	got, ok := cache.Get(ctx, Key("chars", "plot"))
	if !ok || got != `{"characters":[]}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if n, err := store.Count(); err != nil || n != 1 {
		t.Fatalf("Count = %d, %v; want 1", n, err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := cache.Get(ctx, Key("chars", "plot")); ok {
		t.Fatal("entry survived Clear")
	}
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	ctx := context.Background()
	if err := store.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, ok, err := reopened.Get(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Fatalf("Get after reopen = %q, %v, %v", got, ok, err)
	}
}
