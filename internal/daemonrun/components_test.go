package daemonrun

import (
	"context"
	"testing"

	"castos/internal/testsupport"
)

func TestNewComponentsInMemoryCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c, err := NewComponents(cfg, nil)
	if err != nil {
		t.Fatalf("NewComponents: %v", err)
	}
	defer c.Close()

	if c.Cache == nil || c.badger != nil {
		t.Fatal("expected an in-memory cache")
	}
	if c.Generative.Name() != "generative" || c.Grounded.Name() != "grounded" {
		t.Fatalf("client names = %q, %q", c.Generative.Name(), c.Grounded.Name())
	}
	if c.Pool.Size() != 1 {
		t.Fatalf("pool size = %d", c.Pool.Size())
	}
	if n, err := c.ClearCache(); err != nil || n != 0 {
		t.Fatalf("ClearCache = %d, %v", n, err)
	}
}

func TestNewComponentsPersistentCache(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPersistentCache())
	c, err := NewComponents(cfg, nil)
	if err != nil {
		t.Fatalf("NewComponents: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Cache.Set(ctx, "chars:abc", `{"characters":[]}`, 0)
	if _, ok := c.Cache.Get(ctx, "chars:abc"); !ok {
		t.Fatal("expected cached entry")
	}
	n, err := c.ClearCache()
	if err != nil || n != 1 {
		t.Fatalf("ClearCache = %d, %v", n, err)
	}
	if _, ok := c.Cache.Get(ctx, "chars:abc"); ok {
		t.Fatal("entry survived ClearCache")
	}
}

func TestNewComponentsCacheDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Cache.Enabled = false
	c, err := NewComponents(cfg, nil)
	if err != nil {
		t.Fatalf("NewComponents: %v", err)
	}
	if c.Cache != nil {
		t.Fatal("expected no cache")
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewComponentsLockedCacheFallsBackToMemory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPersistentCache())
	holder, err := NewComponents(cfg, nil)
	if err != nil {
		t.Fatalf("first NewComponents: %v", err)
	}
	defer holder.Close()
	if !holder.Persistent() {
		t.Fatal("first components should own the persistent cache")
	}

	second, err := NewComponents(cfg, nil)
	if err != nil {
		t.Fatalf("second NewComponents on a locked cache dir: %v", err)
	}
	defer second.Close()
	if second.Persistent() {
		t.Fatal("second components cannot hold the locked cache")
	}
	if second.Cache == nil || second.Pipeline == nil {
		t.Fatal("second components should still be usable")
	}

	ctx := context.Background()
	second.Cache.Set(ctx, "chars:abc", `{"characters":[]}`, 0)
	if _, ok := second.Cache.Get(ctx, "chars:abc"); !ok {
		t.Fatal("fallback cache should serve its own entries")
	}
	if _, ok := holder.Cache.Get(ctx, "chars:abc"); ok {
		t.Fatal("fallback cache must not write to the locked store")
	}
	if n, err := second.ClearCache(); err != nil || n != 0 {
		t.Fatalf("ClearCache on fallback = %d, %v", n, err)
	}
}
