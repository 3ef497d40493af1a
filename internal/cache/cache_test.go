// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	c.Set("feed:alice", []string{"post-1", "post-2"})

	got, ok := c.Get("feed:alice")
	if !ok {
		t.Fatal("expected cache hit")
	}
	items, ok := got.([]string)
	if !ok || len(items) != 2 {
		t.Fatalf("unexpected cached value: %v", got)
	}
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss for unknown key")
	}

	stats := c.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestCacheExpiredEntryIsMiss(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	c.SetWithTTL("velocity:post-1", 42.0, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("velocity:post-1"); ok {
		t.Fatal("expired entry must be reported as a miss")
	}

	stats := c.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheInvalidatePrefix(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	c.Set("profile:alice", 1)
	c.Set("profile:alice:feed", 2)
	c.Set("profile:bob", 3)
	c.Set("trending:post", 4)

	evicted := c.InvalidatePrefix("profile:alice")
	if evicted != 2 {
		t.Fatalf("evicted = %d, want 2", evicted)
	}

	if _, ok := c.Get("profile:alice"); ok {
		t.Error("profile:alice should have been invalidated")
	}
	if _, ok := c.Get("profile:bob"); !ok {
		t.Error("profile:bob should have survived")
	}
	if _, ok := c.Get("trending:post"); !ok {
		t.Error("trending:post should have survived")
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Error("entry survived Clear")
	}
	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d, want 0", stats.TotalKeys)
	}
}

func TestCacheHitRate(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	if rate := c.HitRate(); rate != 0.0 {
		t.Errorf("empty cache hit rate = %f, want 0", rate)
	}

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	want := float64(2) / float64(3) * 100.0
	if rate := c.HitRate(); rate != want {
		t.Errorf("hit rate = %f, want %f", rate, want)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%4)
			for j := 0; j < 100; j++ {
				c.Set(key, j)
				c.Get(key)
				if j%10 == 0 {
					c.InvalidatePrefix("key-")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGenerateKeyDeterministic(t *testing.T) {
	t.Parallel()

	type params struct {
		UserID string
		Limit  int
	}

	k1 := GenerateKey("feed", params{UserID: "alice", Limit: 20})
	k2 := GenerateKey("feed", params{UserID: "alice", Limit: 20})
	k3 := GenerateKey("feed", params{UserID: "bob", Limit: 20})

	if k1 != k2 {
		t.Errorf("equal params produced different keys: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("different params produced the same key")
	}
}
