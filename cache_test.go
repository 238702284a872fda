package inkwell

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheGetInvokesLoaderOnce(t *testing.T) {
	c := NewCache()
	calls := 0
	loader := func() (any, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 5; i++ {
		got, err := c.Get("post-x", time.Minute, loader)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "value" {
			t.Fatalf("got %v, want value", got)
		}
	}
	if calls != 1 {
		t.Errorf("loader invoked %d times within TTL, want 1", calls)
	}
}

func TestCacheGetReloadsAfterTTL(t *testing.T) {
	c := NewCache()
	calls := 0
	loader := func() (any, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Get("k", 50*time.Millisecond, loader); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	got, err := c.Get("k", 50*time.Millisecond, loader)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls < 2 {
		t.Errorf("loader not re-invoked after TTL, calls = %d", calls)
	}
	if got != calls {
		t.Errorf("got stale value %v after TTL", got)
	}
}

func TestCacheInvalidateBypassesTTL(t *testing.T) {
	c := NewCache()
	value := "old"
	loader := func() (any, error) { return value, nil }

	if _, err := c.Get("k", time.Hour, loader); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	value = "new"

	// Still fresh: serves the old value.
	got, _ := c.Get("k", time.Hour, loader)
	if got != "old" {
		t.Fatalf("expected cached old value, got %v", got)
	}

	c.Invalidate("k")
	got, err := c.Get("k", time.Hour, loader)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "new" {
		t.Errorf("invalidation did not force a reload, got %v", got)
	}
}

func TestCacheInvalidateAbsentKey(t *testing.T) {
	c := NewCache()
	c.Invalidate("never-set") // must not panic
}

func TestCacheLoaderFailureDoesNotEvictFreshValue(t *testing.T) {
	c := NewCache()
	if _, err := c.Get("k", time.Hour, func() (any, error) { return "good", nil }); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// A fresh value never reaches the loader, so a failing loader cannot
	// corrupt it.
	got, err := c.Get("k", time.Hour, func() (any, error) { return nil, errors.New("store down") })
	if err != nil {
		t.Fatalf("fresh value should serve without invoking loader: %v", err)
	}
	if got != "good" {
		t.Errorf("got %v, want good", got)
	}
}

func TestCacheLoaderFailurePropagates(t *testing.T) {
	c := NewCache()
	boom := errors.New("store down")
	_, err := c.Get("k", time.Hour, func() (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	// The next call retries the loader rather than caching the failure.
	got, err := c.Get("k", time.Hour, func() (any, error) { return "recovered", nil })
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "recovered" {
		t.Errorf("got %v, want recovered", got)
	}
}

func TestCacheConcurrentMissesCoalesce(t *testing.T) {
	c := NewCache()
	var calls atomic.Int32
	loader := func() (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Get("hot", time.Minute, loader)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			if got != "v" {
				t.Errorf("got %v, want v", got)
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("concurrent misses invoked loader %d times, want 1", n)
	}
}

// Misses for keys that never resolve must not accumulate: a crawler walking
// nonexistent slugs would otherwise grow the table without bound.
func TestCacheFailedLoadsLeaveNoResidue(t *testing.T) {
	c := NewCache()
	boom := errors.New("no such row")
	for i := 0; i < 1000; i++ {
		key := postCacheKey(fmt.Sprintf("missing-%d", i))
		if _, err := c.Get(key, time.Hour, func() (any, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Fatalf("expected loader error, got %v", err)
		}
	}

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n != 0 {
		t.Errorf("failed loads left %d entries, want 0", n)
	}
}

func TestCacheInvalidateRemovesEntry(t *testing.T) {
	c := NewCache()
	if _, err := c.Get("k", time.Hour, func() (any, error) { return "v", nil }); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("k")

	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	if n != 0 {
		t.Errorf("invalidated key still occupies the table, %d entries", n)
	}
}

func TestCacheKeysAreIndependent(t *testing.T) {
	c := NewCache()
	if _, err := c.Get("a", time.Hour, func() (any, error) { return 1, nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("b", time.Hour, func() (any, error) { return 2, nil }); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("a")

	got, _ := c.Get("b", time.Hour, func() (any, error) { return 99, nil })
	if got != 2 {
		t.Errorf("invalidating a must not touch b; got %v", got)
	}
}
