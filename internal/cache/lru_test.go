package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUCache_GetSet(t *testing.T) {
	c, _ := newTestCache[string](2, time.Minute)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) should miss")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // b is now the oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c, clock := newTestCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(30 * time.Second)
	c.Set("b", 3) // refreshes b's TTL

	clock.Advance(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Errorf("Get(b) = %d, %v", v, ok)
	}

	clock.Advance(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCache_UpdateIsAtomic(t *testing.T) {
	c, _ := newTestCache[int](10, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Update("n", func(cur int, _ bool) int { return cur + 1 })
		}()
	}
	wg.Wait()

	if v, _ := c.Get("n"); v != 50 {
		t.Errorf("Get(n) = %d, want 50", v)
	}
}

func TestManager_CleanNow(t *testing.T) {
	a, clock := newTestCache[int](10, time.Second)
	b := NewLRUCache[int](10, time.Hour)
	b.now = clock.Now

	a.Set("x", 1)
	b.Set("y", 2)
	clock.Advance(time.Minute)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop() // second stop is a no-op
}
