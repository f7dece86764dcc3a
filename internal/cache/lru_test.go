package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCacheWithClock[string](10, time.Second, clk.now)

	c.Set("a", "1")
	c.SetWithTTL("b", "2", 5*time.Second)
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q ok=%v", v, ok)
	}

	clk.advance(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be expired")
	}
	if vals := c.Values(); len(vals) != 1 || vals[0] != "2" {
		t.Fatalf("unexpected live values: %v", vals)
	}

	clk.advance(10 * time.Second)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Size())
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if vals := c.Values(); len(vals) != 2 || vals[0] != 3 || vals[1] != 1 {
		t.Fatalf("unexpected order: %v", vals)
	}
}

func TestManagerCleanNow(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCacheWithClock[int](10, time.Second, clk.now)
	c.Set("a", 1)
	clk.advance(time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	m.Stop()
	m.Stop()
}
