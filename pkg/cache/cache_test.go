package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New()
	c.Set("a", []byte("one"), time.Minute)

	got, ok := c.Get("a")
	if !ok || string(got) != "one" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("a", []byte("one"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be collected on read, len=%d", c.Len())
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New()
	c.Set("search:1", []byte("x"), time.Minute)
	c.Set("search:2", []byte("y"), time.Minute)
	c.Set("other:1", []byte("z"), time.Minute)

	c.Invalidate("search:")

	if _, ok := c.Get("search:1"); ok {
		t.Fatalf("search:1 should be gone")
	}
	if _, ok := c.Get("search:2"); ok {
		t.Fatalf("search:2 should be gone")
	}
	if _, ok := c.Get("other:1"); !ok {
		t.Fatalf("other:1 should survive")
	}
}

func TestSetCopiesValue(t *testing.T) {
	c := New()
	v := []byte("abc")
	c.Set("a", v, time.Minute)
	v[0] = 'z'

	got, _ := c.Get("a")
	if string(got) != "abc" {
		t.Fatalf("stored value mutated: %q", got)
	}
}
