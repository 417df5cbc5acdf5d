package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCacheGetAfterPut(t *testing.T) {
	c := New[decimal.Decimal](time.Minute)
	c.Put("ton-usd", decimal.RequireFromString("5.5"))

	got, ok := c.Get("ton-usd")
	if !ok {
		t.Fatal("expected hit immediately after Put")
	}
	if !got.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("Get = %s, want 5.5", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[string](20 * time.Second)

	t.Run("fresh entry hits", func(t *testing.T) {
		c.PutAt("k", "v", time.Now().Add(-19*time.Second))
		if _, ok := c.Get("k"); !ok {
			t.Error("entry within TTL should hit")
		}
	})

	t.Run("entry at TTL misses", func(t *testing.T) {
		c.PutAt("k", "v", time.Now().Add(-20*time.Second))
		if _, ok := c.Get("k"); ok {
			t.Error("entry past TTL should miss")
		}
	})

	t.Run("unknown key misses", func(t *testing.T) {
		if _, ok := c.Get("missing"); ok {
			t.Error("unknown key should miss")
		}
	})
}

func TestCacheLastWriterWins(t *testing.T) {
	c := New[int](time.Minute)
	c.Put("k", 1)
	c.Put("k", 2)

	got, ok := c.Get("k")
	if !ok || got != 2 {
		t.Errorf("Get = %d, %v, want 2, true", got, ok)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Put("shared", n)
		}(i)
		go func() {
			defer wg.Done()
			c.Get("shared")
		}()
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Error("expected a value after concurrent writes")
	}
}
