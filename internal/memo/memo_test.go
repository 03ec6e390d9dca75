package memo

import (
	"testing"
)

type counter struct{ hits, misses int }

func (c *counter) CacheHit()  { c.hits++ }
func (c *counter) CacheMiss() { c.misses++ }

func TestDoMemoizes(t *testing.T) {
	obs := &counter{}
	c := New(4, obs)
	calls := 0
	compute := func() int { calls++; return 42 }

	key := Key("kpi", "2024-01|2024-03", "on_time_pct")
	for i := 0; i < 3; i++ {
		if got := Do(c, key, compute); got != 42 {
			t.Fatalf("Do = %d, want 42", got)
		}
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
	if obs.hits != 2 || obs.misses != 1 {
		t.Fatalf("hits/misses = %d/%d, want 2/1", obs.hits, obs.misses)
	}
}

func TestLRUEvicts(t *testing.T) {
	c := New(2, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used entry survived")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used entry evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len after purge = %d", c.Len())
	}
}

func TestDisabledCache(t *testing.T) {
	obs := &counter{}
	c := New(0, obs)
	calls := 0
	for i := 0; i < 2; i++ {
		Do(c, "k", func() string { calls++; return "v" })
	}
	if calls != 2 || obs.misses != 2 {
		t.Fatalf("calls = %d, misses = %d", calls, obs.misses)
	}
	var nilCache *Cache
	if got := Do(nilCache, "k", func() string { return "x" }); got != "x" {
		t.Fatalf("nil cache Do = %q", got)
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("a", "b") != Key("a", "b") {
		t.Fatalf("key not deterministic")
	}
	if Key("a", "b") == Key("a|b") && Key("ab") == Key("a", "b") {
		t.Fatalf("unexpected collision")
	}
	if len(Key("x")) != 40 {
		t.Fatalf("key length = %d", len(Key("x")))
	}
}
