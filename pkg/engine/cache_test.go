package engine

import (
	"strconv"
	"testing"
)

func dummy(src string) *CompiledExpression {
	return &CompiledExpression{Source: src}
}

func TestLRUEviction(t *testing.T) {
	c := newLRUCache(2)

	c.Put("a", dummy("a"))
	c.Put("b", dummy("b"))
	c.Put("c", dummy("c")) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should still be cached")
	}
}

func TestLRURecencyOrder(t *testing.T) {
	c := newLRUCache(2)

	c.Put("a", dummy("a"))
	c.Put("b", dummy("b"))
	c.Get("a")             // a is now most recent
	c.Put("c", dummy("c")) // evicts b

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive")
	}
}

func TestLRUUpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.Put("a", dummy("first"))
	c.Put("a", dummy("second"))

	got, ok := c.Get("a")
	if !ok || got.Source != "second" {
		t.Errorf("got %+v, want the replacement", got)
	}
	if c.Stats().Size != 1 {
		t.Errorf("size = %d, want 1", c.Stats().Size)
	}
}

func TestLRUStats(t *testing.T) {
	c := newLRUCache(4)

	c.Get("missing")
	c.Put("a", dummy("a"))
	c.Get("a")
	c.Get("a")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}
	if stats.MaxSize != 4 {
		t.Errorf("max size = %d, want 4", stats.MaxSize)
	}

	c.Clear()
	if s := c.Stats(); s.Size != 0 || s.Hits != 0 || s.Misses != 0 {
		t.Errorf("stats after clear = %+v", s)
	}
}

func TestLRUCapacityHeld(t *testing.T) {
	c := newLRUCache(8)
	for i := 0; i < 100; i++ {
		c.Put("key"+strconv.Itoa(i), dummy("v"))
	}
	if size := c.Stats().Size; size != 8 {
		t.Errorf("size = %d, want capacity 8", size)
	}
}
