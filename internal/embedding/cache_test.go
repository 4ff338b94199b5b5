package embedding

import "testing"

func TestCacheSetGet(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1, 2})
	got, ok := c.Get("a")
	if !ok || len(got) != 2 || got[0] != 1 {
		t.Errorf("Get(a): got %v, %v", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing): expected miss")
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}
}

func TestCacheLRUOrder(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a") // a is now most recent
	c.Set("c", []float32{3})
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("a", []float32{9})
	got, _ := c.Get("a")
	if got[0] != 9 {
		t.Errorf("overwrite: got %v", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len after overwrite: got %d", c.Len())
	}
}
