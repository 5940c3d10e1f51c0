package memory

import (
	"fmt"
	"testing"
)

func TestImageCache_PutGet(t *testing.T) {
	c := NewImageCache(4)
	c.Put("docs", "manual_page_0_image", []byte("png-0"))

	got, ok := c.Get("docs", "manual_page_0_image")
	if !ok || string(got) != "png-0" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	if _, ok := c.Get("docs", "missing"); ok {
		t.Error("expected miss for unknown id")
	}
	if _, ok := c.Get("other", "manual_page_0_image"); ok {
		t.Error("expected miss for wrong collection")
	}
}

func TestImageCache_EvictsOldestAtCapacity(t *testing.T) {
	c := NewImageCache(2)
	c.Put("docs", "a", []byte("1"))
	c.Put("docs", "b", []byte("2"))
	c.Put("docs", "c", []byte("3"))

	if _, ok := c.Get("docs", "a"); ok {
		t.Error("oldest entry must be evicted")
	}
	if _, ok := c.Get("docs", "b"); !ok {
		t.Error("second entry must survive")
	}
	if _, ok := c.Get("docs", "c"); !ok {
		t.Error("newest entry must survive")
	}
}

func TestImageCache_OverwriteDoesNotGrow(t *testing.T) {
	c := NewImageCache(2)
	c.Put("docs", "a", []byte("old"))
	c.Put("docs", "a", []byte("new"))
	c.Put("docs", "b", []byte("2"))

	got, ok := c.Get("docs", "a")
	if !ok || string(got) != "new" {
		t.Fatalf("Get after overwrite = %q, %v", got, ok)
	}
}

func TestImageCache_DropCollection(t *testing.T) {
	c := NewImageCache(8)
	for i := 0; i < 3; i++ {
		c.Put("docs", fmt.Sprintf("p%d", i), []byte("x"))
	}
	c.Put("other", "p0", []byte("y"))

	c.DropCollection("docs")

	for i := 0; i < 3; i++ {
		if _, ok := c.Get("docs", fmt.Sprintf("p%d", i)); ok {
			t.Errorf("docs/p%d survived drop", i)
		}
	}
	if _, ok := c.Get("other", "p0"); !ok {
		t.Error("other collection must survive drop")
	}
}
