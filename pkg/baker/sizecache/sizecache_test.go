package sizecache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "sizes"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetPut(t *testing.T) {
	c := openTestCache(t)

	if _, err := c.Get("/media/projects/demo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := c.Put("/media/projects/demo", 123456); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	size, err := c.Get("/media/projects/demo")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if size != 123456 {
		t.Errorf("size = %d, want 123456", size)
	}
}

func TestInvalidate(t *testing.T) {
	c := openTestCache(t)

	if err := c.Put("/p", 42); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate("/p"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := c.Get("/p"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Invalidate() error = %v, want ErrNotFound", err)
	}
}

func TestSizeComputesOnMiss(t *testing.T) {
	c := openTestCache(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	size, err := c.Size(dir)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size != 2048 {
		t.Errorf("size = %d, want 2048", size)
	}

	// Second call serves from cache even if the folder grows.
	if err := os.WriteFile(filepath.Join(dir, "extra.mp4"), make([]byte, 512), 0o644); err != nil {
		t.Fatal(err)
	}
	cached, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cached != 2048 {
		t.Errorf("cached size = %d, want 2048", cached)
	}

	// Until invalidated.
	if err := c.Invalidate(dir); err != nil {
		t.Fatal(err)
	}
	fresh, err := c.Size(dir)
	if err != nil {
		t.Fatal(err)
	}
	if fresh != 2560 {
		t.Errorf("fresh size = %d, want 2560", fresh)
	}
}

func TestSizeMissingFolder(t *testing.T) {
	c := openTestCache(t)

	if _, err := c.Size(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("Size() error = nil for missing folder")
	}
}
