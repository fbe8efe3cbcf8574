package artwork

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGet_FolderImageFallback(t *testing.T) {
	dir := t.TempDir()
	trackPath := filepath.Join(dir, "song.mp3")
	os.WriteFile(trackPath, []byte("not really audio"), 0o644)
	image := []byte("jpeg bytes")
	os.WriteFile(filepath.Join(dir, "cover.jpg"), image, 0o644)

	c, err := NewCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	data, err := c.Get(trackPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, image) {
		t.Error("expected the folder cover image")
	}

	// Second lookup is served from the cache even after the source
	// image disappears.
	os.Remove(filepath.Join(dir, "cover.jpg"))
	data, err = c.Get(trackPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, image) {
		t.Error("expected the cached image")
	}
}

func TestGet_NoArtwork(t *testing.T) {
	dir := t.TempDir()
	trackPath := filepath.Join(dir, "song.mp3")
	os.WriteFile(trackPath, []byte("x"), 0o644)

	c, err := NewCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(trackPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestEviction(t *testing.T) {
	cacheDir := t.TempDir()
	c, err := NewCache(cacheDir, 25) // room for two 10-byte images
	if err != nil {
		t.Fatal(err)
	}

	if err := c.put("/music/a.mp3", []byte("aaaaaaaaaa")); err != nil {
		t.Fatal(err)
	}
	if err := c.put("/music/b.mp3", []byte("bbbbbbbbbb")); err != nil {
		t.Fatal(err)
	}
	if err := c.put("/music/c.mp3", []byte("cccccccccc")); err != nil {
		t.Fatal(err)
	}

	if c.Size() > 25 {
		t.Errorf("cache exceeded its bound: %d bytes", c.Size())
	}
	// The oldest entry is the one evicted.
	if _, ok := c.cached("/music/a.mp3"); ok {
		t.Error("expected the least recently used entry to be evicted")
	}
	if _, ok := c.cached("/music/c.mp3"); !ok {
		t.Error("expected the newest entry to survive")
	}
}

func TestPersistenceAcrossSessions(t *testing.T) {
	cacheDir := t.TempDir()
	c, err := NewCache(cacheDir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.put("/music/a.mp3", []byte("image")); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewCache(cacheDir, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	data, ok := reopened.cached("/music/a.mp3")
	if !ok || !bytes.Equal(data, []byte("image")) {
		t.Error("expected the entry to survive a restart")
	}
	if reopened.Size() != 5 {
		t.Errorf("expected size 5, got %d", reopened.Size())
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c, err := NewCache(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	c.put("/music/a.mp3", []byte("image"))

	c.Invalidate("/music/a.mp3")
	if _, ok := c.cached("/music/a.mp3"); ok {
		t.Error("expected the entry to be gone after invalidation")
	}

	c.put("/music/b.mp3", []byte("image"))
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if c.Size() != 0 {
		t.Errorf("expected empty cache, got %d bytes", c.Size())
	}
	// The directory is recreated so the cache stays usable.
	if err := c.put("/music/c.mp3", []byte("image")); err != nil {
		t.Errorf("cache unusable after clear: %v", err)
	}
}
