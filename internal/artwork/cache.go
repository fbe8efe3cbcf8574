// Package artwork extracts cover images for tracks and keeps them in a
// size-bounded LRU disk cache so repeated lookups never re-read the
// audio file.
package artwork

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/halvard/chime/internal/library"
)

// Fallback image names probed in the track's directory when the file
// carries no embedded picture.
var folderImages = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

type entry struct {
	key     string
	path    string
	size    int64
	element *list.Element
}

// Cache is an LRU disk cache of extracted cover images, keyed by track
// path. Entries persist across sessions; the directory is re-scanned on
// startup.
type Cache struct {
	mu          sync.Mutex
	dir         string
	maxSize     int64
	currentSize int64

	entries map[string]*entry
	lru     *list.List

	// Per-key extraction locks so concurrent requests for the same
	// track extract once.
	extracting sync.Map // map[string]*sync.Mutex
}

// NewCache opens (or creates) the cache directory and loads existing
// entries from disk.
func NewCache(dir string, maxSizeBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artwork cache directory: %w", err)
	}

	c := &Cache{
		dir:     dir,
		maxSize: maxSizeBytes,
		entries: make(map[string]*entry),
		lru:     list.New(),
	}
	if err := c.scan(); err != nil {
		return nil, fmt.Errorf("failed to scan artwork cache: %w", err)
	}
	return c, nil
}

func (c *Cache) scan() error {
	return filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if filepath.Ext(path) == ".tmp" {
			return nil
		}

		e := &entry{
			key:  filepath.Base(path),
			path: path,
			size: info.Size(),
		}
		e.element = c.lru.PushBack(e)
		c.entries[e.key] = e
		c.currentSize += info.Size()
		return nil
	})
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) keyToPath(key string) string {
	return filepath.Join(c.dir, hashKey(key))
}

// Get returns the cover image for the track, extracting and caching it
// on a miss. A track with no artwork anywhere returns os.ErrNotExist.
func (c *Cache) Get(trackPath string) ([]byte, error) {
	if data, ok := c.cached(trackPath); ok {
		return data, nil
	}

	// Single-flight per track path.
	lockAny, _ := c.extracting.LoadOrStore(trackPath, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	lock.Lock()
	defer func() {
		lock.Unlock()
		c.extracting.Delete(trackPath)
	}()

	// Another request may have filled the cache while we waited.
	if data, ok := c.cached(trackPath); ok {
		return data, nil
	}

	data, err := extract(trackPath)
	if err != nil {
		return nil, err
	}
	if err := c.put(trackPath, data); err != nil {
		log.Printf("Failed to cache artwork for %s: %v", trackPath, err)
	}
	return data, nil
}

// cached returns the entry from disk if present, repairing the index
// when the file has disappeared underneath it.
func (c *Cache) cached(trackPath string) ([]byte, bool) {
	c.mu.Lock()

	hash := hashKey(trackPath)
	e, ok := c.entries[hash]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	c.lru.MoveToFront(e.element)
	path := e.path
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		c.mu.Lock()
		if e, ok := c.entries[hash]; ok {
			c.removeLocked(e)
		}
		c.mu.Unlock()
		return nil, false
	}
	return data, true
}

func (c *Cache) put(trackPath string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := hashKey(trackPath)
	if e, ok := c.entries[hash]; ok {
		c.lru.MoveToFront(e.element)
		return nil
	}

	path := c.keyToPath(trackPath)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artwork file: %w", err)
	}

	size := int64(len(data))
	for c.currentSize+size > c.maxSize && c.lru.Len() > 0 {
		c.evictOldest()
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize artwork file: %w", err)
	}

	e := &entry{key: hash, path: path, size: size}
	e.element = c.lru.PushFront(e)
	c.entries[hash] = e
	c.currentSize += size
	return nil
}

func (c *Cache) evictOldest() {
	element := c.lru.Back()
	if element == nil {
		return
	}
	e := element.Value.(*entry)
	c.removeLocked(e)
}

func (c *Cache) removeLocked(e *entry) {
	c.lru.Remove(e.element)
	delete(c.entries, e.key)
	c.currentSize -= e.size
	os.Remove(e.path)
}

// Invalidate drops a track's cached image, e.g. after its file changed.
func (c *Cache) Invalidate(trackPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[hashKey(trackPath)]; ok {
		c.removeLocked(e)
	}
}

// Clear removes every cached image.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.lru = list.New()
	c.currentSize = 0
	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Size reports the bytes currently held on disk.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// extract pulls the embedded picture out of the audio file, falling
// back to a cover image sitting next to it.
func extract(trackPath string) ([]byte, error) {
	if data, err := library.Artwork(trackPath); err == nil && len(data) > 0 {
		return data, nil
	}

	dir := filepath.Dir(trackPath)
	for _, name := range folderImages {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("no artwork for %s: %w", trackPath, os.ErrNotExist)
}
