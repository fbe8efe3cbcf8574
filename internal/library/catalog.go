package library

import "sync"

// Catalog holds the current set of known tracks. It is replaced
// wholesale on rescan; readers get copies, so a swap never disturbs a
// queue built from an earlier generation.
type Catalog struct {
	mu     sync.RWMutex
	tracks []Track
	byPath map[string]Track
}

func NewCatalog() *Catalog {
	return &Catalog{byPath: make(map[string]Track)}
}

// Set replaces the catalog contents.
func (c *Catalog) Set(tracks []Track) {
	byPath := make(map[string]Track, len(tracks))
	for _, t := range tracks {
		byPath[t.Path] = t
	}

	c.mu.Lock()
	c.tracks = tracks
	c.byPath = byPath
	c.mu.Unlock()
}

// Tracks returns a copy of the catalog in its current sort order.
func (c *Catalog) Tracks() []Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Find looks a track up by path.
func (c *Catalog) Find(path string) (Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byPath[path]
	return t, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}
