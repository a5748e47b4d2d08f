// Package framecache keeps recently composited base frames so that scrolling
// back to a slice with unchanged settings skips compositing.
package framecache

import (
	"image"
	"sync"

	"github.com/golang/groupcache/lru"

	"sliceviewer/pkg/volume"
)

// Key identifies everything a composited frame depends on.
type Key struct {
	Revision    uint64
	Slice       int
	Window      volume.Window
	MaskOpacity int
	MaskOn      bool
	OnlyMask    bool
}

// KeyOf returns the cache key of a snapshot.
func KeyOf(s volume.Snapshot) Key {
	return Key{
		Revision:    s.Revision,
		Slice:       s.Index,
		Window:      s.View.Window,
		MaskOpacity: s.View.MaskOpacity,
		MaskOn:      s.View.MaskOn,
		OnlyMask:    s.View.OnlyMask,
	}
}

// Cache is an LRU of frames, safe for concurrent use. Cached frames must be
// treated as read-only by callers.
type Cache struct {
	mu           sync.Mutex
	lru          *lru.Cache
	hits, misses uint64
}

// New returns a cache holding at most maxEntries frames. A non-positive
// size returns nil, which is a valid always-miss cache.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		return nil
	}
	return &Cache{lru: lru.New(maxEntries)}
}

// Get returns the frame cached for s.
func (c *Cache) Get(s volume.Snapshot) (*image.NRGBA, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(KeyOf(s))
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return v.(*image.NRGBA), true
}

// Put stores img as the frame of s.
func (c *Cache) Put(s volume.Snapshot, img *image.NRGBA) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lru.Add(KeyOf(s), img)
	c.mu.Unlock()
}

// Render returns the cached frame of s or renders, stores and returns it.
func (c *Cache) Render(s volume.Snapshot, render func(volume.Snapshot) *image.NRGBA) *image.NRGBA {
	if img, ok := c.Get(s); ok {
		return img
	}
	img := render(s)
	c.Put(s, img)
	return img
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lru.Clear()
	c.mu.Unlock()
}

// Stats returns hit and miss counts and the number of cached frames.
func (c *Cache) Stats() (hits, misses uint64, entries int) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.lru.Len()
}
