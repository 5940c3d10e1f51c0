package memory

import "sync"

// defaultImageCap bounds retained page rasters; oldest entries are evicted
// first. Rasters at 300 DPI run a few hundred KB each.
const defaultImageCap = 256

// ImageCache retains PNG page rasters produced during ingestion so the API
// can serve them back. Entries are keyed by collection and record id.
type ImageCache struct {
	mu    sync.Mutex
	cap   int
	order []imageKey // insertion order, for eviction
	data  map[imageKey][]byte
}

type imageKey struct {
	collection string
	id         string
}

// NewImageCache creates a cache holding up to capacity rasters. capacity <= 0
// selects the default.
func NewImageCache(capacity int) *ImageCache {
	if capacity <= 0 {
		capacity = defaultImageCap
	}
	return &ImageCache{
		cap:  capacity,
		data: make(map[imageKey][]byte),
	}
}

// Put stores a raster, evicting the oldest entry when full.
func (c *ImageCache) Put(collection, id string, png []byte) {
	if len(png) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	k := imageKey{collection, id}
	if _, exists := c.data[k]; !exists {
		for len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.data, oldest)
		}
		c.order = append(c.order, k)
	}
	c.data[k] = png
}

// Get returns the raster for a record id, if retained.
func (c *ImageCache) Get(collection, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	png, ok := c.data[imageKey{collection, id}]
	return png, ok
}

// DropCollection discards every raster of a collection.
func (c *ImageCache) DropCollection(collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, k := range c.order {
		if k.collection == collection {
			delete(c.data, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}
