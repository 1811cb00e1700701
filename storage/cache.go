package storage

import (
	"fmt"
	"sync/atomic"

	"github.com/coocood/freecache"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// BlockCache holds decoded blocks keyed by dataset UUID, band and block number.
// It may be shared by any number of datasets and readers.  A nil *BlockCache
// is valid and caches nothing.
type BlockCache struct {
	cache  *freecache.Cache
	hits   uint64
	misses uint64
}

// NewBlockCache returns a cache of approximately numBytes, or nil if numBytes <= 0.
func NewBlockCache(numBytes int) *BlockCache {
	if numBytes <= 0 {
		return nil
	}
	c := &BlockCache{cache: freecache.NewCache(numBytes)}
	raster.Infof("Created block cache of ~ %d MB\n", numBytes>>20)
	return c
}

func blockCacheKey(dataset string, band BandIndex, block int) []byte {
	return []byte(fmt.Sprintf("%s/%d/%d", dataset, band, block))
}

func (c *BlockCache) get(key []byte, width int) ([]float64, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.cache.Get(key)
	if err != nil {
		if err != freecache.ErrNotFound {
			raster.Errorf("block cache get of %q: %v\n", key, err)
		}
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	values := make([]float64, len(data)/8)
	if len(values)%width != 0 || decodeFloats(values, data) != nil {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	atomic.AddUint64(&c.hits, 1)
	return values, true
}

// set stores a block.  Blocks too large for the cache are silently skipped.
func (c *BlockCache) set(key []byte, values []float64) {
	if c == nil {
		return
	}
	if err := c.cache.Set(key, encodeFloats(values), 0); err != nil && err != freecache.ErrLargeEntry {
		raster.Errorf("block cache set of %q: %v\n", key, err)
	}
}

func (c *BlockCache) del(key []byte) {
	if c == nil {
		return
	}
	c.cache.Del(key)
}

// Stats returns the number of cache hits and misses so far.
func (c *BlockCache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Clear empties the cache and resets the counters.
func (c *BlockCache) Clear() {
	if c == nil {
		return
	}
	c.cache.Clear()
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}
