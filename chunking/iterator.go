package chunking

import "iter"

// Iterator walks the windows of a ChunkConfig in increasing row order.  An
// Iterator is not safe for concurrent use, but any number of iterators may
// share one config.
type Iterator struct {
	cfg    *ChunkConfig
	cursor int
}

// NewIterator returns an iterator positioned at the start of the config's range.
func NewIterator(cfg *ChunkConfig) *Iterator {
	return &Iterator{cfg: cfg, cursor: cfg.start}
}

// Next returns the next window, or false once the range is exhausted.
func (it *Iterator) Next() (ChunkWindow, bool) {
	cfg := it.cfg
	if it.cursor >= cfg.end {
		return ChunkWindow{}, false
	}
	dataEnd := min(cfg.end, it.cursor+cfg.dataHeight)
	windowStart := max(0, it.cursor-cfg.padding)
	windowEnd := min(cfg.height, dataEnd+cfg.padding)
	it.cursor = dataEnd
	return ChunkWindow{Config: cfg, Start: windowStart, Size: windowEnd - windowStart}, true
}

// Reset moves the iterator back to the start of the range.
func (it *Iterator) Reset() {
	it.cursor = it.cfg.start
}

// Chunks returns the sequence of windows for the config.  Each call starts a
// fresh traversal; a caller may stop early by breaking out of the loop.
func (c *ChunkConfig) Chunks() iter.Seq[ChunkWindow] {
	return func(yield func(ChunkWindow) bool) {
		it := NewIterator(c)
		for {
			w, ok := it.Next()
			if !ok || !yield(w) {
				return
			}
		}
	}
}

// Windows collects all windows of the config.
func (c *ChunkConfig) Windows() []ChunkWindow {
	windows := make([]ChunkWindow, 0, c.NumChunks())
	for w := range c.Chunks() {
		windows = append(windows, w)
	}
	return windows
}
