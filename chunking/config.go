/*
Package chunking processes rasters in memory-efficient chunks.

It is often inefficient to load a large raster completely into memory while
processing it.  This package plans the traversal of a raster as a sequence of
row windows that can each be loaded on their own.

Raster memory layout

Large rasters are typically sub-divided internally into rectangular blocks of a
specific size.  Individual blocks support random access while data within a block
may require reading the entire block, e.g. if the blocks are compressed.  Reading
an arbitrary window is possible, but the backend implements it by reading all the
necessary blocks and copying out the requested pixels.  It is therefore more
efficient to read along block boundaries.

Memory efficient iteration

To process with a small memory footprint, an algorithm must satisfy a locality
constraint: to process the pixel (x, y) it is sufficient to access a small
neighborhood around it.  The chunks produced here have the following properties:

  - Full width.  Each chunk spans the full width of the raster.

  - Fixed padding.  Each chunk may additionally use a fixed number of rows above
    and below its data rows.  Padding is clipped at the raster edges and never
    reduces the data rows.

  - Block alignment.  Data rows start on multiples of the block size from the
    start of the range, and every chunk except possibly the last holds exactly
    DataHeight data rows.
*/
package chunking

import (
	"fmt"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// ChunkConfig describes how a raster is split into chunks.  It is produced by a
// Builder and is read-only afterwards, so it can be shared between goroutines.
type ChunkConfig struct {
	// width of raster to be chunked.
	width int
	// height of raster to be chunked.
	height int

	// blockSize is the row granularity of the storage.  For rasters with multiple
	// bands this is the least common multiple of all their block sizes.
	blockSize int

	// dataHeight is the minimum number of rows in each chunk, not counting padding.
	// Always a multiple of blockSize.
	dataHeight int

	// padding is the number of additional rows required on either side of the data.
	padding int

	// start and end give the half-open row range [start, end) to process.
	// start is at least padding and end is at most height.
	start int
	end   int
}

// Width returns the raster width in pixels.
func (c *ChunkConfig) Width() int {
	return c.width
}

// Height returns the raster height in rows.
func (c *ChunkConfig) Height() int {
	return c.height
}

// BlockSize returns the row alignment of every chunk, the lcm of all block sizes added.
func (c *ChunkConfig) BlockSize() int {
	return c.blockSize
}

// DataHeight returns the number of non-padding rows per chunk.
func (c *ChunkConfig) DataHeight() int {
	return c.dataHeight
}

// Padding returns the rows added above and below each chunk, clipped at the raster edges.
func (c *ChunkConfig) Padding() int {
	return c.padding
}

// Start returns the first row to process.
func (c *ChunkConfig) Start() int {
	return c.start
}

// End returns one past the last row to process.
func (c *ChunkConfig) End() int {
	return c.end
}

// NumChunks returns the number of windows an iteration over the config yields.
func (c *ChunkConfig) NumChunks() int {
	if c.end <= c.start {
		return 0
	}
	return divCeil(c.end-c.start, c.dataHeight)
}

// MaxWindowRows returns the largest number of rows, padding included, of any
// window in the iteration.  Useful for sizing a reusable buffer.
func (c *ChunkConfig) MaxWindowRows() int {
	if c.end <= c.start {
		return 0
	}
	rows := min(c.dataHeight, c.end-c.start) + 2*c.padding
	return min(rows, c.height)
}

// MaxWindowPixels returns MaxWindowRows times the raster width.
func (c *ChunkConfig) MaxWindowPixels() int {
	return c.MaxWindowRows() * c.width
}

func (c *ChunkConfig) String() string {
	return fmt.Sprintf("chunks of %d rows (block %d, padding %d) over rows [%d,%d) of %dx%d raster",
		c.dataHeight, c.blockSize, c.padding, c.start, c.end, c.width, c.height)
}

// ChunkWindow is one step of an iteration: the config it came from, the first
// row of the window and the number of rows, padding included.
type ChunkWindow struct {
	Config *ChunkConfig
	Start  int
	Size   int
}

// End returns one past the last row of the window.
func (w ChunkWindow) End() int {
	return w.Start + w.Size
}

// DataStart returns the first non-padding row of the window.
func (w ChunkWindow) DataStart() int {
	return max(w.Start+w.Config.padding, w.Config.start)
}

// DataEnd returns one past the last non-padding row of the window.
func (w ChunkWindow) DataEnd() int {
	return min(w.DataStart()+w.Config.dataHeight, w.Config.end)
}

// DataOffset returns the local row within the window of the first data row.
func (w ChunkWindow) DataOffset() int {
	return w.DataStart() - w.Start
}

// RasterWindow returns the window as a full-width raster window.
func (w ChunkWindow) RasterWindow() raster.RasterWindow {
	return raster.NewRasterWindow(
		raster.Offset{0, uint(w.Start)},
		raster.Size{uint(w.Config.width), uint(w.Size)},
	)
}

func (w ChunkWindow) String() string {
	return fmt.Sprintf("rows [%d,%d) data [%d,%d)", w.Start, w.End(), w.DataStart(), w.DataEnd())
}

// FromRasterWindow converts a raster window spanning the full width of the
// config's raster back into a ChunkWindow.
func FromRasterWindow(cfg *ChunkConfig, w raster.RasterWindow) (ChunkWindow, error) {
	offset, size := w.OffsetSize()
	if offset[0] != 0 || int(size[0]) != cfg.width {
		return ChunkWindow{}, fmt.Errorf("%s does not span full width %d: %w", w, cfg.width, raster.ErrInvalidRange)
	}
	if size[1] == 0 {
		return ChunkWindow{}, fmt.Errorf("%s has no rows: %w", w, raster.ErrZeroDimension)
	}
	if int(offset[1])+int(size[1]) > cfg.height {
		return ChunkWindow{}, fmt.Errorf("%s extends beyond height %d: %w", w, cfg.height, raster.ErrInvalidRange)
	}
	return ChunkWindow{Config: cfg, Start: int(offset[1]), Size: int(size[1])}, nil
}

// divCeil returns num / m rounded up.
func divCeil(num, m int) int {
	return (num + m - 1) / m
}

// nextMultiple returns the smallest multiple of m that is at least num.
func nextMultiple(num, m int) int {
	return divCeil(num, m) * m
}
