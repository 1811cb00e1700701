/*
Package storage supplies the read side used by chunked processing: the ChunkReader
capability, readers with different handle lifetimes, and a badger-backed raster
dataset whose bands are stored as compressed blocks of full-width rows.
*/
package storage

import (
	"errors"
	"fmt"

	"github.com/janelia-flyem/rasterchunk/chunking"
	"github.com/janelia-flyem/rasterchunk/raster"
)

// ErrNotFound is returned when a dataset or object does not exist.
var ErrNotFound = errors.New("not found")

// ChunkReader reads a window of a single band.  dst must hold exactly
// w.NumPixels() values and is filled in row-major order.
type ChunkReader interface {
	ReadInto(dst []float64, w raster.RasterWindow) error
}

// Array is a row-major 2d buffer of pixel values.
type Array struct {
	Rows int
	Cols int
	Data []float64
}

// NewArray returns a zeroed array of the given shape.
func NewArray(rows, cols int) *Array {
	return &Array{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the value at (row, col).
func (a *Array) At(row, col int) float64 {
	return a.Data[row*a.Cols+col]
}

// Row returns a slice aliasing the given row.
func (a *Array) Row(row int) []float64 {
	return a.Data[row*a.Cols : (row+1)*a.Cols]
}

func (a *Array) String() string {
	return fmt.Sprintf("array %d rows x %d cols", a.Rows, a.Cols)
}

// ReadAsArray reads a window into a newly allocated array.  On failure no array
// is returned and the error is a *raster.ReadError naming the window.
func ReadAsArray(r ChunkReader, w raster.RasterWindow) (*Array, error) {
	rows, cols := w.Shape()
	a := NewArray(int(rows), int(cols))
	if err := r.ReadInto(a.Data, w); err != nil {
		return nil, raster.NewReadError(w, err)
	}
	return a, nil
}

// ReadChunk reads the full window of a chunk, padding included.
func ReadChunk(r ChunkReader, cw chunking.ChunkWindow) (*Array, error) {
	return ReadAsArray(r, cw.RasterWindow())
}

// checkWindow verifies that a window lies in a width x height raster and that dst
// matches it.  It returns the window offset and size in pixels.
func checkWindow(dst []float64, w raster.RasterWindow, width, height int) (raster.Offset, raster.Size, error) {
	lo := w.Min()
	if lo.X < 0 || lo.Y < 0 {
		return raster.Offset{}, raster.Size{}, fmt.Errorf("%s starts at negative coordinate: %w", w, raster.ErrInvalidRange)
	}
	offset, size := w.OffsetSize()
	if int(offset[0]+size[0]) > width || int(offset[1]+size[1]) > height {
		return offset, size, fmt.Errorf("%s exceeds raster %dx%d: %w", w, width, height, raster.ErrInvalidRange)
	}
	if uint(len(dst)) != size.NumPixels() {
		return offset, size, fmt.Errorf("buffer of %d values for %s: %w", len(dst), w, raster.ErrShapeMismatch)
	}
	return offset, size, nil
}
