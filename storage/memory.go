package storage

import (
	"fmt"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// MemoryReader serves windows out of a row-major in-memory raster.  It is safe for
// concurrent use as long as Data is not modified.
type MemoryReader struct {
	Width  int
	Height int
	Data   []float64
}

// NewMemoryReader wraps data, which must hold width*height values.
func NewMemoryReader(width, height int, data []float64) (*MemoryReader, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("memory raster %dx%d: %w", width, height, raster.ErrZeroDimension)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("memory raster %dx%d given %d values: %w", width, height, len(data), raster.ErrShapeMismatch)
	}
	return &MemoryReader{Width: width, Height: height, Data: data}, nil
}

func (r *MemoryReader) ReadInto(dst []float64, w raster.RasterWindow) error {
	offset, size, err := checkWindow(dst, w, r.Width, r.Height)
	if err != nil {
		return err
	}
	x0, y0 := int(offset[0]), int(offset[1])
	cols := int(size[0])
	for i := 0; i < int(size[1]); i++ {
		src := (y0+i)*r.Width + x0
		copy(dst[i*cols:(i+1)*cols], r.Data[src:src+cols])
	}
	return nil
}
