package storage

import (
	"fmt"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// DatasetReader reads a band through an already open dataset, acquiring the band
// on every call.  The dataset stays owned by the caller; hand each DatasetReader
// to one goroutine at a time.
type DatasetReader struct {
	Dataset *Dataset
	Band    BandIndex
}

func (r DatasetReader) ReadInto(dst []float64, w raster.RasterWindow) error {
	band, err := r.Dataset.Band(r.Band)
	if err != nil {
		return err
	}
	return band.ReadInto(dst, w)
}

// PathReader reopens the dataset at Path read-only for every call, so it holds no
// handle between reads and may be shared freely between goroutines.
type PathReader struct {
	Path string
	Band BandIndex

	// Cache is optional and survives across the per-call handles.
	Cache *BlockCache
}

func (r PathReader) ReadInto(dst []float64, w raster.RasterWindow) error {
	ds, err := OpenReadOnly(r.Path, r.Cache)
	if err != nil {
		return err
	}
	defer ds.Close()
	band, err := ds.Band(r.Band)
	if err != nil {
		return err
	}
	return band.ReadInto(dst, w)
}

func (r PathReader) String() string {
	return fmt.Sprintf("band %d of %s", r.Band, r.Path)
}
