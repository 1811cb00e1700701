package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// BandIndex is a 1-based band number.
type BandIndex uint

// NewBandIndex returns the band index for a 1-based band number.
func NewBandIndex(i int) (BandIndex, error) {
	if i <= 0 {
		return 0, fmt.Errorf("band index must be 1 or more, got %d: %w", i, raster.ErrInvalidRange)
	}
	return BandIndex(i), nil
}

// Band is one band of an open dataset.  Blocks that were never written read as
// zeros.
type Band struct {
	ds    *Dataset
	index BandIndex
}

// Index returns the 1-based band number.
func (b *Band) Index() BandIndex {
	return b.index
}

// BlockSize returns the natural block size of the band as (x, y): blocks always
// span the full width.
func (b *Band) BlockSize() raster.Size {
	return raster.Size{uint(b.ds.meta.Width), uint(b.ds.meta.BlockHeight)}
}

// Size returns the (x, y) extent of the band.
func (b *Band) Size() raster.Size {
	return b.ds.meta.Size()
}

func (b *Band) blockKey(k int) []byte {
	return []byte(fmt.Sprintf("b%d/%d", b.index, k))
}

func (b *Band) cacheKey(k int) []byte {
	return blockCacheKey(b.ds.meta.UUID, b.index, k)
}

// readBlock returns the decoded values of block k, consulting the cache first.
func (b *Band) readBlock(txn *badger.Txn, k int) ([]float64, error) {
	width := b.ds.meta.Width
	cache := b.ds.options.Cache
	ckey := b.cacheKey(k)
	if values, found := cache.get(ckey, width); found {
		return values, nil
	}
	rows := b.ds.meta.blockRows(k)
	item, err := txn.Get(b.blockKey(k))
	if err == badger.ErrKeyNotFound {
		return make([]float64, width*rows), nil
	}
	if err != nil {
		return nil, err
	}
	var rec blockRecord
	err = item.Value(func(val []byte) error {
		_, err := rec.UnmarshalMsg(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("block %d of band %d: %v", k, b.index, err)
	}
	if int(rec.Rows) != rows {
		return nil, fmt.Errorf("block %d of band %d holds %d rows, expected %d", k, b.index, rec.Rows, rows)
	}
	values, err := rec.values(width)
	if err != nil {
		return nil, fmt.Errorf("block %d of band %d: %v", k, b.index, err)
	}
	cache.set(ckey, values)
	return values, nil
}

// ReadInto reads a window of the band into dst in row-major order.
func (b *Band) ReadInto(dst []float64, w raster.RasterWindow) error {
	meta := b.ds.meta
	offset, size, err := checkWindow(dst, w, meta.Width, meta.Height)
	if err != nil {
		return err
	}
	if size.Empty() {
		return nil
	}
	x0, y0 := int(offset[0]), int(offset[1])
	cols, rows := int(size[0]), int(size[1])
	bh := meta.BlockHeight

	return b.ds.db.View(func(txn *badger.Txn) error {
		for k := y0 / bh; k <= (y0+rows-1)/bh; k++ {
			block, err := b.readBlock(txn, k)
			if err != nil {
				return err
			}
			first := max(y0, k*bh)
			last := min(y0+rows, (k+1)*bh)
			for y := first; y < last; y++ {
				src := (y-k*bh)*meta.Width + x0
				dstRow := (y - y0) * cols
				copy(dst[dstRow:dstRow+cols], block[src:src+cols])
			}
		}
		return nil
	})
}

// WriteRows stores full-width rows starting at row0, which must be the first row
// of a block.  The rows must end on a block boundary or at the last row.
func (b *Band) WriteRows(row0 int, rows []float64) error {
	meta := b.ds.meta
	if b.ds.options.ReadOnly {
		return fmt.Errorf("can't write to read-only %s", b.ds)
	}
	bh := meta.BlockHeight
	if row0 < 0 || row0%bh != 0 {
		return fmt.Errorf("row %d is not at a %d-row block boundary: %w", row0, bh, raster.ErrInvalidRange)
	}
	if len(rows)%meta.Width != 0 {
		return fmt.Errorf("%d values is not a whole number of %d-pixel rows: %w", len(rows), meta.Width, raster.ErrShapeMismatch)
	}
	numRows := len(rows) / meta.Width
	end := row0 + numRows
	if end > meta.Height {
		return fmt.Errorf("rows [%d,%d) exceed height %d: %w", row0, end, meta.Height, raster.ErrInvalidRange)
	}
	if end%bh != 0 && end != meta.Height {
		return fmt.Errorf("rows [%d,%d) don't end at a block boundary: %w", row0, end, raster.ErrInvalidRange)
	}

	timedLog := raster.NewTimeLog()
	wb := b.ds.db.NewWriteBatch()
	defer wb.Cancel()
	for k := row0 / bh; k*bh < end; k++ {
		n := meta.blockRows(k)
		start := (k*bh - row0) * meta.Width
		rec, err := newBlockRecord(n, b.ds.codec, rows[start:start+n*meta.Width])
		if err != nil {
			return err
		}
		val, err := rec.MarshalMsg(nil)
		if err != nil {
			return err
		}
		if err := wb.Set(b.blockKey(k), val); err != nil {
			return err
		}
		b.ds.options.Cache.del(b.cacheKey(k))
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	timedLog.Debugf("Wrote rows [%d,%d) of band %d in %s", row0, end, b.index, b.ds)
	return nil
}
