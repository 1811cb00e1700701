package storage

import (
	"context"
	"fmt"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Drivers for the bucket URL schemes accepted by BucketReader.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// BucketReader reads windows from an object holding a raw raster of little-endian
// float64 values in row-major order.  The bucket at URL (file://, mem://, gs://,
// s3://) is opened on every call, so a BucketReader may be shared freely between
// goroutines.
type BucketReader struct {
	URL    string
	Key    string
	Width  int
	Height int
}

func (r BucketReader) ReadInto(dst []float64, w raster.RasterWindow) error {
	return r.ReadIntoContext(context.Background(), dst, w)
}

// ReadIntoContext is ReadInto with a context for the bucket operations.
func (r BucketReader) ReadIntoContext(ctx context.Context, dst []float64, w raster.RasterWindow) error {
	offset, size, err := checkWindow(dst, w, r.Width, r.Height)
	if err != nil {
		return err
	}
	if size.Empty() {
		return nil
	}
	bucket, err := blob.OpenBucket(ctx, r.URL)
	if err != nil {
		return fmt.Errorf("can't open bucket %q: %v", r.URL, err)
	}
	defer bucket.Close()

	x0, y0 := int(offset[0]), int(offset[1])
	cols, rows := int(size[0]), int(size[1])

	// Full-width windows are contiguous in the object.
	if cols == r.Width {
		return r.rangeRead(ctx, bucket, dst, int64(y0*r.Width))
	}
	for i := 0; i < rows; i++ {
		pos := int64((y0+i)*r.Width + x0)
		if err := r.rangeRead(ctx, bucket, dst[i*cols:(i+1)*cols], pos); err != nil {
			return err
		}
	}
	return nil
}

// rangeRead fills dst with the values starting at value index pos.
func (r BucketReader) rangeRead(ctx context.Context, bucket *blob.Bucket, dst []float64, pos int64) error {
	length := int64(len(dst)) * raster.BytesPerValue
	rr, err := bucket.NewRangeReader(ctx, r.Key, pos*raster.BytesPerValue, length, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return fmt.Errorf("object %q in %q: %w", r.Key, r.URL, ErrNotFound)
		}
		return err
	}
	defer rr.Close()
	buf := make([]byte, length)
	if _, err := io.ReadFull(rr, buf); err != nil {
		return fmt.Errorf("range read of object %q at %d: %v", r.Key, pos*raster.BytesPerValue, err)
	}
	return decodeFloats(dst, buf)
}

// WriteObject stores a raw float64 raster under key in an open bucket, in the
// layout read by BucketReader.
func WriteObject(ctx context.Context, bucket *blob.Bucket, key string, data []float64) error {
	return bucket.WriteAll(ctx, key, encodeFloats(data), nil)
}

// ExportBand copies a full band into an object of the bucket at url.
func ExportBand(ctx context.Context, band *Band, url, key string) error {
	timedLog := raster.NewTimeLog()
	size := band.Size()
	data := make([]float64, size.NumPixels())
	if err := band.ReadInto(data, raster.NewRasterWindow(raster.Offset{}, size)); err != nil {
		return err
	}
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return fmt.Errorf("can't open bucket %q: %v", url, err)
	}
	defer bucket.Close()
	if err := WriteObject(ctx, bucket, key, data); err != nil {
		return err
	}
	timedLog.Infof("Exported band %d (%s) to %s in %q", band.Index(), size, key, url)
	return nil
}
