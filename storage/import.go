package storage

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/tiff"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// DecodeImage decodes a TIFF into row-major float64 values.  Gray images keep
// their sample values; anything else is converted to 16-bit luminance.
func DecodeImage(r io.Reader) (size raster.Size, data []float64, err error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return raster.Size{}, nil, fmt.Errorf("decoding tiff: %v", err)
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return raster.Size{}, nil, fmt.Errorf("tiff image %dx%d: %w", width, height, raster.ErrZeroDimension)
	}
	data = make([]float64, width*height)
	switch t := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := t.Pix[y*t.Stride : y*t.Stride+width]
			for x, v := range row {
				data[y*width+x] = float64(v)
			}
		}
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = float64(t.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		raster.Debugf("Converting %T tiff to 16-bit luminance\n", img)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				data[y*width+x] = float64(g.Y)
			}
		}
	}
	return raster.Size{uint(width), uint(height)}, data, nil
}

// ImportImage decodes a TIFF of the same size as the dataset into a band.
func ImportImage(ds *Dataset, band BandIndex, r io.Reader) error {
	timedLog := raster.NewTimeLog()
	size, data, err := DecodeImage(r)
	if err != nil {
		return err
	}
	if size != ds.Meta().Size() {
		return fmt.Errorf("tiff is %s but %s is %s: %w", size, ds, ds.Meta().Size(), raster.ErrShapeMismatch)
	}
	if err := ds.WriteBand(band, data); err != nil {
		return err
	}
	timedLog.Infof("Imported %s tiff into band %d of %s", size, band, ds)
	return nil
}
