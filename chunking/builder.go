package chunking

import (
	"fmt"

	"github.com/janelia-flyem/rasterchunk/raster"
)

// Builder accumulates constraints into a ChunkConfig.  Each method returns the
// builder so calls can be chained.  The first invalid argument is recorded and
// reported by Build; any calls after it are ignored.
//
// By default the builder follows a clamping policy: an end beyond the raster height
// is clipped to the height, and a start below the padding is raised to the padding.
// Strict turns both into errors.
type Builder struct {
	cfg    ChunkConfig
	strict bool
	err    error
}

// NewBuilder returns a builder for a raster of the given dimensions.  The default
// config has block size 1, data height 1, no padding and covers all rows.
func NewBuilder(width, height int) *Builder {
	b := &Builder{
		cfg: ChunkConfig{
			width:      width,
			height:     height,
			blockSize:  1,
			dataHeight: 1,
			padding:    0,
			start:      0,
			end:        height,
		},
	}
	if width <= 0 || height <= 0 {
		b.err = fmt.Errorf("raster dimensions %dx%d: %w", width, height, raster.ErrZeroDimension)
	}
	return b
}

// Strict makes out-of-range start and end values errors instead of clamping them.
func (b *Builder) Strict() *Builder {
	b.strict = true
	return b
}

// AddBlockSize accumulates a block size onto the builder.  The stored block size
// becomes the least common multiple of the existing value and blockSize, and the
// data height is raised to a multiple of it.
func (b *Builder) AddBlockSize(blockSize int) *Builder {
	if b.err != nil {
		return b
	}
	if blockSize <= 0 {
		b.err = fmt.Errorf("block size %d: %w", blockSize, raster.ErrZeroDimension)
		return b
	}
	if b.cfg.blockSize != blockSize {
		b.cfg.blockSize = lcm(b.cfg.blockSize, blockSize)
		b.adjustDataHeight()
	}
	return b
}

// WithDataHeight sets the minimum number of data rows per chunk, rounded up to a
// multiple of the block size.
func (b *Builder) WithDataHeight(dataHeight int) *Builder {
	if b.err != nil {
		return b
	}
	if dataHeight <= 0 {
		b.err = fmt.Errorf("data height %d: %w", dataHeight, raster.ErrZeroDimension)
		return b
	}
	b.cfg.dataHeight = dataHeight
	b.adjustDataHeight()
	return b
}

// WithDataSize sets the data height from the number of data pixels expected in
// each chunk.  The pixel count is divided by the width, rounding up.
func (b *Builder) WithDataSize(numPixels int) *Builder {
	if b.err != nil {
		return b
	}
	if numPixels <= 0 {
		b.err = fmt.Errorf("data size %d pixels: %w", numPixels, raster.ErrZeroDimension)
		return b
	}
	return b.WithDataHeight(divCeil(numPixels, b.cfg.width))
}

// WithPadding sets the number of rows required above and below each chunk.
func (b *Builder) WithPadding(padding int) *Builder {
	if b.err != nil {
		return b
	}
	if padding < 0 {
		b.err = fmt.Errorf("padding %d is negative: %w", padding, raster.ErrInvalidRange)
		return b
	}
	b.cfg.padding = padding
	b.adjustStart()
	return b
}

// WithStart sets the first row of the processing range.
func (b *Builder) WithStart(start int) *Builder {
	if b.err != nil {
		return b
	}
	if start < 0 {
		b.err = fmt.Errorf("start %d is negative: %w", start, raster.ErrInvalidRange)
		return b
	}
	if b.strict && start < b.cfg.padding {
		b.err = fmt.Errorf("start %d leaves no room for padding %d: %w", start, b.cfg.padding, raster.ErrInvalidRange)
		return b
	}
	b.cfg.start = start
	b.adjustStart()
	return b
}

// WithEnd sets one past the last row of the processing range.  Values beyond the
// raster height are clipped to the height unless the builder is strict.
func (b *Builder) WithEnd(end int) *Builder {
	if b.err != nil {
		return b
	}
	if end < 0 {
		b.err = fmt.Errorf("end %d is negative: %w", end, raster.ErrInvalidRange)
		return b
	}
	if b.strict && end > b.cfg.height {
		b.err = fmt.Errorf("end %d beyond height %d: %w", end, b.cfg.height, raster.ErrInvalidRange)
		return b
	}
	b.cfg.end = min(end, b.cfg.height)
	return b
}

// Build validates and returns the config.
func (b *Builder) Build() (ChunkConfig, error) {
	if b.err != nil {
		return ChunkConfig{}, b.err
	}
	cfg := b.cfg
	if cfg.start > cfg.end {
		return ChunkConfig{}, fmt.Errorf("start %d (padding %d) is past end %d: %w",
			cfg.start, cfg.padding, cfg.end, raster.ErrInvalidRange)
	}
	raster.Debugf("Built %s\n", &cfg)
	return cfg, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() ChunkConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// adjustDataHeight makes sure data height is a multiple of block size.
func (b *Builder) adjustDataHeight() {
	b.cfg.dataHeight = nextMultiple(b.cfg.dataHeight, b.cfg.blockSize)
}

// adjustStart makes sure start leaves room for the padding.
func (b *Builder) adjustStart() {
	b.cfg.start = max(b.cfg.start, b.cfg.padding)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
