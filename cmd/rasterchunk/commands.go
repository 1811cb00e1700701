package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/rasterchunk/align"
	"github.com/janelia-flyem/rasterchunk/chunking"
	"github.com/janelia-flyem/rasterchunk/config"
	"github.com/janelia-flyem/rasterchunk/raster"
	"github.com/janelia-flyem/rasterchunk/storage"
)

var identityGeoTransform = [6]float64{0, 1, 0, 0, 0, 1}

func formatVersion() string {
	return storage.FormatVersion.String()
}

func newCache(cfg *config.Config) *storage.BlockCache {
	n, err := cfg.CacheBytes()
	if err != nil {
		raster.Errorf("Ignoring cache size: %v\n", err)
		return nil
	}
	return storage.NewBlockCache(n)
}

func bandSetting(cmd Command) (storage.BandIndex, error) {
	b, err := cmd.IntSetting("band", 1)
	if err != nil {
		return 0, err
	}
	return storage.NewBandIndex(b)
}

func parseInts(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", s)
		}
		out[i] = v
	}
	return out, nil
}

func workers(cfg *config.Config) int {
	if n := cfg.Workers(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// DoPlan prints the chunk windows for a raster of the given dimensions.
func DoPlan(cfg *config.Config, cmd Command) error {
	var widthStr, heightStr string
	blockStrs := cmd.CommandArgs(&widthStr, &heightStr)
	if heightStr == "" {
		return fmt.Errorf("plan needs <width> <height>")
	}
	dims, err := parseInts(widthStr, heightStr)
	if err != nil {
		return err
	}
	blockSizes, err := parseInts(blockStrs...)
	if err != nil {
		return err
	}
	b, err := cfg.Builder(dims[0], dims[1], blockSizes...)
	if err != nil {
		return err
	}
	chunks, err := b.Build()
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", &chunks)
	fmt.Printf("%d chunks, at most %s per window\n\n", chunks.NumChunks(),
		humanize.Bytes(uint64(chunks.MaxWindowPixels()*raster.BytesPerValue)))
	var n int
	for w := range chunks.Chunks() {
		fmt.Printf("%6d  %s\n", n, w)
		n++
	}
	return nil
}

// DoImport writes a TIFF into a band of a dataset, creating the dataset with the
// image dimensions if it doesn't exist.
func DoImport(cfg *config.Config, cmd Command) error {
	var path, filename string
	cmd.CommandArgs(&path, &filename)
	if filename == "" {
		return fmt.Errorf("import needs <dataset path> <tiff file>")
	}
	band, err := bandSetting(cmd)
	if err != nil {
		return err
	}
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	ds, err := storage.Open(path, cfg.Options(nil))
	if err == nil {
		defer ds.Close()
		return storage.ImportImage(ds, band, f)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	gt := identityGeoTransform
	if s, found := cmd.Setting("geotransform"); found {
		if gt, err = parseGeoTransform(s); err != nil {
			return err
		}
	}
	imgSize, data, err := storage.DecodeImage(f)
	if err != nil {
		return err
	}
	meta := cfg.Meta(int(imgSize[0]), int(imgSize[1]), int(band), gt)
	ds, err = storage.Create(path, meta, cfg.Options(nil))
	if err != nil {
		return err
	}
	defer ds.Close()
	if err := ds.WriteBand(band, data); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", ds.Meta())
	return nil
}

// DoInfo prints dataset metadata and the chunk plan the config gives for it.
func DoInfo(cfg *config.Config, cmd Command) error {
	var path string
	cmd.CommandArgs(&path)
	if path == "" {
		return fmt.Errorf("info needs <dataset path>")
	}
	ds, err := storage.OpenReadOnly(path, nil)
	if err != nil {
		return err
	}
	defer ds.Close()
	meta := ds.Meta()
	fmt.Printf("%s @ %s\n", meta, path)
	fmt.Printf("geotransform: %v\n", meta.GeoTransform)

	b, err := cfg.Builder(meta.Width, meta.Height, meta.BlockHeight)
	if err != nil {
		return err
	}
	chunks, err := b.Build()
	if err != nil {
		return err
	}
	fmt.Printf("plan: %s\n", &chunks)
	fmt.Printf("%d chunks of at most %d rows (%s per window)\n", chunks.NumChunks(), chunks.MaxWindowRows(),
		humanize.Bytes(uint64(chunks.MaxWindowPixels()*raster.BytesPerValue)))
	return nil
}

type summary struct {
	sync.Mutex
	count    uint64
	sum      float64
	min, max float64
}

func (s *summary) add(values []float64) {
	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		sum += v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	s.Lock()
	if s.count == 0 {
		s.min, s.max = lo, hi
	} else {
		s.min = min(s.min, lo)
		s.max = max(s.max, hi)
	}
	s.count += uint64(len(values))
	s.sum += sum
	s.Unlock()
}

// DoStats computes min, max and mean over a band with parallel chunk reads.
func DoStats(ctx context.Context, cfg *config.Config, cmd Command) error {
	var source, key, widthStr, heightStr string
	cmd.CommandArgs(&source, &key, &widthStr, &heightStr)
	if source == "" {
		return fmt.Errorf("stats needs <dataset path> or <bucket url> <key> <width> <height>")
	}

	var reader storage.ChunkReader
	var builder *chunking.Builder
	var err error
	cache := newCache(cfg)
	if strings.Contains(source, "://") {
		if heightStr == "" {
			return fmt.Errorf("stats of a bucket object needs <bucket url> <key> <width> <height>")
		}
		dims, err := parseInts(widthStr, heightStr)
		if err != nil {
			return err
		}
		reader = storage.BucketReader{URL: source, Key: key, Width: dims[0], Height: dims[1]}
		if builder, err = cfg.Builder(dims[0], dims[1]); err != nil {
			return err
		}
	} else {
		band, err := bandSetting(cmd)
		if err != nil {
			return err
		}
		ds, err := storage.OpenReadOnly(source, nil)
		if err != nil {
			return err
		}
		meta := ds.Meta()
		ds.Close()
		reader = storage.PathReader{Path: source, Band: band, Cache: cache}
		if builder, err = cfg.Builder(meta.Width, meta.Height, meta.BlockHeight); err != nil {
			return err
		}
	}
	chunks, err := builder.Build()
	if err != nil {
		return err
	}

	numWorkers := workers(cfg)
	var stats summary
	var chunkBytes int
	var once sync.Once
	timedLog := raster.NewTimeLog()
	err = chunking.ForEach(ctx, &chunks, numWorkers, func(ctx context.Context, cw chunking.ChunkWindow) error {
		a, err := storage.ReadChunk(reader, cw)
		if err != nil {
			return err
		}
		once.Do(func() { chunkBytes = size.Of(a) })
		off := cw.DataOffset()
		stats.add(a.Data[off*a.Cols : (off+cw.DataEnd()-cw.DataStart())*a.Cols])
		return nil
	})
	if err != nil {
		return err
	}
	timedLog.Infof("Computed stats over %d chunks of %s", chunks.NumChunks(), source)

	fmt.Printf("pixels: %s\n", humanize.Comma(int64(stats.count)))
	if stats.count > 0 {
		fmt.Printf("min: %g  max: %g  mean: %g\n", stats.min, stats.max, stats.sum/float64(stats.count))
	}
	fmt.Printf("chunks: %d with %d workers, working set ~ %s\n", chunks.NumChunks(), numWorkers,
		humanize.Bytes(uint64(chunkBytes*numWorkers)))
	if hits, misses := cache.Stats(); hits+misses > 0 {
		fmt.Printf("block cache: %d hits, %d misses\n", hits, misses)
	}
	return nil
}

// DoExport copies a band into a raw float64 bucket object.
func DoExport(ctx context.Context, cfg *config.Config, cmd Command) error {
	var path, url, key string
	cmd.CommandArgs(&path, &url, &key)
	if key == "" {
		return fmt.Errorf("export needs <dataset path> <bucket url> <object key>")
	}
	bandIndex, err := bandSetting(cmd)
	if err != nil {
		return err
	}
	ds, err := storage.OpenReadOnly(path, nil)
	if err != nil {
		return err
	}
	defer ds.Close()
	band, err := ds.Band(bandIndex)
	if err != nil {
		return err
	}
	if err := storage.ExportBand(ctx, band, url, key); err != nil {
		return err
	}
	dims := band.Size()
	fmt.Printf("Exported band %d; read with: rasterchunk stats %s %s %d %d\n", bandIndex, url, key, dims[0], dims[1])
	return nil
}

// DoAlign pairs the chunks of dataset A with the overlapping windows of dataset B
// through their geotransforms, and reports how many pixels map and how far
// apart their values are.
func DoAlign(cfg *config.Config, cmd Command) error {
	var pathA, pathB string
	cmd.CommandArgs(&pathA, &pathB)
	if pathB == "" {
		return fmt.Errorf("align needs <dataset A> <dataset B>")
	}
	band, err := bandSetting(cmd)
	if err != nil {
		return err
	}
	center, err := cmd.BoolSetting("center")
	if err != nil {
		return err
	}
	limit, err := cmd.IntSetting("limit", 0)
	if err != nil {
		return err
	}

	cache := newCache(cfg)
	dsA, err := storage.OpenReadOnly(pathA, cache)
	if err != nil {
		return err
	}
	defer dsA.Close()
	dsB, err := storage.OpenReadOnly(pathB, cache)
	if err != nil {
		return err
	}
	defer dsB.Close()
	metaA, metaB := dsA.Meta(), dsB.Meta()

	t, err := align.TransformBetween(align.FromGeoTransform(metaA.GeoTransform), align.FromGeoTransform(metaB.GeoTransform))
	if err != nil {
		return err
	}
	fmt.Printf("pixel transform A -> B: %s\n", t)

	b, err := cfg.Builder(metaA.Width, metaA.Height, metaA.BlockHeight)
	if err != nil {
		return err
	}
	chunks, err := b.Build()
	if err != nil {
		return err
	}
	readerA := storage.DatasetReader{Dataset: dsA, Band: band}
	readerB := storage.DatasetReader{Dataset: dsB, Band: band}

	var n int
	for cw := range chunks.Chunks() {
		if limit > 0 && n >= limit {
			break
		}
		n++
		pair, ok := align.PairChunk(t, cw, metaB.Size(), center)
		if !ok {
			fmt.Printf("%s: no overlap\n", cw)
			continue
		}
		src, err := storage.ReadAsArray(readerA, pair.Source)
		if err != nil {
			return err
		}
		dst, err := storage.ReadAsArray(readerB, pair.Target)
		if err != nil {
			return err
		}
		var mapped int
		var diff float64
		first := cw.DataOffset()
		last := first + cw.DataEnd() - cw.DataStart()
		for row := first; row < last; row++ {
			for col := 0; col < src.Cols; col++ {
				r, c, ok := pair.Index.Map(col, row)
				if !ok {
					continue
				}
				mapped++
				diff += math.Abs(src.At(row, col) - dst.At(r, c))
			}
		}
		fmt.Printf("%s -> %s: %s\n", cw, pair.Target, pair.Index)
		if mapped > 0 {
			fmt.Printf("    %s pixels mapped, mean abs difference %g\n", humanize.Comma(int64(mapped)), diff/float64(mapped))
		}
	}
	return nil
}
