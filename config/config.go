/*
Package config reads the TOML configuration shared by the rasterchunk commands.

A complete configuration file looks like:

	[logging]
	logfile = "rasterchunk.log"   # relative to this file; stderr if empty
	max_log_size = 500            # MB before rotation
	max_log_age = 30              # days to keep rotated logs
	mode = "info"                 # debug, info, warning, error, critical, silent

	[chunking]
	data_pixels = "4M"            # or data_height = 64
	padding = 2
	start = 0
	end = 0                       # 0 processes through the last row
	workers = 8                   # 0 uses all CPUs
	strict = false

	[cache]
	size = "64 MiB"

	[store]
	codec = "zstd"                # none, snappy, zstd
	block_height = 256
	sync_writes = false
*/
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/rasterchunk/chunking"
	"github.com/janelia-flyem/rasterchunk/raster"
	"github.com/janelia-flyem/rasterchunk/storage"
)

const (
	// DefaultCacheSize is the block cache size if none is configured.
	DefaultCacheSize = "64 MiB"
)

// Config is the parsed configuration.
type Config struct {
	Logging  raster.LogConfig
	Chunking chunkingConfig
	Cache    cacheConfig
	Store    storeConfig

	location string
}

type chunkingConfig struct {
	DataHeight int    `toml:"data_height"`
	DataPixels string `toml:"data_pixels"`
	Padding    int
	Start      int
	End        int
	Workers    int
	Strict     bool
}

type cacheConfig struct {
	Size string
}

type storeConfig struct {
	Codec       string
	BlockHeight int  `toml:"block_height"`
	SyncWrites  bool `toml:"sync_writes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cache: cacheConfig{Size: DefaultCacheSize},
		Store: storeConfig{
			Codec:       storage.DefaultCodec.String(),
			BlockHeight: storage.DefaultBlockHeight,
		},
	}
}

// Load reads a TOML file over the defaults.  A relative logfile is taken relative
// to the file's directory.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	c := Default()
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	c.location = filename
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = raster.ConvertToAbsolute(c.Logging.Logfile, filepath.Dir(filename))
		if err != nil {
			return nil, fmt.Errorf("error converting logfile setting to absolute path: %v", err)
		}
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("bad config %s: %v", filename, err)
	}
	raster.Debugf("Loaded config %s: %+v\n", filename, *c)
	return c, nil
}

// Decode parses a TOML document over the defaults.
func Decode(s string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(s, c)
	if err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("unknown settings in TOML config: %s", strings.Join(keys, ", "))
}

func (c *Config) validate() error {
	ch := c.Chunking
	if ch.DataHeight < 0 || ch.Padding < 0 || ch.Start < 0 || ch.End < 0 || ch.Workers < 0 {
		return fmt.Errorf("chunking settings can't be negative: %w", raster.ErrInvalidRange)
	}
	if ch.DataHeight != 0 && ch.DataPixels != "" {
		return fmt.Errorf("set only one of data_height and data_pixels")
	}
	if _, err := raster.ParseByteSize(ch.DataPixels); err != nil {
		return err
	}
	if _, err := c.CacheBytes(); err != nil {
		return err
	}
	if _, err := storage.ParseCodec(c.Store.Codec); err != nil {
		return err
	}
	if c.Store.BlockHeight < 0 {
		return fmt.Errorf("block_height can't be negative: %w", raster.ErrInvalidRange)
	}
	return nil
}

// Location returns the file the config was loaded from, if any.
func (c *Config) Location() string {
	return c.location
}

// Workers returns the number of goroutines for parallel chunk processing, where
// zero means one per CPU.
func (c *Config) Workers() int {
	return c.Chunking.Workers
}

// Builder returns a chunk config builder for a width x height raster stored in
// blocks of the given row counts, with the configured chunking applied.
func (c *Config) Builder(width, height int, blockSizes ...int) (*chunking.Builder, error) {
	ch := c.Chunking
	b := chunking.NewBuilder(width, height)
	if ch.Strict {
		b.Strict()
	}
	for _, bs := range blockSizes {
		b.AddBlockSize(bs)
	}
	pixels, err := raster.ParseByteSize(ch.DataPixels)
	if err != nil {
		return nil, err
	}
	switch {
	case pixels > 0:
		b.WithDataSize(int(pixels))
	case ch.DataHeight > 0:
		b.WithDataHeight(ch.DataHeight)
	}
	if ch.Padding > 0 {
		b.WithPadding(ch.Padding)
	}
	if ch.Start > 0 {
		b.WithStart(ch.Start)
	}
	if ch.End > 0 {
		b.WithEnd(ch.End)
	}
	return b, nil
}

// CacheBytes returns the configured block cache size.
func (c *Config) CacheBytes() (int, error) {
	n, err := raster.ParseByteSize(c.Cache.Size)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Options returns the dataset options for the configured store, sharing cache.
func (c *Config) Options(cache *storage.BlockCache) storage.Options {
	return storage.Options{SyncWrites: c.Store.SyncWrites, Cache: cache}
}

// Meta returns metadata for a new dataset using the configured codec and block
// height.
func (c *Config) Meta(width, height, bands int, geotransform [6]float64) storage.Meta {
	return storage.Meta{
		Width:        width,
		Height:       height,
		Bands:        bands,
		BlockHeight:  c.Store.BlockHeight,
		Codec:        c.Store.Codec,
		GeoTransform: geotransform,
	}
}
