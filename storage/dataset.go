package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/twinj/uuid"

	"github.com/janelia-flyem/rasterchunk/raster"
)

const (
	// DefaultBlockHeight is the number of full-width rows per stored block.
	DefaultBlockHeight = 256

	metaKey = "meta"
)

// FormatVersion is the version of the on-disk layout.  Datasets with a different
// major version can't be opened.
var FormatVersion = semver.MustParse("1.0.0")

const metaSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["width", "height", "bands", "block_height", "codec", "uuid", "version"],
	"properties": {
		"width":        {"type": "integer", "minimum": 1},
		"height":       {"type": "integer", "minimum": 1},
		"bands":        {"type": "integer", "minimum": 1},
		"block_height": {"type": "integer", "minimum": 1},
		"codec":        {"enum": ["none", "snappy", "zstd"]},
		"geotransform": {
			"type": "array",
			"items": {"type": "number"},
			"minItems": 6,
			"maxItems": 6
		},
		"uuid":         {"type": "string", "minLength": 1},
		"version":      {"type": "string"}
	}
}`

var compiledMetaSchema = jsonschema.MustCompileString("meta.json", metaSchema)

// Meta describes a raster dataset.
type Meta struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Bands        int        `json:"bands"`
	BlockHeight  int        `json:"block_height"`
	Codec        string     `json:"codec"`
	GeoTransform [6]float64 `json:"geotransform"`
	UUID         string     `json:"uuid"`
	Version      string     `json:"version"`
}

// Size returns the (x, y) raster extent.
func (m Meta) Size() raster.Size {
	return raster.Size{uint(m.Width), uint(m.Height)}
}

// NumBlocks returns the number of blocks per band.
func (m Meta) NumBlocks() int {
	return (m.Height + m.BlockHeight - 1) / m.BlockHeight
}

// blockRows returns the number of rows stored in block k.
func (m Meta) blockRows(k int) int {
	return min(m.BlockHeight, m.Height-k*m.BlockHeight)
}

func (m Meta) String() string {
	return fmt.Sprintf("%dx%d raster, %d band(s), %d-row %s blocks, uuid %s, format %s",
		m.Width, m.Height, m.Bands, m.BlockHeight, m.Codec, m.UUID, m.Version)
}

// decodeMeta validates and parses stored metadata.
func decodeMeta(data []byte) (Meta, error) {
	var m Meta
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return m, fmt.Errorf("bad dataset metadata: %v", err)
	}
	if err := compiledMetaSchema.Validate(v); err != nil {
		return m, fmt.Errorf("dataset metadata does not validate: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("bad dataset metadata: %v", err)
	}
	ver, err := semver.Make(m.Version)
	if err != nil {
		return m, fmt.Errorf("bad dataset format version %q: %v", m.Version, err)
	}
	if ver.Major != FormatVersion.Major {
		return m, fmt.Errorf("dataset format %s is incompatible with %s", ver, FormatVersion)
	}
	return m, nil
}

// Options control how a dataset is opened.
type Options struct {
	ReadOnly   bool
	SyncWrites bool

	// Cache is an optional block cache shared with other datasets.
	Cache *BlockCache
}

// Dataset is an open raster dataset backed by badger.  All methods are safe for
// concurrent use, but see DatasetReader for the recommended sharing pattern.
type Dataset struct {
	path    string
	meta    Meta
	codec   Codec
	db      *badger.DB
	options Options
}

func badgerOptions(path string, opts Options) badger.Options {
	return badger.DefaultOptions(path).
		WithReadOnly(opts.ReadOnly).
		WithSyncWrites(opts.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})
}

// Create makes a new dataset at path, which must not already hold one.  Unset
// block height, codec and version are given defaults and a UUID is assigned.
func Create(path string, meta Meta, opts Options) (*Dataset, error) {
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("dataset %dx%d: %w", meta.Width, meta.Height, raster.ErrZeroDimension)
	}
	if meta.Bands == 0 {
		meta.Bands = 1
	}
	if meta.BlockHeight == 0 {
		meta.BlockHeight = DefaultBlockHeight
	}
	codec, err := ParseCodec(meta.Codec)
	if err != nil {
		return nil, err
	}
	meta.Codec = codec.String()
	meta.UUID = uuid.NewV4().String()
	meta.Version = FormatVersion.String()

	if _, err := os.Stat(filepath.Join(path, "MANIFEST")); err == nil {
		return nil, fmt.Errorf("dataset already exists at %s", path)
	}
	if err := os.MkdirAll(path, 0744); err != nil {
		return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if _, err := decodeMeta(data); err != nil {
		return nil, err
	}

	opts.ReadOnly = false
	db, err := badger.Open(badgerOptions(path, opts))
	if err != nil {
		return nil, err
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaKey), data)
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	raster.Infof("Created dataset @ %s: %s\n", path, meta)
	return &Dataset{path: path, meta: meta, codec: codec, db: db, options: opts}, nil
}

// Open opens an existing dataset.
func Open(path string, opts Options) (*Dataset, error) {
	if _, err := os.Stat(filepath.Join(path, "MANIFEST")); os.IsNotExist(err) {
		return nil, fmt.Errorf("no dataset at %s: %w", path, ErrNotFound)
	}
	timedLog := raster.NewTimeLog()
	db, err := badger.Open(badgerOptions(path, opts))
	if err != nil {
		return nil, fmt.Errorf("opening dataset @ %s: %v", path, err)
	}
	var data []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("no dataset metadata at %s: %w", path, ErrNotFound)
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	meta, err := decodeMeta(data)
	if err != nil {
		db.Close()
		return nil, err
	}
	codec, err := ParseCodec(meta.Codec)
	if err != nil {
		db.Close()
		return nil, err
	}
	timedLog.Debugf("Opened dataset @ %s (read only %t)", path, opts.ReadOnly)
	return &Dataset{path: path, meta: meta, codec: codec, db: db, options: opts}, nil
}

// OpenReadOnly opens an existing dataset without write access.  Any number of
// read-only handles may be open at once, but not together with a writable one.
func OpenReadOnly(path string, cache *BlockCache) (*Dataset, error) {
	return Open(path, Options{ReadOnly: true, Cache: cache})
}

// Close releases the dataset.  Closing a nil or closed dataset is a no-op.
func (d *Dataset) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	if d.options.ReadOnly {
		raster.Debugf("Closed read-only dataset @ %s\n", d.path)
	} else {
		raster.Infof("Closed dataset @ %s\n", d.path)
	}
	return err
}

// Meta returns the dataset metadata.
func (d *Dataset) Meta() Meta {
	return d.meta
}

// Path returns the dataset directory.
func (d *Dataset) Path() string {
	return d.path
}

func (d *Dataset) String() string {
	return fmt.Sprintf("dataset @ %s", d.path)
}

// Band returns a handle on band i.
func (d *Dataset) Band(i BandIndex) (*Band, error) {
	if d == nil || d.db == nil {
		return nil, errors.New("can't get band of closed dataset")
	}
	if i == 0 || int(i) > d.meta.Bands {
		return nil, fmt.Errorf("band %d of %d-band dataset: %w", i, d.meta.Bands, raster.ErrInvalidRange)
	}
	return &Band{ds: d, index: i}, nil
}

// WriteBand replaces the full contents of band i with row-major data.
func (d *Dataset) WriteBand(i BandIndex, data []float64) error {
	band, err := d.Band(i)
	if err != nil {
		return err
	}
	if len(data) != d.meta.Width*d.meta.Height {
		return fmt.Errorf("%d values for %dx%d band: %w", len(data), d.meta.Width, d.meta.Height, raster.ErrShapeMismatch)
	}
	return band.WriteRows(0, data)
}
