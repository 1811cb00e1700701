package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec is the compression applied to the payload of a stored block.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecZstd
)

// DefaultCodec is used when a dataset doesn't name one.
const DefaultCodec = CodecSnappy

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown codec %d", uint8(c))
	}
}

// ParseCodec returns the codec with the given name.  An empty name is the default.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "":
		return DefaultCodec, nil
	case "none", "raw":
		return CodecNone, nil
	case "snappy":
		return CodecSnappy, nil
	case "zstd":
		return CodecZstd, nil
	}
	return CodecNone, fmt.Errorf("unknown codec %q", s)
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll.
func initZstd() error {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdErr
}

func (c Codec) encode(data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecSnappy:
		return snappy.Encode(nil, data), nil
	case CodecZstd:
		if err := initZstd(); err != nil {
			return nil, err
		}
		return zstdEncoder.EncodeAll(data, nil), nil
	}
	return nil, fmt.Errorf("can't encode with %s", c)
}

func (c Codec) decode(payload []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return payload, nil
	case CodecSnappy:
		return snappy.Decode(nil, payload)
	case CodecZstd:
		if err := initZstd(); err != nil {
			return nil, err
		}
		return zstdDecoder.DecodeAll(payload, nil)
	}
	return nil, fmt.Errorf("can't decode %s", c)
}

// encodeFloats serializes values as little-endian float64.
func encodeFloats(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeFloats fills dst from little-endian float64 data.
func decodeFloats(dst []float64, data []byte) error {
	if len(data) != len(dst)*8 {
		return fmt.Errorf("expected %d bytes for %d values, got %d", len(dst)*8, len(dst), len(data))
	}
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return nil
}
