package storage

import (
	"fmt"
	"hash/crc32"

	"github.com/tinylib/msgp/msgp"
)

// blockRecord is the stored value of one block: a msgpack array of
// [rows, codec, checksum, payload].  The checksum is the CRC32 (IEEE) of the
// compressed payload.
type blockRecord struct {
	Rows     uint32
	Codec    Codec
	Checksum uint32
	Payload  []byte
}

// newBlockRecord compresses the row-major values of a block.
func newBlockRecord(rows int, codec Codec, values []float64) (*blockRecord, error) {
	payload, err := codec.encode(encodeFloats(values))
	if err != nil {
		return nil, err
	}
	return &blockRecord{
		Rows:     uint32(rows),
		Codec:    codec,
		Checksum: crc32.ChecksumIEEE(payload),
		Payload:  payload,
	}, nil
}

// values decompresses the block into width*Rows values.
func (z *blockRecord) values(width int) ([]float64, error) {
	if crc := crc32.ChecksumIEEE(z.Payload); crc != z.Checksum {
		return nil, fmt.Errorf("bad checksum %08x, expected %08x", crc, z.Checksum)
	}
	data, err := z.Codec.decode(z.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding %s block: %v", z.Codec, err)
	}
	out := make([]float64, width*int(z.Rows))
	if err := decodeFloats(out, data); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalMsg implements msgp.Marshaler
func (z *blockRecord) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, 4)
	o = msgp.AppendUint32(o, z.Rows)
	o = msgp.AppendUint8(o, uint8(z.Codec))
	o = msgp.AppendUint32(o, z.Checksum)
	o = msgp.AppendBytes(o, z.Payload)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *blockRecord) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var asz uint32
	asz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	if asz != 4 {
		err = msgp.ArrayError{Wanted: 4, Got: asz}
		return
	}
	z.Rows, bts, err = msgp.ReadUint32Bytes(bts)
	if err != nil {
		return
	}
	var c uint8
	c, bts, err = msgp.ReadUint8Bytes(bts)
	if err != nil {
		return
	}
	z.Codec = Codec(c)
	z.Checksum, bts, err = msgp.ReadUint32Bytes(bts)
	if err != nil {
		return
	}
	z.Payload, bts, err = msgp.ReadBytesBytes(bts, z.Payload)
	if err != nil {
		return
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *blockRecord) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + 2*msgp.Uint32Size + msgp.Uint8Size + msgp.BytesPrefixSize + len(z.Payload)
	return
}
