package protocol

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Decoder is a cursor over a byte slice.
//
// Slices returned by ReadBytes, ReadByteArray and ReadRawBytes are views into
// the decoder's input and stay valid only as long as that input is not
// modified. RawFrame bodies are never reused by the codec, so packets decoded
// from a frame may keep them.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// Skip advances the position by n bytes.
func (d *Decoder) Skip(n int) error {
	if n < 0 || n > d.Remaining() {
		return ErrTruncatedField
	}
	d.pos += n
	return nil
}

// ReadBytes reads exactly n bytes and returns them.
// The returned slice references the decoder's buffer; do not modify.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, ErrTruncatedField
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadByteArray reads a VarInt length followed by that many bytes.
func (d *Decoder) ReadByteArray() ([]byte, error) {
	n, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	return d.ReadBytes(int(n))
}

// ReadVarInt reads a VarInt.
func (d *Decoder) ReadVarInt() (int32, error) {
	v, n, err := DecodeVarInt(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// ReadVarLong reads a VarLong.
func (d *Decoder) ReadVarLong() (int64, error) {
	v, n, err := DecodeVarLong(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// ReadBool reads a boolean. Any byte other than 0 or 1 is rejected.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadUint8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// ReadUint8 reads an unsigned byte.
func (d *Decoder) ReadUint8() (uint8, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrTruncatedField
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadInt8 reads a signed byte.
func (d *Decoder) ReadInt8() (int8, error) {
	b, err := d.ReadUint8()
	return int8(b), err
}

// ReadUint16 reads a big-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt16 reads a big-endian int16.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a big-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt32 reads a big-endian int32.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a big-endian uint64.
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadInt64 reads a big-endian int64.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a big-endian IEEE 754 float32.
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a big-endian IEEE 754 float64.
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadUUID reads a 128-bit big-endian UUID.
func (d *Decoder) ReadUUID() (uuid.UUID, error) {
	var id uuid.UUID
	b, err := d.ReadBytes(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// ReadString reads a string bounded by MaxStringLen UTF-16 code units.
func (d *Decoder) ReadString() (string, error) {
	return d.ReadBoundedString(MaxStringLen)
}

// ReadIdent reads and validates an identifier.
func (d *Decoder) ReadIdent() (Ident, error) {
	s, err := d.ReadString()
	if err != nil {
		return Ident{}, err
	}
	return ParseIdent(s)
}

// Decode reads v using its own decoding.
func (d *Decoder) Decode(v Decodable) error {
	return v.DecodeFrom(d)
}
