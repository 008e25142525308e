package protocol

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Encoder is a binary encoder that appends data to an internal buffer.
// It is designed for efficient encoding without allocations in the hot path.
// All fixed-width values are big-endian.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 256),
	}
}

// NewEncoderWithCap creates a new encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, cap),
	}
}

// Reset resets the encoder to empty state, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The returned slice is valid until
// the next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteBytes appends raw bytes without a length prefix.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteByteArray appends a VarInt length followed by b.
func (e *Encoder) WriteByteArray(b []byte) {
	e.WriteVarInt(int32(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteVarInt appends a VarInt.
func (e *Encoder) WriteVarInt(v int32) {
	e.buf = AppendVarInt(e.buf, v)
}

// WriteVarLong appends a VarLong.
func (e *Encoder) WriteVarLong(v int64) {
	e.buf = AppendVarLong(e.buf, v)
}

// WriteBool appends a boolean as a single byte (0 or 1).
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// WriteUint8 appends an unsigned byte.
func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteInt8 appends a signed byte.
func (e *Encoder) WriteInt8(v int8) {
	e.buf = append(e.buf, byte(v))
}

// WriteUint16 appends a big-endian uint16.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

// WriteInt16 appends a big-endian int16.
func (e *Encoder) WriteInt16(v int16) {
	e.WriteUint16(uint16(v))
}

// WriteUint32 appends a big-endian uint32.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}

// WriteInt32 appends a big-endian int32.
func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteUint64 appends a big-endian uint64.
func (e *Encoder) WriteUint64(v uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, v)
}

// WriteInt64 appends a big-endian int64.
func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteFloat32 appends a big-endian IEEE 754 float32.
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a big-endian IEEE 754 float64.
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}

// WriteUUID appends a UUID as a 128-bit big-endian integer.
func (e *Encoder) WriteUUID(id uuid.UUID) {
	e.buf = append(e.buf, id[:]...)
}

// WriteString appends a string bounded by MaxStringLen UTF-16 code units.
func (e *Encoder) WriteString(s string) error {
	return e.WriteBoundedString(s, MaxStringLen)
}

// WriteIdent appends an identifier in its canonical namespace:path form.
func (e *Encoder) WriteIdent(id Ident) error {
	return e.WriteString(id.String())
}

// Encode appends v using its own encoding.
func (e *Encoder) Encode(v Encodable) error {
	return v.EncodeTo(e)
}
