package protocol

import "math/bits"

const (
	// MaxVarIntLen is the maximum number of bytes a VarInt can occupy.
	MaxVarIntLen = 5

	// MaxVarLongLen is the maximum number of bytes a VarLong can occupy.
	MaxVarLongLen = 10

	segmentBits  = 0x7F
	continueBit  = 0x80
	varIntShifts = 7
)

// VarInt is a signed 32-bit integer encoded in 1 to 5 bytes.
type VarInt int32

// Len returns the number of bytes v occupies on the wire.
// Computed from the significant bit count of v treated as uint32.
func (v VarInt) Len() int {
	n := uint32(v)
	if n == 0 {
		return 1
	}
	return (31-bits.LeadingZeros32(n))/varIntShifts + 1
}

// AppendVarInt appends the VarInt encoding of v to dst.
func AppendVarInt(dst []byte, v int32) []byte {
	n := uint32(v)
	for n >= continueBit {
		dst = append(dst, byte(n)|continueBit)
		n >>= varIntShifts
	}
	return append(dst, byte(n))
}

// PutVarInt encodes v into buf and returns the number of bytes written.
// buf must have at least MaxVarIntLen bytes available.
func PutVarInt(buf []byte, v int32) int {
	n := uint32(v)
	i := 0
	for n >= continueBit {
		buf[i] = byte(n) | continueBit
		n >>= varIntShifts
		i++
	}
	buf[i] = byte(n)
	return i + 1
}

// DecodeVarIntPartial decodes a VarInt from the front of buf.
// Returns ErrIncompleteInput when buf ends before the final byte, in which
// case nothing should be consumed, and ErrMalformedVarInt when the fifth
// byte still has the continuation bit set.
func DecodeVarIntPartial(buf []byte) (int32, int, error) {
	var v uint32
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(buf) {
			return 0, 0, ErrIncompleteInput
		}
		b := buf[i]
		v |= uint32(b&segmentBits) << (i * varIntShifts)
		if b&continueBit == 0 {
			return int32(v), i + 1, nil
		}
	}
	return 0, 0, ErrMalformedVarInt
}

// DecodeVarInt decodes a complete VarInt from the front of buf.
// Unlike DecodeVarIntPartial, running out of input is ErrTruncatedField.
func DecodeVarInt(buf []byte) (int32, int, error) {
	v, n, err := DecodeVarIntPartial(buf)
	if err == ErrIncompleteInput {
		return 0, 0, ErrTruncatedField
	}
	return v, n, err
}

// VarLong is a signed 64-bit integer encoded in 1 to 10 bytes.
type VarLong int64

// Len returns the number of bytes v occupies on the wire.
func (v VarLong) Len() int {
	n := uint64(v)
	if n == 0 {
		return 1
	}
	return (63-bits.LeadingZeros64(n))/varIntShifts + 1
}

// AppendVarLong appends the VarLong encoding of v to dst.
func AppendVarLong(dst []byte, v int64) []byte {
	n := uint64(v)
	for n >= continueBit {
		dst = append(dst, byte(n)|continueBit)
		n >>= varIntShifts
	}
	return append(dst, byte(n))
}

// DecodeVarLong decodes a VarLong from the front of buf.
func DecodeVarLong(buf []byte) (int64, int, error) {
	var v uint64
	for i := 0; i < MaxVarLongLen; i++ {
		if i >= len(buf) {
			return 0, 0, ErrTruncatedField
		}
		b := buf[i]
		v |= uint64(b&segmentBits) << (i * varIntShifts)
		if b&continueBit == 0 {
			return int64(v), i + 1, nil
		}
	}
	return 0, 0, ErrMalformedVarInt
}
