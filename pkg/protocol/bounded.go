package protocol

import (
	"fmt"
	"unicode/utf8"
)

// Bounded values carry their ceiling in the field schema rather than in the
// type. The meaning of max depends on the value:
//
//   - strings: UTF-16 code units
//   - arrays: element count
//   - raw bytes: byte count
//
// Encoding checks the bound before writing anything; decoding checks the
// declared size before reading the payload.

// utf16Len returns the number of UTF-16 code units needed to encode s.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func boundsError(what string, got, max int) error {
	return fmt.Errorf("%w: %s %d > %d", ErrBoundsExceeded, what, got, max)
}

// WriteBoundedString appends s as a VarInt byte length followed by UTF-8.
// Fails with ErrBoundsExceeded if s has more than max UTF-16 code units.
func (e *Encoder) WriteBoundedString(s string, max int) error {
	if units := utf16Len(s); units > max {
		return boundsError("string length", units, max)
	}
	e.WriteVarInt(int32(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

// ReadBoundedString reads a string of at most max UTF-16 code units.
// A declared byte length that cannot fit in max code units is rejected
// before the payload is read.
func (d *Decoder) ReadBoundedString(max int) (string, error) {
	n, err := d.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	if int(n) > max*maxUTF8PerUnit {
		return "", boundsError("string byte length", int(n), max*maxUTF8PerUnit)
	}
	b, err := d.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	s := string(b)
	if units := utf16Len(s); units > max {
		return "", boundsError("string length", units, max)
	}
	return s, nil
}

// WriteRawBytes appends b with no length prefix.
// Fails with ErrBoundsExceeded if b is longer than max bytes.
func (e *Encoder) WriteRawBytes(b []byte, max int) error {
	if len(b) > max {
		return boundsError("raw length", len(b), max)
	}
	e.buf = append(e.buf, b...)
	return nil
}

// ReadRawBytes consumes the rest of the input, which must be at most max
// bytes long.
func (d *Decoder) ReadRawBytes(max int) ([]byte, error) {
	if n := d.Remaining(); n > max {
		return nil, boundsError("raw length", n, max)
	}
	b := d.buf[d.pos:]
	d.pos = len(d.buf)
	return b, nil
}

// WriteArray appends a VarInt count followed by each item.
// Fails with ErrBoundsExceeded if items has more than max elements.
func WriteArray[T any](e *Encoder, items []T, max int, fn func(*Encoder, T) error) error {
	if len(items) > max {
		return boundsError("array length", len(items), max)
	}
	e.WriteVarInt(int32(len(items)))
	for i, item := range items {
		if err := fn(e, item); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ReadArray reads a VarInt count and that many elements using fn.
// The count is checked against max before any element is decoded, and the
// slice is grown cautiously so a large declared count cannot force a large
// allocation. elemSize is the in-memory size used for the capacity estimate.
func ReadArray[T any](d *Decoder, max, elemSize int, fn func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if int(n) > max {
		return nil, boundsError("array length", int(n), max)
	}
	items := make([]T, 0, CautiousCapacity(int(n), elemSize))
	for i := 0; i < int(n); i++ {
		item, err := fn(d)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
