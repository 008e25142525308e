package protocol

import "fmt"

// Encodable is implemented by every type with a wire representation.
// EncodeTo appends the canonical encoding of the value to e. It fails only
// when a bounded field exceeds its limit.
type Encodable interface {
	EncodeTo(e *Encoder) error
}

// Decodable is implemented by pointers to types with a wire representation.
// DecodeFrom reads exactly the bytes of one value and advances d past them.
type Decodable interface {
	DecodeFrom(d *Decoder) error
}

// Codable combines Encodable and Decodable.
type Codable interface {
	Encodable
	Decodable
}

// WriteOptional appends a presence flag followed by *v when v is non-nil.
func WriteOptional[T any](e *Encoder, v *T, fn func(*Encoder, T) error) error {
	e.WriteBool(v != nil)
	if v == nil {
		return nil
	}
	return fn(e, *v)
}

// ReadOptional reads a presence flag and, when set, a value using fn.
func ReadOptional[T any](d *Decoder, fn func(*Decoder) (T, error)) (*T, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	v, err := fn(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Variant is one case of a data-carrying enum. Its discriminant is written
// as a VarInt ahead of the variant's own fields.
type Variant interface {
	Encodable
	Discriminant() int32
}

// WriteVariant appends v's discriminant followed by its fields.
func WriteVariant(e *Encoder, v Variant) error {
	e.WriteVarInt(v.Discriminant())
	return v.EncodeTo(e)
}

// VariantSet maps discriminants to constructors of the matching case.
// Discriminants need not be dense.
type VariantSet[V Variant] map[int32]func() V

// ReadVariant reads a discriminant, constructs the matching case and decodes
// its fields into it. Each constructor must return a pointer whose DecodeFrom
// fills the variant.
func ReadVariant[V Variant](d *Decoder, set VariantSet[V]) (V, error) {
	var zero V
	disc, err := d.ReadVarInt()
	if err != nil {
		return zero, err
	}
	newFn, ok := set[disc]
	if !ok {
		return zero, fmt.Errorf("%w: %d", ErrInvalidDiscriminant, disc)
	}
	v := newFn()
	dec, ok := any(v).(Decodable)
	if !ok {
		return zero, fmt.Errorf("protocol: variant %T is not decodable", v)
	}
	if err := dec.DecodeFrom(d); err != nil {
		return zero, err
	}
	return v, nil
}
