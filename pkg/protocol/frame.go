package protocol

import "fmt"

// RawFrame is one decoded frame before interpretation as a packet type.
//
// Wire layout of the frame payload, after decompression:
//
//	┌──────────────────┬──────────────────────────────────────────┐
//	│ Packet ID        │ Body                                     │
//	│ (VarInt)         │ (everything after the ID)                │
//	└──────────────────┴──────────────────────────────────────────┘
type RawFrame struct {
	ID   int32
	Body []byte
}

// DecodeInto decodes the frame body into p.
// The frame ID must match p's descriptor and the body must be consumed
// entirely.
func (f *RawFrame) DecodeInto(p Packet) error {
	desc := p.Descriptor()
	if f.ID != desc.ID {
		return fmt.Errorf("%w: frame 0x%02x, %s is 0x%02x", ErrIDMismatch, f.ID, desc.Name, desc.ID)
	}
	d := NewDecoder(f.Body)
	if err := p.DecodeFrom(d); err != nil {
		return fmt.Errorf("decoding %s: %w", desc.Name, err)
	}
	if n := d.Remaining(); n > 0 {
		return fmt.Errorf("%w: %d bytes left decoding %s", ErrTrailingBytes, n, desc.Name)
	}
	return nil
}

// DecodeAs decodes the frame into a new value of packet type T.
//
//	hs, err := protocol.DecodeAs[packets.HandshakeC2s](frame)
func DecodeAs[T any, PT interface {
	*T
	Packet
}](f *RawFrame) (*T, error) {
	p := PT(new(T))
	if err := f.DecodeInto(p); err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// EncodeFrame encodes p as a standalone frame payload: the VarInt packet ID
// followed by the body. It does not add the length prefix.
func EncodeFrame(p Packet) (*RawFrame, error) {
	e := NewEncoder()
	if err := p.EncodeTo(e); err != nil {
		return nil, err
	}
	return &RawFrame{ID: p.Descriptor().ID, Body: e.Bytes()}, nil
}

// String returns a short description for logs.
func (f *RawFrame) String() string {
	return fmt.Sprintf("frame(id=0x%02x, %d bytes)", f.ID, len(f.Body))
}
