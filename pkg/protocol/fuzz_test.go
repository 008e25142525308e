package protocol

import (
	"testing"
)

// FuzzDecodeVarInt tests that decoding arbitrary bytes doesn't panic and
// that every successful decode re-encodes to the same bytes.
func FuzzDecodeVarInt(f *testing.F) {
	// Seed with valid varints
	f.Add([]byte{0x00})
	f.Add([]byte{0x7F})
	f.Add([]byte{0x80, 0x01})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		v, n, err := DecodeVarIntPartial(data)
		if err != nil {
			return
		}
		if n > MaxVarIntLen || n > len(data) {
			t.Fatalf("consumed %d of %d bytes", n, len(data))
		}
		if VarInt(v).Len() > n {
			t.Fatalf("VarInt(%d).Len() = %d, decoded from %d bytes", v, VarInt(v).Len(), n)
		}
	})
}

// FuzzPacketDecoder tests that arbitrary streams never panic the frame
// decoder, with and without compression.
func FuzzPacketDecoder(f *testing.F) {
	enc := NewPacketEncoder()
	enc.AppendPacket(&blobPacket{id: 1, Data: []byte("seed")})
	f.Add(enc.Take(), int32(-1))

	enc.SetCompression(0)
	enc.AppendPacket(&blobPacket{id: 2, Data: pattern(100)})
	f.Add(enc.Take(), int32(0))

	f.Add([]byte{0x80, 0x80, 0x80, 0x80, 0x80}, int32(-1))

	f.Fuzz(func(t *testing.T, data []byte, threshold int32) {
		dec := NewPacketDecoder()
		dec.SetCompression(CompressionThreshold(threshold))
		dec.Queue(data)
		for i := 0; i < 64; i++ {
			frame, err := dec.TryNextFrame()
			if err != nil || frame == nil {
				return
			}
		}
	})
}

// FuzzReadBoundedString tests that string decoding never panics and never
// returns more than the bound.
func FuzzReadBoundedString(f *testing.F) {
	f.Add([]byte{0x03, 'a', 'b', 'c'}, 16)
	f.Add([]byte{0x04, 0xF0, 0x9F, 0x98, 0x80}, 1)

	f.Fuzz(func(t *testing.T, data []byte, max int) {
		if max < 0 || max > MaxStringLen {
			return
		}
		s, err := NewDecoder(data).ReadBoundedString(max)
		if err == nil && utf16Len(s) > max {
			t.Fatalf("decoded %d code units, bound %d", utf16Len(s), max)
		}
	})
}
