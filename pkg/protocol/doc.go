// Package protocol implements the Minecraft: Java Edition wire codec.
//
// The codec is transport-agnostic: it never performs I/O. Bytes read from a
// socket are queued into a PacketDecoder, which reassembles them into
// RawFrames one at a time. Typed packets are appended to a PacketEncoder,
// which frames them and hands back bytes ready for the socket.
//
// # Wire Format
//
// Every packet travels in a length-prefixed frame:
//
//	┌──────────────────┬──────────────────┬─────────────────────────┐
//	│ Packet Length    │ Packet ID        │ Body                    │
//	│ (VarInt)         │ (VarInt)         │ (per packet layout)     │
//	└──────────────────┴──────────────────┴─────────────────────────┘
//
// Once compression is enabled, the frame carries the uncompressed length
// after the packet length. A data length of zero means the rest of the frame
// was sent as-is:
//
//	┌──────────────────┬──────────────────┬─────────────────────────┐
//	│ Packet Length    │ Data Length      │ zlib(Packet ID + Body)  │
//	│ (VarInt)         │ (VarInt)         │ or raw when Data == 0   │
//	└──────────────────┴──────────────────┴─────────────────────────┘
//
// A body is compressed if and only if its uncompressed length is strictly
// greater than the compression threshold. Frames are limited to
// MaxPacketSize bytes.
//
// # Encryption
//
// After the login key exchange both directions are passed through
// AES-128-CFB8 keyed (and IV'd) with the shared secret. The cipher covers
// the whole byte stream including length prefixes, independent of frame
// boundaries.
//
// # Encoding
//
//   - VarInt/VarLong: 7 bits per byte, least significant group first
//   - Big-endian: fixed-width integers and floats
//   - Strings: VarInt byte length followed by UTF-8
//   - UUID: 128-bit big-endian
//   - Option: boolean presence flag followed by the value
//   - Arrays: VarInt count followed by the elements
//
// Packet types implement Packet. Their EncodeTo and DecodeFrom methods are
// generated from struct tags by the wiregen tool, see package packets.
package protocol
