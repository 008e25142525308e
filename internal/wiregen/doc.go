// Package wiregen generates wire codecs for packet declarations.
//
// Packet structs are plain Go structs whose field order is the wire order.
// A directive comment on the type selects what is generated:
//
//	//wire:packet id=0x00 state=Handshaking side=Serverbound
//	type HandshakeC2s struct {
//		ProtocolVersion int32     `wire:"varint"`
//		ServerAddress   string    `wire:"string,max=255"`
//		ServerPort      uint16    `wire:"u16"`
//		NextState       NextState `wire:"enum"`
//	}
//
//	//wire:struct      nested value with EncodeTo/DecodeFrom only
//	//wire:enum        integer type encoded as a VarInt discriminant
//
// Field kinds: varint varlong bool u8 i8 u16 i16 u32 i32 u64 i64 f32 f64
// string ident bytes rest uuid enum struct array. The options max=N and
// optional (with a pointer field) apply where they make sense; array takes
// elem=<kind> for its elements and defaults to struct.
//
// For every source file containing directives, a <name>_wire.go file is
// written next to it with the generated methods, descriptor constants and a
// registry init.
package wiregen
