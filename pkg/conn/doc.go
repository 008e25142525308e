// Package conn drives the frame codec over a byte stream.
//
// A Conn owns one PacketDecoder and one PacketEncoder. The codec never
// blocks; Conn supplies the read loop, tracks the connection state and
// applies compression and encryption to both directions at once:
//
//	c := conn.New(netConn, conn.RoleServer, conn.WithMetrics(m))
//	hs, err := conn.Expect[packets.HandshakeC2s](ctx, c)
//
// Reads and writes may run on separate goroutines. Concurrent reads, or
// concurrent writes, must be serialized by the caller.
package conn
