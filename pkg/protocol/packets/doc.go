// Package packets declares the Handshaking, Status and Login packets of
// protocol 765.
//
// Each declaration file carries //wire: directives and a go:generate line;
// the matching *_wire.go files hold the generated codecs and register every
// packet into Registry on init:
//
//	frame, _ := dec.TryNextFrame()
//	p, err := packets.Registry.Decode(protocol.Serverbound, protocol.StateLogin, frame)
//
// Regenerate after editing a declaration with `go generate ./pkg/protocol/packets`.
package packets
