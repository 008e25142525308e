package packets

import "github.com/vango-dev/blockwire/pkg/protocol"

//go:generate go run github.com/vango-dev/blockwire/cmd/wiregen

// HandshakeC2s is the first packet of every connection.
//
//wire:packet id=0x00 state=Handshaking side=Serverbound
type HandshakeC2s struct {
	ProtocolVersion int32     `wire:"varint"`
	ServerAddress   string    `wire:"string,max=255"`
	ServerPort      uint16    `wire:"u16"`
	NextState       NextState `wire:"enum"`
}

// NextState is the state a handshake switches the connection to.
//
//wire:enum
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// State returns the connection state selected by s.
func (s NextState) State() protocol.State {
	if s == NextStateLogin {
		return protocol.StateLogin
	}
	return protocol.StateStatus
}
