package protocol

import (
	"fmt"
	"sync"
)

// Side is the direction a packet travels in.
type Side uint8

const (
	Clientbound Side = iota // Server → Client
	Serverbound             // Client → Server
)

// String returns the string representation of the side.
func (s Side) String() string {
	switch s {
	case Clientbound:
		return "Clientbound"
	case Serverbound:
		return "Serverbound"
	default:
		return "Unknown"
	}
}

// State is the connection state a packet belongs to. Packet IDs are only
// unique within a (Side, State) pair.
type State uint8

const (
	StateHandshaking State = iota
	StateStatus
	StateLogin
	StateConfiguration
	StatePlay
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "Handshaking"
	case StateStatus:
		return "Status"
	case StateLogin:
		return "Login"
	case StateConfiguration:
		return "Configuration"
	case StatePlay:
		return "Play"
	default:
		return "Unknown"
	}
}

// Descriptor identifies a packet type's role in the protocol.
type Descriptor struct {
	ID    int32
	Name  string
	Side  Side
	State State
}

// String returns a short description for logs.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s(0x%02x %s/%s)", d.Name, d.ID, d.State, d.Side)
}

// Packet is a typed message with a fixed descriptor.
type Packet interface {
	Codable
	Descriptor() Descriptor
}

// EncodeWithID appends p's VarInt packet ID followed by its body.
func EncodeWithID(e *Encoder, p Packet) error {
	e.WriteVarInt(p.Descriptor().ID)
	return p.EncodeTo(e)
}

type registryKey struct {
	side  Side
	state State
	id    int32
}

// Registry maps packet descriptors to constructors so frames can be
// dispatched on ID without a type switch.
type Registry struct {
	mu      sync.RWMutex
	entries map[registryKey]func() Packet
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]func() Packet)}
}

// Register adds a constructor. It panics if the descriptor of the packet it
// builds is already registered, which is a programming error.
func (r *Registry) Register(newFn func() Packet) {
	desc := newFn().Descriptor()
	key := registryKey{desc.Side, desc.State, desc.ID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[key]; dup {
		panic(fmt.Sprintf("protocol: duplicate packet registration %s", desc))
	}
	r.entries[key] = newFn
}

// Lookup returns the descriptor registered for (side, state, id).
func (r *Registry) Lookup(side Side, state State, id int32) (Descriptor, bool) {
	r.mu.RLock()
	newFn, ok := r.entries[registryKey{side, state, id}]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, false
	}
	return newFn().Descriptor(), true
}

// Decode builds the packet registered for the frame's ID and decodes the
// frame into it.
func (r *Registry) Decode(side Side, state State, f *RawFrame) (Packet, error) {
	r.mu.RLock()
	newFn, ok := r.entries[registryKey{side, state, f.ID}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s %s 0x%02x", ErrUnknownPacket, state, side, f.ID)
	}
	p := newFn()
	if err := f.DecodeInto(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of registered packet types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
