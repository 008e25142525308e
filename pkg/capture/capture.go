package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/vango-dev/blockwire/pkg/protocol"
)

// Magic identifies a capture file.
const Magic = "BWCAP1"

// Extension is the file extension used for capture files.
const Extension = ".bwcap"

// ErrBadMagic is returned when a stream does not start with Magic.
var ErrBadMagic = errors.New("capture: not a capture file")

// ErrTruncated is returned when a stream ends inside an entry.
var ErrTruncated = errors.New("capture: truncated entry")

// Direction is the way a recorded frame travelled.
type Direction uint8

const (
	Inbound  Direction = iota // Read from the peer
	Outbound                  // Written to the peer
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "in"
	case Outbound:
		return "out"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Entry is one recorded frame.
type Entry struct {
	Time      time.Time
	Direction Direction
	State     protocol.State
	ID        int32
	Body      []byte
}

// Frame returns the entry as a frame for typed decoding.
func (e *Entry) Frame() *protocol.RawFrame {
	return &protocol.RawFrame{ID: e.ID, Body: e.Body}
}

// Side returns the side the frame was addressed to. server reports whether
// the capture was recorded by the server end of the connection.
func (e *Entry) Side(server bool) protocol.Side {
	if (e.Direction == Inbound) == server {
		return protocol.Serverbound
	}
	return protocol.Clientbound
}

func (e *Entry) encode(enc *protocol.Encoder) {
	enc.WriteVarLong(e.Time.UnixNano())
	enc.WriteUint8(uint8(e.Direction))
	enc.WriteVarInt(int32(e.State))
	enc.WriteVarInt(e.ID)
	enc.WriteByteArray(e.Body)
}

// FileName returns the capture file name for a connection started at t and
// identified by id.
func FileName(t time.Time, id string) string {
	return "capture-" + t.UTC().Format("20060102T150405Z") + "-" + id + Extension
}
