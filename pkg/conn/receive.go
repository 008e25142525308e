package conn

import (
	"context"
	"time"

	"github.com/vango-dev/blockwire/pkg/protocol"
)

// ReceivedPacket is a frame together with the moment it was decoded.
type ReceivedPacket struct {
	Timestamp time.Time
	State     protocol.State
	ID        int32
	Body      []byte
}

// Frame returns the packet as a frame for typed decoding.
func (p ReceivedPacket) Frame() *protocol.RawFrame {
	return &protocol.RawFrame{ID: p.ID, Body: p.Body}
}

// Receive reads frames and sends them on out until ctx is done or a read
// fails. It returns the error that stopped it; out is not closed.
//
// The connection state cannot change while Receive runs, so it is meant
// for the play phase where the state is fixed.
func (c *Conn) Receive(ctx context.Context, out chan<- ReceivedPacket) error {
	state := c.State()
	for {
		frame, err := c.ReadFrame(ctx)
		if err != nil {
			return err
		}
		pkt := ReceivedPacket{
			Timestamp: time.Now(),
			State:     state,
			ID:        frame.ID,
			Body:      frame.Body,
		}
		select {
		case out <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return ErrClosed
		}
	}
}
