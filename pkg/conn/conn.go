package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/vango-dev/blockwire/pkg/capture"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

// ErrClosed is returned by operations on a closed Conn.
var ErrClosed = errors.New("conn: closed")

// DefaultReadBufferSize is the size of each transport read.
const DefaultReadBufferSize = 4096

// Role is which end of the connection a Conn is.
type Role uint8

const (
	RoleServer Role = iota // Reads serverbound packets
	RoleClient             // Reads clientbound packets
)

// String returns the string representation of the role.
func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// Inbound returns the side of packets this role reads.
func (r Role) Inbound() protocol.Side {
	if r == RoleClient {
		return protocol.Clientbound
	}
	return protocol.Serverbound
}

// Conn is a packet connection over an io.ReadWriteCloser.
type Conn struct {
	rw   io.ReadWriteCloser
	role Role

	readMu  sync.Mutex
	dec     *protocol.PacketDecoder
	readBuf []byte

	writeMu sync.Mutex
	enc     *protocol.PacketEncoder

	stateMu sync.RWMutex
	state   protocol.State

	registry *protocol.Registry
	metrics  *telemetry.Metrics
	recorder *capture.Recorder
	logger   *slog.Logger
	remote   string

	closeOnce sync.Once
	closed    chan struct{}
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// WithMetrics records frames, bytes and codec errors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Conn) {
		c.metrics = m
	}
}

// WithRecorder records every frame read and written.
func WithRecorder(r *capture.Recorder) Option {
	return func(c *Conn) {
		c.recorder = r
	}
}

// WithRegistry sets the registry used by ReadPacket.
func WithRegistry(r *protocol.Registry) Option {
	return func(c *Conn) {
		c.registry = r
	}
}

// WithRemoteAddr overrides the peer address used in logs.
func WithRemoteAddr(addr string) Option {
	return func(c *Conn) {
		c.remote = addr
	}
}

// WithReadBufferSize sets the size of each transport read.
func WithReadBufferSize(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.readBuf = make([]byte, n)
		}
	}
}

// New wraps rw. The connection starts in the Handshaking state with
// compression and encryption disabled.
func New(rw io.ReadWriteCloser, role Role, opts ...Option) *Conn {
	c := &Conn{
		rw:     rw,
		role:   role,
		dec:    protocol.NewPacketDecoder(),
		enc:    protocol.NewPacketEncoder(),
		state:  protocol.StateHandshaking,
		closed: make(chan struct{}),
	}
	if nc, ok := rw.(net.Conn); ok {
		c.remote = nc.RemoteAddr().String()
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.readBuf == nil {
		c.readBuf = make([]byte, DefaultReadBufferSize)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "conn", "role", role.String(), "remote", c.remote)
	return c
}

// Role returns which end of the connection c is.
func (c *Conn) Role() Role {
	return c.role
}

// RemoteAddr returns the peer address, or "" if unknown.
func (c *Conn) RemoteAddr() string {
	return c.remote
}

// Logger returns the connection's logger.
func (c *Conn) Logger() *slog.Logger {
	return c.logger
}

// State returns the current connection state.
func (c *Conn) State() protocol.State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// SetState switches the connection state. Packets read afterwards are
// looked up in the new state.
func (c *Conn) SetState(s protocol.State) {
	c.stateMu.Lock()
	prev := c.state
	c.state = s
	c.stateMu.Unlock()
	if prev != s {
		c.logger.Debug("state changed", "from", prev, "to", s)
	}
}

// SetCompression sets the compression threshold of both directions.
// Frames already buffered for writing keep the framing they were encoded
// with. It waits for an in-progress ReadFrame, so call it from the reading
// goroutine.
func (c *Conn) SetCompression(t protocol.CompressionThreshold) {
	c.readMu.Lock()
	c.dec.SetCompression(t)
	c.readMu.Unlock()

	c.writeMu.Lock()
	c.enc.SetCompression(t)
	c.writeMu.Unlock()
	c.logger.Debug("compression set", "threshold", t)
}

// EnableEncryption starts AES/CFB8 on both directions with key. Bytes
// already read but not yet decoded are decrypted in place.
func (c *Conn) EnableEncryption(key [protocol.KeySize]byte) error {
	c.readMu.Lock()
	err := c.dec.EnableEncryption(key)
	c.readMu.Unlock()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	err = c.enc.EnableEncryption(key)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}
	c.logger.Debug("encryption enabled")
	return nil
}

// ReadFrame returns the next frame, reading from the transport as needed.
// Cancelling ctx interrupts a blocked read when the transport supports
// deadlines.
func (c *Conn) ReadFrame(ctx context.Context) (*protocol.RawFrame, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		frame, err := c.dec.TryNextFrame()
		if err != nil {
			c.metrics.CodecError(err)
			return nil, err
		}
		if frame != nil {
			state := c.State()
			c.metrics.FrameDecoded(state, len(frame.Body))
			if c.recorder != nil {
				if err := c.recorder.Record(capture.Inbound, state, frame); err != nil {
					c.logger.Warn("capture failed", "error", err)
				}
			}
			return frame, nil
		}

		if err := c.fill(ctx); err != nil {
			return nil, err
		}
	}
}

// fill performs one transport read into the decoder.
func (c *Conn) fill(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	stop := c.watch(ctx)
	n, err := c.rw.Read(c.readBuf)
	stop()

	if n > 0 {
		c.metrics.BytesIn(n)
		c.dec.Queue(c.readBuf[:n])
		return nil
	}
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	if errors.Is(err, io.EOF) && c.dec.Buffered() > 0 {
		return fmt.Errorf("conn: %w: stream ended inside a frame", io.ErrUnexpectedEOF)
	}
	return err
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// watch arranges for a blocked read to return when ctx is done. The
// returned function must be called once the read has completed.
func (c *Conn) watch(ctx context.Context) func() {
	dl, ok := c.rw.(deadliner)
	if !ok || ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		dl.SetReadDeadline(time.Unix(1, 0))
		close(fired)
	})
	return func() {
		if !stop() {
			<-fired
		}
		dl.SetReadDeadline(time.Time{})
	}
}

// ReadPacket reads the next frame and decodes it into p, which must be the
// packet type expected next.
func (c *Conn) ReadPacket(ctx context.Context, p protocol.Packet) error {
	frame, err := c.ReadFrame(ctx)
	if err != nil {
		return err
	}
	if err := frame.DecodeInto(p); err != nil {
		c.metrics.CodecError(err)
		return err
	}
	return nil
}

// Next reads the next frame and decodes it with the registry for the
// current state.
func (c *Conn) Next(ctx context.Context) (protocol.Packet, error) {
	if c.registry == nil {
		return nil, errors.New("conn: no registry configured")
	}
	frame, err := c.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}
	p, err := c.registry.Decode(c.role.Inbound(), c.State(), frame)
	if err != nil {
		c.metrics.CodecError(err)
		return nil, err
	}
	return p, nil
}

// Expect reads the next frame as a T.
func Expect[T any, PT interface {
	*T
	protocol.Packet
}](ctx context.Context, c *Conn) (*T, error) {
	p := PT(new(T))
	if err := c.ReadPacket(ctx, p); err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// WritePacket buffers p for the next Flush.
func (c *Conn) WritePacket(p protocol.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(p)
}

func (c *Conn) writeLocked(p protocol.Packet) error {
	before := c.enc.Len()
	if err := c.enc.AppendPacket(p); err != nil {
		c.metrics.CodecError(err)
		return err
	}
	state := c.State()
	c.metrics.FrameEncoded(state, c.enc.Len()-before)

	if c.recorder != nil {
		frame, err := protocol.EncodeFrame(p)
		if err == nil {
			err = c.recorder.Record(capture.Outbound, state, frame)
		}
		if err != nil {
			c.logger.Warn("capture failed", "error", err)
		}
	}
	return nil
}

// Flush writes all buffered packets to the transport.
func (c *Conn) Flush() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.flushLocked()
}

func (c *Conn) flushLocked() error {
	if c.enc.Len() == 0 {
		return nil
	}
	out := c.enc.Take()
	n, err := c.rw.Write(out)
	c.metrics.BytesOut(n)
	if err != nil {
		return fmt.Errorf("conn: write: %w", err)
	}
	return nil
}

// Send buffers p and flushes.
func (c *Conn) Send(p protocol.Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.writeLocked(p); err != nil {
		return err
	}
	return c.flushLocked()
}

// Close closes the transport. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.rw.Close()
		c.logger.Debug("closed")
	})
	return err
}

// Done is closed when Close is called.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}
