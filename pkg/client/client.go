package client

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/blockwire/pkg/conn"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

// DefaultPort is used when an address has no port.
const DefaultPort = 25565

var (
	// ErrPongMismatch is returned when the pong payload differs from the ping.
	ErrPongMismatch = errors.New("client: pong payload mismatch")

	// ErrBadPublicKey is returned when the server's key is not RSA.
	ErrBadPublicKey = errors.New("client: server public key is not RSA")
)

// DisconnectError is returned when the server ends login with a reason.
type DisconnectError struct {
	Reason packets.Text
}

func (e *DisconnectError) Error() string {
	return "client: disconnected: " + e.Reason.Plain()
}

// Dialer holds the options for connecting to a server. The zero value is
// usable.
type Dialer struct {
	// Timeout bounds connection setup. Zero means no limit beyond ctx.
	Timeout time.Duration

	// ProtocolVersion is sent in the handshake.
	// Default: protocol.ProtocolVersion.
	ProtocolVersion int32

	// Logger receives connection logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics records codec activity, if set.
	Metrics *telemetry.Metrics
}

// PingResult is the outcome of a status exchange.
type PingResult struct {
	Status  *packets.StatusResponse
	Latency time.Duration
}

// Session is a completed login. Its connection is in the Configuration state.
type Session struct {
	Conn        *conn.Conn
	Username    string
	UUID        uuid.UUID
	Properties  []packets.Property
	Compression protocol.CompressionThreshold
	Encrypted   bool
}

// Close closes the session's connection.
func (s *Session) Close() error {
	return s.Conn.Close()
}

// Ping runs a status exchange with the default Dialer.
func Ping(ctx context.Context, addr string) (*PingResult, error) {
	var d Dialer
	return d.Ping(ctx, addr)
}

// Login logs username in with the default Dialer.
func Login(ctx context.Context, addr, username string) (*Session, error) {
	var d Dialer
	return d.Login(ctx, addr, username)
}

// Ping requests the server status and measures a ping round trip.
func (d *Dialer) Ping(ctx context.Context, addr string) (*PingResult, error) {
	c, host, port, err := d.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := c.Send(d.handshake(host, port, packets.NextStateStatus)); err != nil {
		return nil, err
	}
	c.SetState(protocol.StateStatus)
	if err := c.Send(&packets.QueryRequestC2s{}); err != nil {
		return nil, err
	}
	resp, err := conn.Expect[packets.QueryResponseS2c](ctx, c)
	if err != nil {
		return nil, err
	}
	status, err := resp.Status()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload := uint64(start.UnixMilli())
	if err := c.Send(&packets.QueryPingC2s{Payload: payload}); err != nil {
		return nil, err
	}
	pong, err := conn.Expect[packets.QueryPongS2c](ctx, c)
	if err != nil {
		return nil, err
	}
	if pong.Payload != payload {
		return nil, ErrPongMismatch
	}
	return &PingResult{Status: status, Latency: time.Since(start)}, nil
}

// Login runs an offline login as username, following the server through
// encryption, compression and plugin requests.
func (d *Dialer) Login(ctx context.Context, addr, username string) (*Session, error) {
	c, host, port, err := d.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	sess, err := d.login(ctx, c, host, port, username)
	if err != nil {
		c.Close()
		return nil, err
	}
	return sess, nil
}

func (d *Dialer) login(ctx context.Context, c *conn.Conn, host string, port uint16, username string) (*Session, error) {
	if err := c.Send(d.handshake(host, port, packets.NextStateLogin)); err != nil {
		return nil, err
	}
	c.SetState(protocol.StateLogin)
	if err := c.Send(&packets.LoginHelloC2s{
		Username:  username,
		ProfileID: packets.OfflineUUID(username),
	}); err != nil {
		return nil, err
	}

	sess := &Session{Conn: c, Compression: protocol.CompressionDisabled}
	for {
		p, err := c.Next(ctx)
		if err != nil {
			return nil, err
		}
		switch p := p.(type) {
		case *packets.LoginDisconnectS2c:
			var reason packets.Text
			if err := reason.UnmarshalJSON([]byte(p.Reason)); err != nil {
				reason.Text = p.Reason
			}
			return nil, &DisconnectError{Reason: reason}

		case *packets.LoginHelloS2c:
			if err := encrypt(c, p); err != nil {
				return nil, err
			}
			sess.Encrypted = true

		case *packets.LoginCompressionS2c:
			t := protocol.CompressionThreshold(p.Threshold)
			if t < 0 {
				t = protocol.CompressionDisabled
			}
			c.SetCompression(t)
			sess.Compression = t

		case *packets.LoginQueryRequestS2c:
			// Unknown channel: answer without data.
			if err := c.Send(&packets.LoginQueryResponseC2s{MessageID: p.MessageID}); err != nil {
				return nil, err
			}

		case *packets.LoginSuccessS2c:
			if err := c.Send(&packets.LoginAcknowledgedC2s{}); err != nil {
				return nil, err
			}
			c.SetState(protocol.StateConfiguration)
			sess.Username = p.Username
			sess.UUID = p.UUID
			sess.Properties = p.Properties
			return sess, nil

		default:
			return nil, fmt.Errorf("client: unexpected %s during login", p.Descriptor().Name)
		}
	}
}

// encrypt answers an encryption request and enables the cipher.
func encrypt(c *conn.Conn, req *packets.LoginHelloS2c) error {
	parsed, err := x509.ParsePKIXPublicKey(req.PublicKey)
	if err != nil {
		return fmt.Errorf("client: parse public key: %w", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return ErrBadPublicKey
	}

	var secret [protocol.KeySize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return err
	}
	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret[:])
	if err != nil {
		return fmt.Errorf("client: encrypt secret: %w", err)
	}
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, req.VerifyToken)
	if err != nil {
		return fmt.Errorf("client: encrypt verify token: %w", err)
	}
	if err := c.Send(&packets.LoginKeyC2s{SharedSecret: encSecret, VerifyToken: encToken}); err != nil {
		return err
	}
	return c.EnableEncryption(secret)
}

func (d *Dialer) handshake(host string, port uint16, next packets.NextState) *packets.HandshakeC2s {
	version := d.ProtocolVersion
	if version == 0 {
		version = protocol.ProtocolVersion
	}
	return &packets.HandshakeC2s{
		ProtocolVersion: version,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       next,
	}
}

// dial opens the transport for addr and wraps it in a client Conn.
func (d *Dialer) dial(ctx context.Context, addr string) (*conn.Conn, string, uint16, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	var (
		rw     io.ReadWriteCloser
		remote string
		host   string
		port   uint16
		err    error
	)
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		u, perr := url.Parse(addr)
		if perr != nil {
			return nil, "", 0, fmt.Errorf("client: bad address %q: %w", addr, perr)
		}
		if host, port, err = SplitAddr(u.Host); err != nil {
			return nil, "", 0, err
		}
		stream, werr := DialWebSocket(ctx, addr)
		if werr != nil {
			return nil, "", 0, werr
		}
		rw, remote = stream, stream.RemoteAddr()
	} else {
		if host, port, err = SplitAddr(addr); err != nil {
			return nil, "", 0, err
		}
		var nd net.Dialer
		nc, derr := nd.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
		if derr != nil {
			return nil, "", 0, fmt.Errorf("client: dial: %w", derr)
		}
		rw, remote = nc, nc.RemoteAddr().String()
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := conn.New(rw, conn.RoleClient,
		conn.WithLogger(logger.With("component", "client")),
		conn.WithMetrics(d.Metrics),
		conn.WithRegistry(packets.Registry),
		conn.WithRemoteAddr(remote),
	)
	return c, host, port, nil
}

// SplitAddr splits host[:port], defaulting the port to 25565.
func SplitAddr(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// No port given.
		if strings.Contains(err.Error(), "missing port") {
			return strings.Trim(addr, "[]"), DefaultPort, nil
		}
		return "", 0, fmt.Errorf("client: bad address %q: %w", addr, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return "", 0, fmt.Errorf("client: bad port in %q", addr)
	}
	return host, uint16(port), nil
}
