package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vango-dev/blockwire/pkg/conn"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

var (
	// ErrVersionMismatch is returned when a login names another protocol
	// version and StrictVersion is set.
	ErrVersionMismatch = errors.New("server: protocol version mismatch")

	// ErrBadVerifyToken is returned when the client echoes a wrong verify token.
	ErrBadVerifyToken = errors.New("server: verify token mismatch")

	// ErrBadSharedSecret is returned when the decrypted secret is not 16 bytes.
	ErrBadSharedSecret = errors.New("server: invalid shared secret")
)

const verifyTokenLen = 4

// handshake reads the handshake and runs the exchange it selects. It
// returns a Client only after a completed login.
func (s *Server) handshake(ctx context.Context, c *conn.Conn) (*Client, error) {
	if s.config.LoginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.LoginTimeout)
		defer cancel()
	}

	hs, err := conn.Expect[packets.HandshakeC2s](ctx, c)
	if err != nil {
		return nil, err
	}
	c.SetState(hs.NextState.State())
	c.Logger().Debug("handshake",
		"protocol", hs.ProtocolVersion,
		"address", hs.ServerAddress,
		"port", hs.ServerPort,
		"next", hs.NextState)

	if hs.NextState == packets.NextStateStatus {
		return nil, s.serveStatus(ctx, c)
	}
	return s.serveLogin(ctx, c, hs)
}

// serveStatus answers a status request and an optional ping.
func (s *Server) serveStatus(ctx context.Context, c *conn.Conn) (err error) {
	ctx, span := s.tracer.StartExchange(ctx, protocol.StateStatus)
	start := time.Now()
	defer func() {
		s.metrics.ObserveExchange("status", start, err)
		telemetry.End(span, err)
	}()

	if _, err := conn.Expect[packets.QueryRequestC2s](ctx, c); err != nil {
		return err
	}
	resp, err := s.Status().Packet()
	if err != nil {
		return err
	}
	if err := c.Send(resp); err != nil {
		return err
	}

	ping, err := conn.Expect[packets.QueryPingC2s](ctx, c)
	if errors.Is(err, io.EOF) {
		// Clients that only want the server list entry hang up here.
		return nil
	}
	if err != nil {
		return err
	}
	return c.Send(&packets.QueryPongS2c{Payload: ping.Payload})
}

// serveLogin runs login up to the client's acknowledgement.
func (s *Server) serveLogin(ctx context.Context, c *conn.Conn, hs *packets.HandshakeC2s) (client *Client, err error) {
	ctx, span := s.tracer.StartExchange(ctx, protocol.StateLogin)
	start := time.Now()
	defer func() {
		s.metrics.ObserveExchange("login", start, err)
		telemetry.End(span, err)
	}()

	hello, err := conn.Expect[packets.LoginHelloC2s](ctx, c)
	if err != nil {
		return nil, err
	}

	if s.config.StrictVersion && hs.ProtocolVersion != protocol.ProtocolVersion {
		reason := "Outdated server! I'm still on " + protocol.GameVersion
		if hs.ProtocolVersion < protocol.ProtocolVersion {
			reason = "Outdated client! Please use " + protocol.GameVersion
		}
		if err := Disconnect(c, reason); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: client %d, server %d", ErrVersionMismatch, hs.ProtocolVersion, protocol.ProtocolVersion)
	}

	if s.key != nil {
		if err := s.encrypt(ctx, c); err != nil {
			return nil, err
		}
	}

	if t := s.config.CompressionThreshold; t.Enabled() {
		if err := c.Send(&packets.LoginCompressionS2c{Threshold: int32(t)}); err != nil {
			return nil, err
		}
		c.SetCompression(t)
	}

	success := &packets.LoginSuccessS2c{
		UUID:     packets.OfflineUUID(hello.Username),
		Username: hello.Username,
	}
	if err := c.Send(success); err != nil {
		return nil, err
	}
	if _, err := conn.Expect[packets.LoginAcknowledgedC2s](ctx, c); err != nil {
		return nil, err
	}
	c.SetState(protocol.StateConfiguration)

	return &Client{
		Conn:            c,
		Username:        success.Username,
		UUID:            success.UUID,
		Properties:      success.Properties,
		ServerAddress:   hs.ServerAddress,
		ServerPort:      hs.ServerPort,
		ProtocolVersion: hs.ProtocolVersion,
	}, nil
}

// encrypt runs the key exchange and switches c to AES/CFB8.
func (s *Server) encrypt(ctx context.Context, c *conn.Conn) error {
	token := make([]byte, verifyTokenLen)
	if _, err := rand.Read(token); err != nil {
		return err
	}
	if err := c.Send(&packets.LoginHelloS2c{
		PublicKey:   s.publicDER,
		VerifyToken: token,
	}); err != nil {
		return err
	}

	reply, err := conn.Expect[packets.LoginKeyC2s](ctx, c)
	if err != nil {
		return err
	}
	key, err := decryptSecret(s.key, reply, token)
	if err != nil {
		return err
	}
	return c.EnableEncryption(key)
}

// decryptSecret recovers the shared secret from reply and checks the
// echoed verify token.
func decryptSecret(priv *rsa.PrivateKey, reply *packets.LoginKeyC2s, token []byte) ([protocol.KeySize]byte, error) {
	var key [protocol.KeySize]byte

	echoed, err := rsa.DecryptPKCS1v15(rand.Reader, priv, reply.VerifyToken)
	if err != nil {
		return key, fmt.Errorf("%w: %v", ErrBadVerifyToken, err)
	}
	if !bytes.Equal(echoed, token) {
		return key, ErrBadVerifyToken
	}

	secret, err := rsa.DecryptPKCS1v15(rand.Reader, priv, reply.SharedSecret)
	if err != nil {
		return key, fmt.Errorf("%w: %v", ErrBadSharedSecret, err)
	}
	if len(secret) != protocol.KeySize {
		return key, fmt.Errorf("%w: %d bytes", ErrBadSharedSecret, len(secret))
	}
	copy(key[:], secret)
	return key, nil
}

// Disconnect sends a login disconnect with reason as plain chat text.
func Disconnect(c *conn.Conn, reason string) error {
	return c.Send(&packets.LoginDisconnectS2c{Reason: packets.Text{Text: reason}.JSON()})
}
