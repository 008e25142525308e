package client

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
	"github.com/vango-dev/blockwire/pkg/server"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

// startServer serves srv on a loopback listener and returns its address.
func startServer(t *testing.T, config *server.ServerConfig) (*server.Server, string) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv, err := server.New(config,
		server.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
		server.WithGatherer(reg),
	)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		srv.Shutdown(shutdownCtx)
	})
	return srv, ln.Addr().String()
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPing(t *testing.T) {
	config := server.DefaultServerConfig()
	config.MOTD = "ping test"
	config.MaxPlayers = 42
	_, addr := startServer(t, config)

	res, err := Ping(testContext(t), addr)
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if res.Status.Description.Plain() != "ping test" {
		t.Errorf("description = %q", res.Status.Description.Plain())
	}
	if res.Status.Players.Max != 42 {
		t.Errorf("max players = %d", res.Status.Players.Max)
	}
	if res.Status.Version.Name != protocol.GameVersion {
		t.Errorf("version = %q", res.Status.Version.Name)
	}
	if res.Latency <= 0 {
		t.Errorf("latency = %v", res.Latency)
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		encryption bool
		threshold  protocol.CompressionThreshold
	}{
		{name: "plain", threshold: protocol.CompressionDisabled},
		{name: "compressed", threshold: 64},
		{name: "encrypted", encryption: true, threshold: protocol.CompressionDisabled},
		{name: "encrypted and compressed", encryption: true, threshold: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := server.DefaultServerConfig()
			config.Encryption = tt.encryption
			config.CompressionThreshold = tt.threshold
			srv, addr := startServer(t, config)
			ctx := testContext(t)

			sess, err := Login(ctx, addr, "Notch")
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			defer sess.Close()

			if sess.Username != "Notch" || sess.UUID != packets.OfflineUUID("Notch") {
				t.Errorf("session = %+v", sess)
			}
			if sess.Encrypted != tt.encryption {
				t.Errorf("Encrypted = %v, want %v", sess.Encrypted, tt.encryption)
			}
			if sess.Compression != tt.threshold {
				t.Errorf("Compression = %v, want %v", sess.Compression, tt.threshold)
			}
			if sess.Conn.State() != protocol.StateConfiguration {
				t.Errorf("state = %v", sess.Conn.State())
			}

			var cl *server.Client
			select {
			case cl = <-srv.Clients():
			case <-ctx.Done():
				t.Fatal("server did not publish the client")
			}
			defer cl.Close()
			if cl.Username != "Notch" || cl.ServerAddress != "127.0.0.1" {
				t.Errorf("server client = %+v", cl)
			}

			// Frames after login go through the negotiated cipher and compression.
			msg := &configPing{Payload: strings.Repeat("x", 300)}
			if err := sess.Conn.Send(msg); err != nil {
				t.Fatal(err)
			}
			got := new(configPing)
			if err := cl.Conn.ReadPacket(ctx, got); err != nil {
				t.Fatalf("ReadPacket: %v", err)
			}
			if got.Payload != msg.Payload {
				t.Errorf("payload length = %d", len(got.Payload))
			}
		})
	}
}

func TestLoginRejected(t *testing.T) {
	_, addr := startServer(t, server.DefaultServerConfig())

	d := &Dialer{ProtocolVersion: 760}
	_, err := d.Login(testContext(t), addr, "Old")
	var disc *DisconnectError
	if !errors.As(err, &disc) {
		t.Fatalf("Login = %v, want DisconnectError", err)
	}
	if !strings.Contains(disc.Reason.Plain(), "Outdated client") {
		t.Errorf("reason = %q", disc.Reason.Plain())
	}
}

func TestPingWebSocket(t *testing.T) {
	srv, err := server.New(server.DefaultServerConfig(), server.WithGatherer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	res, err := Ping(testContext(t), url)
	if err != nil {
		t.Fatalf("Ping over websocket: %v", err)
	}
	if res.Status.Version.Protocol != protocol.ProtocolVersion {
		t.Errorf("protocol = %d", res.Status.Version.Protocol)
	}
}

func TestLoginWebSocket(t *testing.T) {
	config := server.DefaultServerConfig()
	config.Encryption = true
	srv, err := server.New(config, server.WithGatherer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatal(err)
	}
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	ctx := testContext(t)
	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	sess, err := Login(ctx, url, "Jeb_")
	if err != nil {
		t.Fatalf("Login over websocket: %v", err)
	}
	defer sess.Close()

	select {
	case cl := <-srv.Clients():
		defer cl.Close()
		if cl.Username != "Jeb_" {
			t.Errorf("username = %q", cl.Username)
		}
	case <-ctx.Done():
		t.Fatal("no client")
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Ping(testContext(t), addr); err == nil {
		t.Error("expected dial error")
	}
}

func TestSplitAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort uint16
		wantErr  bool
	}{
		{addr: "localhost", wantHost: "localhost", wantPort: 25565},
		{addr: "mc.example.org:25570", wantHost: "mc.example.org", wantPort: 25570},
		{addr: "[::1]:1", wantHost: "::1", wantPort: 1},
		{addr: "host:0", wantErr: true},
		{addr: "host:99999", wantErr: true},
		{addr: "host:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port, err := SplitAddr(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Errorf("SplitAddr(%q) = %q %d, want error", tt.addr, host, port)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("SplitAddr(%q) = %q %d", tt.addr, host, port)
			}
		})
	}
}

// configPing is a serverbound configuration packet used to check the
// post-login stream.
type configPing struct {
	Payload string
}

func (p *configPing) Descriptor() protocol.Descriptor {
	return protocol.Descriptor{ID: 0x7F, Name: "ConfigPing", Side: protocol.Serverbound, State: protocol.StateConfiguration}
}

func (p *configPing) EncodeTo(e *protocol.Encoder) error {
	return e.WriteString(p.Payload)
}

func (p *configPing) DecodeFrom(d *protocol.Decoder) (err error) {
	p.Payload, err = d.ReadString()
	return err
}
