package conn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/blockwire/pkg/capture"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

func pipe(t *testing.T, opts ...Option) (server, client *Conn) {
	t.Helper()
	a, b := net.Pipe()
	server = New(a, RoleServer, append([]Option{WithRegistry(packets.Registry)}, opts...)...)
	client = New(b, RoleClient, WithRegistry(packets.Registry))
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

// sendAsync sends from a goroutine since net.Pipe writes block until read.
func sendAsync(t *testing.T, c *Conn, ps ...protocol.Packet) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		for _, p := range ps {
			if err := c.WritePacket(p); err != nil {
				errc <- err
				return
			}
		}
		errc <- c.Flush()
	}()
	return errc
}

func TestConnHandshake(t *testing.T) {
	server, client := pipe(t)
	ctx := context.Background()

	want := packets.HandshakeC2s{
		ProtocolVersion: protocol.ProtocolVersion,
		ServerAddress:   "mc.example.com",
		ServerPort:      25565,
		NextState:       packets.NextStateStatus,
	}
	errc := sendAsync(t, client, &want)

	got, err := Expect[packets.HandshakeC2s](ctx, server)
	if err != nil {
		t.Fatalf("Expect: %v", err)
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestConnNextUsesState(t *testing.T) {
	server, client := pipe(t)
	ctx := context.Background()
	server.SetState(protocol.StateStatus)

	errc := sendAsync(t, client, &packets.QueryRequestC2s{}, &packets.QueryPingC2s{Payload: 99})

	p, err := server.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*packets.QueryRequestC2s); !ok {
		t.Fatalf("got %T", p)
	}
	p, err = server.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ping, ok := p.(*packets.QueryPingC2s); !ok || ping.Payload != 99 {
		t.Fatalf("got %#v", p)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestConnCompressionAndEncryption(t *testing.T) {
	server, client := pipe(t)
	ctx := context.Background()
	server.SetState(protocol.StateLogin)
	client.SetState(protocol.StateLogin)

	key := [protocol.KeySize]byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5, 6}
	for _, c := range []*Conn{server, client} {
		c.SetCompression(64)
		if err := c.EnableEncryption(key); err != nil {
			t.Fatal(err)
		}
	}

	big := bytes.Repeat([]byte("blockwire"), 100)
	sent := &packets.LoginQueryRequestS2c{
		MessageID: 1,
		Channel:   protocol.MustIdent("test:big"),
		Data:      big,
	}
	errc := sendAsync(t, server, sent, &packets.LoginCompressionS2c{Threshold: 64})

	got, err := Expect[packets.LoginQueryRequestS2c](ctx, client)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Data, big) {
		t.Error("payload mismatch")
	}
	small, err := Expect[packets.LoginCompressionS2c](ctx, client)
	if err != nil {
		t.Fatal(err)
	}
	if small.Threshold != 64 {
		t.Errorf("Threshold = %d", small.Threshold)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	if err := server.EnableEncryption(key); !errors.Is(err, protocol.ErrEncryptionAlreadyEnabled) {
		t.Errorf("second EnableEncryption err = %v", err)
	}
}

func TestConnReadCancelled(t *testing.T) {
	server, _ := pipe(t)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := server.ReadFrame(ctx)
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrame did not return after cancel")
	}
}

func TestConnReadDeadline(t *testing.T) {
	server, _ := pipe(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := server.ReadFrame(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

type streamRWC struct {
	io.Reader
	io.Writer
}

func (streamRWC) Close() error { return nil }

func TestConnEOF(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"clean", nil, io.EOF},
		{"inside frame", []byte{0x05, 0x00, 0x01}, io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(streamRWC{bytes.NewReader(tt.input), io.Discard}, RoleServer)
			if _, err := c.ReadFrame(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConnCodecErrorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	c := New(streamRWC{bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}), io.Discard}, RoleServer, WithMetrics(m))

	if _, err := c.ReadFrame(context.Background()); !errors.Is(err, protocol.ErrMalformedVarInt) {
		t.Fatalf("err = %v, want ErrMalformedVarInt", err)
	}
	s := m.Snapshot()
	if s.Errors != 1 || s.BytesIn != 6 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestConnRecorder(t *testing.T) {
	var buf bytes.Buffer
	rec, err := capture.NewRecorder(&buf)
	if err != nil {
		t.Fatal(err)
	}
	server, client := pipe(t, WithRecorder(rec))
	ctx := context.Background()
	server.SetState(protocol.StateStatus)
	client.SetState(protocol.StateStatus)

	errc := sendAsync(t, client, &packets.QueryPingC2s{Payload: 5})
	if _, err := Expect[packets.QueryPingC2s](ctx, server); err != nil {
		t.Fatal(err)
	}
	<-errc

	errc = sendAsync(t, server, &packets.QueryPongS2c{Payload: 5})
	if _, err := Expect[packets.QueryPongS2c](ctx, client); err != nil {
		t.Fatal(err)
	}
	<-errc
	rec.Close()

	r, err := capture.NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Direction != capture.Inbound || entries[1].Direction != capture.Outbound {
		t.Errorf("directions = %v, %v", entries[0].Direction, entries[1].Direction)
	}
	var pong packets.QueryPongS2c
	if err := entries[1].Frame().DecodeInto(&pong); err != nil || pong.Payload != 5 {
		t.Errorf("recorded pong = %+v, %v", pong, err)
	}
}

func TestConnReceive(t *testing.T) {
	server, client := pipe(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan ReceivedPacket, 4)
	done := make(chan error, 1)
	go func() { done <- server.Receive(ctx, out) }()

	errc := sendAsync(t, client, &packets.QueryPingC2s{Payload: 1}, &packets.QueryPingC2s{Payload: 2})
	for i := uint64(1); i <= 2; i++ {
		select {
		case pkt := <-out:
			var ping packets.QueryPingC2s
			if err := pkt.Frame().DecodeInto(&ping); err != nil || ping.Payload != i {
				t.Errorf("packet %d = %+v, %v", i, ping, err)
			}
			if pkt.Timestamp.IsZero() {
				t.Error("zero timestamp")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
	<-errc

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Receive err = %v", err)
	}
}

func TestConnNextWithoutRegistry(t *testing.T) {
	c := New(streamRWC{bytes.NewReader(nil), io.Discard}, RoleClient)
	if _, err := c.Next(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRole(t *testing.T) {
	if RoleServer.Inbound() != protocol.Serverbound || RoleClient.Inbound() != protocol.Clientbound {
		t.Error("Inbound mapping")
	}
	if RoleServer.String() != "server" || RoleClient.String() != "client" {
		t.Error("String")
	}
}
