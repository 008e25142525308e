package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/blockwire/internal/config"
	"github.com/vango-dev/blockwire/internal/errors"
	"github.com/vango-dev/blockwire/pkg/capture"
	"github.com/vango-dev/blockwire/pkg/protocol"
)

// handshakeHex is a handshake to localhost:25565 asking for status,
// followed by a status request.
const handshakeHex = "10 00 fd 05 09 6c 6f 63 61 6c 68 6f 73 74 63 dd 01 01 00"

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantCode      string
	}{
		{"info", "text", ""},
		{"debug", "json", ""},
		{"WARN", "", ""},
		{"loud", "text", "E125"},
		{"info", "xml", "E121"},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if tt.wantCode != "" {
				e, ok := err.(*errors.Error)
				if !ok || e.Code != tt.wantCode {
					t.Fatalf("err = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("newLogger: %v", err)
			}
			logger.Error("hello")
			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("output %q missing message", buf.String())
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "text")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled")
	}
}

func TestParseHex(t *testing.T) {
	raw, err := parseHex("0x01:00\n ff")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0x01, 0x00, 0xff}) {
		t.Errorf("parseHex = % x", raw)
	}

	_, err = parseHex("zz")
	if e, ok := err.(*errors.Error); !ok || e.Code != "E142" {
		t.Errorf("err = %v, want E142", err)
	}
}

func TestParseStateAndSide(t *testing.T) {
	st, err := parseState("login")
	if err != nil || st != protocol.StateLogin {
		t.Errorf("parseState(login) = %v, %v", st, err)
	}
	if _, err := parseState("lobby"); err == nil {
		t.Error("parseState(lobby) should fail")
	}

	side, err := parseSide("clientbound")
	if err != nil || side != protocol.Clientbound {
		t.Errorf("parseSide(clientbound) = %v, %v", side, err)
	}
	if _, err := parseSide("up"); err == nil {
		t.Error("parseSide(up) should fail")
	}
}

func TestDecodeStream(t *testing.T) {
	raw, err := parseHex(handshakeHex)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	opts := decodeOptions{state: "handshaking", side: "serverbound", threshold: -1}
	if err := decodeStream(&out, raw, opts); err != nil {
		t.Fatalf("decodeStream: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "HandshakeC2s") || !strings.Contains(lines[0], "localhost") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Status") || !strings.Contains(lines[1], "QueryRequestC2s") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestDecodeStreamUnknownAndTrailing(t *testing.T) {
	var out bytes.Buffer
	opts := decodeOptions{state: "play", side: "serverbound", threshold: -1}
	if err := decodeStream(&out, []byte{0x02, 0x05, 0xaa, 0x03}, opts); err != nil {
		t.Fatalf("decodeStream: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "0x05") || !strings.Contains(s, "[aa]") {
		t.Errorf("unknown packet not printed with body: %q", s)
	}
	if !strings.Contains(s, "1 trailing bytes") {
		t.Errorf("trailing bytes not reported: %q", s)
	}
}

func TestDecodeStreamJSON(t *testing.T) {
	raw, _ := parseHex(handshakeHex)
	var out bytes.Buffer
	opts := decodeOptions{state: "handshaking", side: "serverbound", threshold: -1, asJSON: true}
	if err := decodeStream(&out, raw, opts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"ServerAddress":"localhost"`) {
		t.Errorf("JSON output = %q", out.String())
	}
}

func TestDecodeCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c"+capture.Extension)
	rec, err := capture.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := parseHex("fd 05 09 6c 6f 63 61 6c 68 6f 73 74 63 dd 01")
	if err := rec.Record(capture.Inbound, protocol.StateHandshaking, &protocol.RawFrame{ID: 0, Body: raw}); err != nil {
		t.Fatal(err)
	}
	if err := rec.Record(capture.Outbound, protocol.StateStatus, &protocol.RawFrame{ID: 1, Body: make([]byte, 8)}); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := decodeCapture(&out, decodeOptions{capturePath: path, role: "server"}); err != nil {
		t.Fatalf("decodeCapture: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "HandshakeC2s") || !strings.Contains(s, "QueryPongS2c") {
		t.Errorf("output = %q", s)
	}

	err = decodeCapture(&out, decodeOptions{capturePath: filepath.Join(t.TempDir(), "missing")})
	if e, ok := err.(*errors.Error); !ok || e.Code != "E143" {
		t.Errorf("err = %v, want E143", err)
	}
}

func TestServerConfig(t *testing.T) {
	cfg := config.New()
	cfg.Server.Bind = "127.0.0.1:25570"
	cfg.Server.CompressionThreshold = 128
	cfg.Server.LoginTimeout = "5s"
	cfg.Capture.Enabled = true
	cfg.Capture.Dir = "caps"

	sc := serverConfig(cfg)
	if sc.Address != "127.0.0.1:25570" {
		t.Errorf("Address = %q", sc.Address)
	}
	if sc.CompressionThreshold != 128 {
		t.Errorf("CompressionThreshold = %v", sc.CompressionThreshold)
	}
	if sc.LoginTimeout != 5*time.Second {
		t.Errorf("LoginTimeout = %v", sc.LoginTimeout)
	}
	if sc.CaptureDir != "caps" {
		t.Errorf("CaptureDir = %q", sc.CaptureDir)
	}
	if sc.AdminAddress != config.DefaultAdminAddr {
		t.Errorf("AdminAddress = %q", sc.AdminAddress)
	}

	cfg.Admin.Enabled = false
	if sc := serverConfig(cfg); sc.AdminAddress != "" {
		t.Errorf("AdminAddress = %q, want empty", sc.AdminAddress)
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	var flags globalFlags
	cmd := configCmd(&flags)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	flags.configPath = filepath.Join(dir, config.ConfigFileName)
	cmd = configCmd(&flags)
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"validate"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Errorf("validate output = %q", out.String())
	}
}
