package server

import (
	"net/http"
	"time"

	"github.com/vango-dev/blockwire/pkg/protocol"
)

// ServerConfig holds the settings of a Server.
type ServerConfig struct {
	// Address is the game listener address.
	// Default: "0.0.0.0:25565".
	Address string

	// AdminAddress is the HTTP admin listener address. Empty disables it.
	AdminAddress string

	// MOTD is the description shown in the server list.
	MOTD string

	// MaxPlayers is the advertised player limit.
	// Default: 500.
	MaxPlayers int

	// CompressionThreshold is sent to clients after login.
	// protocol.CompressionDisabled skips the compression packet.
	// Default: 256.
	CompressionThreshold protocol.CompressionThreshold

	// Encryption enables the RSA key exchange and AES/CFB8 stream cipher.
	Encryption bool

	// StrictVersion disconnects clients whose handshake names another
	// protocol version.
	// Default: true.
	StrictVersion bool

	// LoginTimeout bounds the handshake through login acknowledgement.
	// Zero means no limit.
	// Default: 30 seconds.
	LoginTimeout time.Duration

	// ShutdownTimeout bounds Shutdown of the admin listener.
	// Default: 5 seconds.
	ShutdownTimeout time.Duration

	// CaptureDir enables recording; each connection gets its own file there.
	CaptureDir string

	// ClientQueue is the buffer of the Clients channel.
	// Default: 16.
	ClientQueue int

	// CheckOrigin validates the Origin header of /ws upgrades. Nil allows
	// every origin.
	CheckOrigin func(r *http.Request) bool
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:              "0.0.0.0:25565",
		MOTD:                 "A blockwire server",
		MaxPlayers:           500,
		CompressionThreshold: 256,
		StrictVersion:        true,
		LoginTimeout:         30 * time.Second,
		ShutdownTimeout:      5 * time.Second,
		ClientQueue:          16,
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	defaults := DefaultServerConfig()
	if c == nil {
		return defaults
	}
	clone := *c
	if clone.Address == "" {
		clone.Address = defaults.Address
	}
	if clone.ShutdownTimeout == 0 {
		clone.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if clone.ClientQueue <= 0 {
		clone.ClientQueue = defaults.ClientQueue
	}
	if clone.CheckOrigin == nil {
		clone.CheckOrigin = func(*http.Request) bool { return true }
	}
	return &clone
}
