package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vango-dev/blockwire/pkg/conn"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
)

// Client is a player that completed login. Its connection is in the
// Configuration state and belongs to whoever received it from Clients.
type Client struct {
	// Conn is the player's connection.
	Conn *conn.Conn

	Username   string
	UUID       uuid.UUID
	Properties []packets.Property

	// ServerAddress and ServerPort are what the player typed to connect.
	ServerAddress string
	ServerPort    uint16

	// ProtocolVersion is the version named in the handshake.
	ProtocolVersion int32

	closeOnce sync.Once
	release   func()
}

// Close closes the connection and finishes its capture file. It is safe
// to call more than once.
func (c *Client) Close() error {
	err := c.Conn.Close()
	c.closeOnce.Do(func() {
		if c.release != nil {
			c.release()
		}
	})
	return err
}

// Property returns the named profile property.
func (c *Client) Property(name string) (packets.Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return packets.Property{}, false
}
