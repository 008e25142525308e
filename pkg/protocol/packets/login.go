package packets

import (
	"crypto/md5"

	"github.com/google/uuid"
	"github.com/vango-dev/blockwire/pkg/protocol"
)

//go:generate go run github.com/vango-dev/blockwire/cmd/wiregen

// MaxLoginPayload bounds the custom payload of login plugin messages.
const MaxLoginPayload = 1048576

// LoginDisconnectS2c closes a connection during login with a reason.
//
//wire:packet id=0x00 state=Login side=Clientbound
type LoginDisconnectS2c struct {
	Reason string `wire:"string,max=262144"`
}

// LoginHelloS2c requests encryption from the client.
//
//wire:packet id=0x01 state=Login side=Clientbound
type LoginHelloS2c struct {
	ServerID    string `wire:"string,max=20"`
	PublicKey   []byte `wire:"bytes"`
	VerifyToken []byte `wire:"bytes"`
}

// LoginSuccessS2c completes login and moves the client to configuration.
//
//wire:packet id=0x02 state=Login side=Clientbound
type LoginSuccessS2c struct {
	UUID       uuid.UUID  `wire:"uuid"`
	Username   string     `wire:"string,max=16"`
	Properties []Property `wire:"array,max=16"`
}

// LoginCompressionS2c sets the compression threshold for both directions.
//
//wire:packet id=0x03 state=Login side=Clientbound
type LoginCompressionS2c struct {
	Threshold int32 `wire:"varint"`
}

// LoginQueryRequestS2c is a login plugin request.
//
//wire:packet id=0x04 state=Login side=Clientbound
type LoginQueryRequestS2c struct {
	MessageID int32          `wire:"varint"`
	Channel   protocol.Ident `wire:"ident"`
	Data      []byte         `wire:"rest,max=1048576"`
}

// LoginHelloC2s starts login with the player's name.
//
//wire:packet id=0x00 state=Login side=Serverbound
type LoginHelloC2s struct {
	Username  string    `wire:"string,max=16"`
	ProfileID uuid.UUID `wire:"uuid"`
}

// LoginKeyC2s answers LoginHelloS2c with the RSA encrypted shared secret
// and verify token.
//
//wire:packet id=0x01 state=Login side=Serverbound
type LoginKeyC2s struct {
	SharedSecret []byte `wire:"bytes"`
	VerifyToken  []byte `wire:"bytes"`
}

// LoginQueryResponseC2s answers a LoginQueryRequestS2c. A nil Data means
// the client did not understand the channel.
//
//wire:packet id=0x02 state=Login side=Serverbound
type LoginQueryResponseC2s struct {
	MessageID int32   `wire:"varint"`
	Data      *[]byte `wire:"rest,max=1048576,optional"`
}

// LoginAcknowledgedC2s confirms LoginSuccessS2c.
//
//wire:packet id=0x03 state=Login side=Serverbound
type LoginAcknowledgedC2s struct{}

// Property is a signed profile property such as skin textures.
//
//wire:struct
type Property struct {
	Name      string  `wire:"string"`
	Value     string  `wire:"string"`
	Signature *string `wire:"string,optional"`
}

// OfflineUUID returns the UUID a server in offline mode assigns to
// username: a version 3 UUID of "OfflinePlayer:<name>" with no namespace.
func OfflineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum)
}
