package packets

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/blockwire/pkg/protocol"
)

//go:generate go run github.com/vango-dev/blockwire/cmd/wiregen

// QueryRequestC2s asks the server for its status.
//
//wire:packet id=0x00 state=Status side=Serverbound
type QueryRequestC2s struct{}

// QueryResponseS2c carries the status document as JSON.
//
//wire:packet id=0x00 state=Status side=Clientbound
type QueryResponseS2c struct {
	JSON string `wire:"string"`
}

// QueryPingC2s is echoed back by the server for latency measurement.
//
//wire:packet id=0x01 state=Status side=Serverbound
type QueryPingC2s struct {
	Payload uint64 `wire:"u64"`
}

// QueryPongS2c answers a QueryPingC2s with the same payload.
//
//wire:packet id=0x01 state=Status side=Clientbound
type QueryPongS2c struct {
	Payload uint64 `wire:"u64"`
}

// StatusResponse is the document carried by QueryResponseS2c.
type StatusResponse struct {
	Version     StatusVersion `json:"version"`
	Players     StatusPlayers `json:"players"`
	Description Text          `json:"description"`
	Favicon     string        `json:"favicon,omitempty"`
}

// StatusVersion names the game version and protocol number.
type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

// StatusPlayers reports player counts and an optional sample.
type StatusPlayers struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []StatusPlayer `json:"sample,omitempty"`
}

// StatusPlayer is one entry of the player sample.
type StatusPlayer struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// NewStatusResponse returns a status for this protocol version.
func NewStatusResponse(motd string, online, maxPlayers int) *StatusResponse {
	return &StatusResponse{
		Version:     StatusVersion{Name: protocol.GameVersion, Protocol: protocol.ProtocolVersion},
		Players:     StatusPlayers{Max: maxPlayers, Online: online},
		Description: Text{Text: motd},
	}
}

// Packet encodes s into a QueryResponseS2c.
func (s *StatusResponse) Packet() (*QueryResponseS2c, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("packets: encode status: %w", err)
	}
	return &QueryResponseS2c{JSON: string(data)}, nil
}

// Status parses the JSON document of p.
func (p *QueryResponseS2c) Status() (*StatusResponse, error) {
	var s StatusResponse
	if err := json.Unmarshal([]byte(p.JSON), &s); err != nil {
		return nil, fmt.Errorf("packets: decode status: %w", err)
	}
	return &s, nil
}
