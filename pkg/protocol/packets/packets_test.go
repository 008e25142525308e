package packets

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vango-dev/blockwire/pkg/protocol"
)

func roundTrip(t *testing.T, p protocol.Packet) protocol.Packet {
	t.Helper()
	enc := protocol.NewPacketEncoder()
	if err := enc.AppendPacket(p); err != nil {
		t.Fatalf("AppendPacket: %v", err)
	}
	dec := protocol.NewPacketDecoder()
	dec.Queue(enc.Take())
	frame, err := dec.TryNextFrame()
	if err != nil || frame == nil {
		t.Fatalf("TryNextFrame = %v, %v", frame, err)
	}
	desc := p.Descriptor()
	got, err := Registry.Decode(desc.Side, desc.State, frame)
	if err != nil {
		t.Fatalf("Registry.Decode: %v", err)
	}
	return got
}

func TestHandshakeWire(t *testing.T) {
	p := &HandshakeC2s{
		ProtocolVersion: protocol.ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       NextStateStatus,
	}
	e := protocol.NewEncoder()
	if err := protocol.EncodeWithID(e, p); err != nil {
		t.Fatalf("EncodeWithID: %v", err)
	}
	want := []byte{
		0x00,       // id
		0xFD, 0x05, // 765
		0x09, 'l', 'o', 'c', 'a', 'l', 'h', 'o', 's', 't',
		0x63, 0xDD, // 25565
		0x01, // status
	}
	if !bytes.Equal(e.Bytes(), want) {
		t.Errorf("encoded = % x, want % x", e.Bytes(), want)
	}

	got := roundTrip(t, p).(*HandshakeC2s)
	if *got != *p {
		t.Errorf("round trip = %+v, want %+v", got, p)
	}
}

func TestHandshakeInvalidNextState(t *testing.T) {
	body := []byte{0xFD, 0x05, 0x00, 0x00, 0x00, 0x03}
	frame := &protocol.RawFrame{ID: HandshakeC2sID, Body: body}
	var p HandshakeC2s
	err := frame.DecodeInto(&p)
	if !errors.Is(err, protocol.ErrInvalidDiscriminant) {
		t.Fatalf("err = %v, want ErrInvalidDiscriminant", err)
	}
	var fe *protocol.FieldError
	if !errors.As(err, &fe) || fe.Field != "NextState" {
		t.Errorf("err = %v, want FieldError on NextState", err)
	}

	if err := NextState(7).EncodeTo(protocol.NewEncoder()); !errors.Is(err, protocol.ErrInvalidDiscriminant) {
		t.Errorf("encode invalid state err = %v", err)
	}
}

func TestNextState(t *testing.T) {
	if NextStateLogin.State() != protocol.StateLogin || NextStateStatus.State() != protocol.StateStatus {
		t.Error("NextState.State mapping")
	}
	if NextStateLogin.String() != "Login" || NextState(9).String() != "NextState(9)" {
		t.Errorf("String = %q, %q", NextStateLogin, NextState(9))
	}
}

func TestIDMismatch(t *testing.T) {
	frame, err := protocol.EncodeFrame(&QueryPingC2s{Payload: 42})
	if err != nil {
		t.Fatal(err)
	}
	var p QueryRequestC2s
	if err := frame.DecodeInto(&p); !errors.Is(err, protocol.ErrIDMismatch) {
		t.Errorf("err = %v, want ErrIDMismatch", err)
	}
}

func TestTrailingBytes(t *testing.T) {
	frame := &protocol.RawFrame{ID: QueryRequestC2sID, Body: []byte{0x00}}
	var p QueryRequestC2s
	if err := frame.DecodeInto(&p); !errors.Is(err, protocol.ErrTrailingBytes) {
		t.Errorf("err = %v, want ErrTrailingBytes", err)
	}
}

func TestRegistryCoverage(t *testing.T) {
	tests := []struct {
		side  protocol.Side
		state protocol.State
		id    int32
		name  string
	}{
		{protocol.Serverbound, protocol.StateHandshaking, 0, "HandshakeC2s"},
		{protocol.Serverbound, protocol.StateStatus, 0, "QueryRequestC2s"},
		{protocol.Clientbound, protocol.StateStatus, 0, "QueryResponseS2c"},
		{protocol.Serverbound, protocol.StateStatus, 1, "QueryPingC2s"},
		{protocol.Clientbound, protocol.StateStatus, 1, "QueryPongS2c"},
		{protocol.Clientbound, protocol.StateLogin, 0, "LoginDisconnectS2c"},
		{protocol.Clientbound, protocol.StateLogin, 1, "LoginHelloS2c"},
		{protocol.Clientbound, protocol.StateLogin, 2, "LoginSuccessS2c"},
		{protocol.Clientbound, protocol.StateLogin, 3, "LoginCompressionS2c"},
		{protocol.Clientbound, protocol.StateLogin, 4, "LoginQueryRequestS2c"},
		{protocol.Serverbound, protocol.StateLogin, 0, "LoginHelloC2s"},
		{protocol.Serverbound, protocol.StateLogin, 1, "LoginKeyC2s"},
		{protocol.Serverbound, protocol.StateLogin, 2, "LoginQueryResponseC2s"},
		{protocol.Serverbound, protocol.StateLogin, 3, "LoginAcknowledgedC2s"},
	}
	if Registry.Len() != len(tests) {
		t.Errorf("Registry.Len() = %d, want %d", Registry.Len(), len(tests))
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, ok := Registry.Lookup(tt.side, tt.state, tt.id)
			if !ok {
				t.Fatal("not registered")
			}
			if desc.Name != tt.name {
				t.Errorf("Name = %q, want %q", desc.Name, tt.name)
			}
		})
	}

	_, err := Registry.Decode(protocol.Serverbound, protocol.StatePlay, &protocol.RawFrame{ID: 0})
	if !errors.Is(err, protocol.ErrUnknownPacket) {
		t.Errorf("unknown packet err = %v", err)
	}
}

func TestLoginSuccessWire(t *testing.T) {
	sig := "c2ln"
	p := &LoginSuccessS2c{
		UUID:     OfflineUUID("Steve"),
		Username: "Steve",
		Properties: []Property{
			{Name: "textures", Value: "e30="},
			{Name: "textures", Value: "e30=", Signature: &sig},
		},
	}
	got := roundTrip(t, p).(*LoginSuccessS2c)
	if got.UUID != p.UUID || got.Username != p.Username {
		t.Errorf("got %+v", got)
	}
	if len(got.Properties) != 2 {
		t.Fatalf("got %d properties", len(got.Properties))
	}
	if got.Properties[0].Signature != nil {
		t.Error("first property should have no signature")
	}
	if got.Properties[1].Signature == nil || *got.Properties[1].Signature != sig {
		t.Errorf("signature = %v", got.Properties[1].Signature)
	}
}

func TestLoginSuccessTooManyProperties(t *testing.T) {
	p := &LoginSuccessS2c{Username: "x", Properties: make([]Property, 17)}
	err := p.EncodeTo(protocol.NewEncoder())
	if !errors.Is(err, protocol.ErrBoundsExceeded) {
		t.Errorf("err = %v, want ErrBoundsExceeded", err)
	}
}

func TestUsernameBound(t *testing.T) {
	p := &LoginHelloC2s{Username: "abcdefghijklmnopq"}
	if err := p.EncodeTo(protocol.NewEncoder()); !errors.Is(err, protocol.ErrBoundsExceeded) {
		t.Errorf("err = %v, want ErrBoundsExceeded", err)
	}

	// Declared length 200 is rejected before the payload is read.
	frame := &protocol.RawFrame{ID: LoginHelloC2sID, Body: []byte{0xC8, 0x01, 'a'}}
	var hello LoginHelloC2s
	if err := frame.DecodeInto(&hello); !errors.Is(err, protocol.ErrBoundsExceeded) {
		t.Errorf("decode err = %v, want ErrBoundsExceeded", err)
	}
}

func TestLoginQuery(t *testing.T) {
	req := &LoginQueryRequestS2c{
		MessageID: 7,
		Channel:   protocol.MustIdent("velocity:player_info"),
		Data:      []byte{1, 2, 3},
	}
	gotReq := roundTrip(t, req).(*LoginQueryRequestS2c)
	if gotReq.Channel != req.Channel || !bytes.Equal(gotReq.Data, req.Data) {
		t.Errorf("request = %+v", gotReq)
	}

	data := []byte("payload")
	tests := []struct {
		name string
		data *[]byte
	}{
		{"absent", nil},
		{"present", &data},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &LoginQueryResponseC2s{MessageID: 7, Data: tt.data}
			got := roundTrip(t, resp).(*LoginQueryResponseC2s)
			if (got.Data == nil) != (tt.data == nil) {
				t.Fatalf("Data = %v, want %v", got.Data, tt.data)
			}
			if tt.data != nil && !bytes.Equal(*got.Data, *tt.data) {
				t.Errorf("Data = %q", *got.Data)
			}
		})
	}
}

func TestLoginKey(t *testing.T) {
	p := &LoginKeyC2s{SharedSecret: bytes.Repeat([]byte{0xAB}, 128), VerifyToken: []byte{1, 2, 3, 4}}
	got := roundTrip(t, p).(*LoginKeyC2s)
	if !bytes.Equal(got.SharedSecret, p.SharedSecret) || !bytes.Equal(got.VerifyToken, p.VerifyToken) {
		t.Errorf("got %+v", got)
	}
}

func TestOfflineUUID(t *testing.T) {
	id := OfflineUUID("Notch")
	if id.Version() != 3 {
		t.Errorf("version = %d, want 3", id.Version())
	}
	if id.Variant() != uuid.RFC4122 {
		t.Errorf("variant = %v", id.Variant())
	}
	if id != OfflineUUID("Notch") || id == OfflineUUID("notch") {
		t.Error("OfflineUUID is not a pure function of the name")
	}
}

func TestStatusResponse(t *testing.T) {
	s := NewStatusResponse("A Blockwire Server", 3, 20)
	p, err := s.Packet()
	if err != nil {
		t.Fatal(err)
	}
	got := roundTrip(t, p).(*QueryResponseS2c)
	status, err := got.Status()
	if err != nil {
		t.Fatal(err)
	}
	if status.Version.Protocol != protocol.ProtocolVersion || status.Version.Name != protocol.GameVersion {
		t.Errorf("version = %+v", status.Version)
	}
	if status.Players.Online != 3 || status.Players.Max != 20 {
		t.Errorf("players = %+v", status.Players)
	}
	if status.Description.Plain() != "A Blockwire Server" {
		t.Errorf("description = %q", status.Description.Plain())
	}
}

func TestTextPlainString(t *testing.T) {
	p := &QueryResponseS2c{JSON: `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"hello"}`}
	status, err := p.Status()
	if err != nil {
		t.Fatal(err)
	}
	if status.Description.Plain() != "hello" {
		t.Errorf("description = %q", status.Description.Plain())
	}

	nested := Text{Text: "a", Extra: []Text{{Text: "b"}, {Text: "c", Extra: []Text{{Text: "d"}}}}}
	if nested.Plain() != "abcd" {
		t.Errorf("Plain = %q", nested.Plain())
	}
}

func TestPingPong(t *testing.T) {
	got := roundTrip(t, &QueryPongS2c{Payload: 0xDEADBEEFCAFEF00D}).(*QueryPongS2c)
	if got.Payload != 0xDEADBEEFCAFEF00D {
		t.Errorf("Payload = %x", got.Payload)
	}
}

func TestDisconnectReasonLong(t *testing.T) {
	reason := Text{Text: string(bytes.Repeat([]byte{'x'}, 40000))}.JSON()
	got := roundTrip(t, &LoginDisconnectS2c{Reason: reason}).(*LoginDisconnectS2c)
	if got.Reason != reason {
		t.Error("reason mismatch")
	}
}
