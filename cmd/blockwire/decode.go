package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blockwire/internal/errors"
	"github.com/vango-dev/blockwire/pkg/capture"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/protocol/packets"
)

// decodeOptions are the flags of the decode command.
type decodeOptions struct {
	state       string
	side        string
	threshold   int
	capturePath string
	role        string
	asJSON      bool
}

func decodeCmd() *cobra.Command {
	var opts decodeOptions

	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Print the packets in hex frames or a capture file",
		Long: `Decode length-prefixed frames and print the packets they carry.

Hex input is read from the arguments, or from stdin when there are none.
Whitespace and colons are ignored. Handshake and compression packets
update the state and threshold for the frames that follow them.

Examples:
  blockwire decode 10 00 fd 05 09 6c 6f 63 61 6c 68 6f 73 74 63 dd 01
  blockwire decode --state status --side clientbound 0901...
  blockwire decode --capture captures/capture-20240101T000000Z-1a2b3c4d.bwcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.capturePath != "" {
				return decodeCapture(cmd.OutOrStdout(), opts)
			}
			input := strings.Join(args, "")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				input = string(data)
			}
			raw, err := parseHex(input)
			if err != nil {
				return err
			}
			return decodeStream(cmd.OutOrStdout(), raw, opts)
		},
	}

	cmd.Flags().StringVar(&opts.state, "state", "handshaking", "Initial state: handshaking, status, login, configuration, play")
	cmd.Flags().StringVar(&opts.side, "side", "serverbound", "Direction of the frames: serverbound or clientbound")
	cmd.Flags().IntVar(&opts.threshold, "threshold", -1, "Initial compression threshold, -1 for none")
	cmd.Flags().StringVar(&opts.capturePath, "capture", "", "Decode a capture file instead of hex input")
	cmd.Flags().StringVar(&opts.role, "role", "server", "Which end recorded the capture: server or client")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print packets as JSON")

	return cmd
}

// parseHex decodes hex digits, ignoring whitespace and colons.
func parseHex(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, errors.New("E142").Wrap(err)
	}
	return raw, nil
}

func parseState(s string) (protocol.State, error) {
	for st := protocol.StateHandshaking; st <= protocol.StatePlay; st++ {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return 0, errors.New("E142").WithDetail("Unknown state " + s).
		WithSuggestion("Use handshaking, status, login, configuration or play")
}

func parseSide(s string) (protocol.Side, error) {
	switch strings.ToLower(s) {
	case "serverbound", "c2s":
		return protocol.Serverbound, nil
	case "clientbound", "s2c":
		return protocol.Clientbound, nil
	}
	return 0, errors.New("E142").WithDetail("Unknown side " + s).
		WithSuggestion("Use serverbound or clientbound")
}

// decodeStream splits raw into frames and prints each packet.
func decodeStream(w io.Writer, raw []byte, opts decodeOptions) error {
	state, err := parseState(opts.state)
	if err != nil {
		return err
	}
	side, err := parseSide(opts.side)
	if err != nil {
		return err
	}

	dec := protocol.NewPacketDecoder()
	dec.SetCompression(protocol.CompressionThreshold(opts.threshold))
	dec.Queue(raw)

	for {
		frame, err := dec.TryNextFrame()
		if err != nil {
			return errors.New("E142").WithDetail("Frame decoding failed").Wrap(err)
		}
		if frame == nil {
			break
		}
		p := printPacket(w, "", side, state, frame, opts.asJSON)

		switch p := p.(type) {
		case *packets.HandshakeC2s:
			state = p.NextState.State()
		case *packets.LoginCompressionS2c:
			dec.SetCompression(protocol.CompressionThreshold(p.Threshold))
		case *packets.LoginSuccessS2c, *packets.LoginAcknowledgedC2s:
			state = protocol.StateConfiguration
		}
	}
	if n := dec.Buffered(); n > 0 {
		fmt.Fprintf(w, "(%d trailing bytes do not form a complete frame)\n", n)
	}
	return nil
}

// decodeCapture prints every entry of a capture file.
func decodeCapture(w io.Writer, opts decodeOptions) error {
	r, err := capture.Open(opts.capturePath)
	if err != nil {
		return errors.New("E143").Wrap(err)
	}
	defer r.Close()

	server := opts.role != "client"
	var start int64
	for i := 0; ; i++ {
		e, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.New("E143").Wrap(err)
		}
		if i == 0 {
			start = e.Time.UnixNano()
		}
		prefix := fmt.Sprintf("+%9.3fms %-3s ", float64(e.Time.UnixNano()-start)/1e6, e.Direction)
		printPacket(w, prefix, e.Side(server), e.State, e.Frame(), opts.asJSON)
	}
}

// printPacket decodes frame with the packet registry and prints one line.
// It returns the decoded packet, or nil if the frame is unknown or invalid.
func printPacket(w io.Writer, prefix string, side protocol.Side, state protocol.State, frame *protocol.RawFrame, asJSON bool) protocol.Packet {
	head := fmt.Sprintf("%s%-13s %-11s 0x%02X", prefix, state, side, frame.ID)

	p, err := packets.Registry.Decode(side, state, frame)
	if err != nil {
		fmt.Fprintf(w, "%s ! %v [%s]\n", head, err, hex.EncodeToString(frame.Body))
		return nil
	}
	if asJSON {
		data, err := json.Marshal(p)
		if err != nil {
			fmt.Fprintf(w, "%s %s ! %v\n", head, p.Descriptor().Name, err)
			return p
		}
		fmt.Fprintf(w, "%s %s %s\n", head, p.Descriptor().Name, data)
		return p
	}
	fmt.Fprintf(w, "%s %s %+v\n", head, p.Descriptor().Name, p)
	return p
}
