package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blockwire/internal/errors"
	"github.com/vango-dev/blockwire/pkg/client"
)

func pingCmd() *cobra.Command {
	var (
		timeout time.Duration
		asJSON  bool
		login   string
	)

	cmd := &cobra.Command{
		Use:   "ping <host[:port] | ws://host/ws>",
		Short: "Query a server's status and latency",
		Long: `Query a server's status and measure the ping round trip.

With --login the command also performs an offline login as the given name
and reports the negotiated encryption and compression.

Examples:
  blockwire ping localhost
  blockwire ping mc.example.org:25570 --json
  blockwire ping ws://127.0.0.1:8765/ws --login Steve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := &client.Dialer{Timeout: timeout}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*timeout)
			defer cancel()

			res, err := d.Ping(ctx, args[0])
			if err != nil {
				return errors.New("E145").WithDetail("Pinging " + args[0] + " failed").Wrap(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Status    any   `json:"status"`
					LatencyMS int64 `json:"latency_ms"`
				}{res.Status, res.Latency.Milliseconds()})
			}

			info(out, "%s", res.Status.Description.Plain())
			info(out, "version  %s (protocol %d)", res.Status.Version.Name, res.Status.Version.Protocol)
			info(out, "players  %d/%d", res.Status.Players.Online, res.Status.Players.Max)
			info(out, "latency  %s", res.Latency.Round(time.Microsecond))

			if login == "" {
				return nil
			}
			sess, err := d.Login(ctx, args[0], login)
			if err != nil {
				var disc *client.DisconnectError
				if stderrors.As(err, &disc) {
					return errors.New("E061").WithDetail(disc.Reason.Plain())
				}
				return errors.New("E145").WithDetail("Login as " + login + " failed").Wrap(err)
			}
			defer sess.Close()
			success(out, "logged in as %s (%s)", sess.Username, sess.UUID)
			info(out, "encrypted   %v", sess.Encrypted)
			info(out, "compression %s", sess.Compression)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Connection timeout; the whole command may take twice this")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status document as JSON")
	cmd.Flags().StringVar(&login, "login", "", "Also log in with this username")

	return cmd
}
