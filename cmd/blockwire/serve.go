package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blockwire/internal/config"
	"github.com/vango-dev/blockwire/internal/errors"
	"github.com/vango-dev/blockwire/pkg/conn"
	"github.com/vango-dev/blockwire/pkg/protocol"
	"github.com/vango-dev/blockwire/pkg/server"
	"github.com/vango-dev/blockwire/pkg/telemetry"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		bind        string
		admin       string
		captureDir  string
		encryption  bool
		compression int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status and login server",
		Long: `Run a server that answers server list pings and logs players in.

Settings come from blockwire.toml; flags override them. Logged-in players
are held in the configuration state until they disconnect.

Examples:
  blockwire serve
  blockwire serve --bind 127.0.0.1:25570 --encryption
  blockwire serve --capture ./captures --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind = bind
			}
			if cmd.Flags().Changed("admin") {
				cfg.Admin.Addr = admin
				cfg.Admin.Enabled = admin != ""
			}
			if cmd.Flags().Changed("capture") {
				cfg.Capture.Dir = captureDir
				cfg.Capture.Enabled = captureDir != ""
			}
			if cmd.Flags().Changed("encryption") {
				cfg.Server.Encryption = encryption
			}
			if cmd.Flags().Changed("compression") {
				cfg.Server.CompressionThreshold = compression
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&bind, "bind", "b", "", "Game listener address (default from config)")
	cmd.Flags().StringVar(&admin, "admin", "", "Admin HTTP address, empty to disable (default from config)")
	cmd.Flags().StringVar(&captureDir, "capture", "", "Record every connection into this directory")
	cmd.Flags().BoolVar(&encryption, "encryption", false, "Enable the encryption handshake")
	cmd.Flags().IntVar(&compression, "compression", 0, "Compression threshold, -1 to disable (default from config)")

	return cmd
}

// serverConfig maps the file configuration onto the server's settings.
func serverConfig(cfg *config.Config) *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = cfg.Server.Bind
	sc.MOTD = cfg.Server.MOTD
	sc.MaxPlayers = cfg.Server.MaxPlayers
	sc.CompressionThreshold = cfg.Compression()
	sc.Encryption = cfg.Server.Encryption
	sc.StrictVersion = cfg.Server.StrictVersion
	sc.LoginTimeout = cfg.LoginTimeout()
	if cfg.Admin.Enabled {
		sc.AdminAddress = cfg.Admin.Addr
	}
	if cfg.Capture.Enabled {
		sc.CaptureDir = cfg.Capture.Dir
	}
	return sc
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(telemetry.NewMetrics()),
		server.WithTracer(telemetry.NewTracer()),
	}
	if cfg.Capture.Enabled {
		sink, err := sinkFor(ctx, cfg)
		if err != nil {
			return err
		}
		if sink != nil {
			opts = append(opts, server.WithCaptureSink(sink))
		}
	}

	srv, err := server.New(serverConfig(cfg), opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBanner(out)
	info(out, "protocol %d (%s)", protocol.ProtocolVersion, protocol.GameVersion)
	info(out, "game   %s", cfg.Server.Bind)
	if cfg.Admin.Enabled {
		info(out, "admin  http://%s", cfg.Admin.Addr)
	}
	if cfg.Capture.Enabled {
		info(out, "capture %s", cfg.Capture.Dir)
	}
	if !cfg.Server.Encryption {
		warn(out, "encryption disabled")
	}

	go holdClients(ctx, srv, cfg)
	if err := srv.ListenAndServe(ctx); err != nil {
		return errors.FromError(err, "E146")
	}
	return nil
}

// holdClients keeps logged-in players connected, logging what they send,
// until they leave or ctx ends.
func holdClients(ctx context.Context, srv *server.Server, cfg *config.Config) {
	for {
		select {
		case cl := <-srv.Clients():
			go holdClient(ctx, cl, cfg.IdleTimeout())
		case <-ctx.Done():
			return
		}
	}
}

func holdClient(ctx context.Context, cl *server.Client, idle time.Duration) {
	defer cl.Close()
	logger := cl.Conn.Logger().With("username", cl.Username)

	packets := make(chan conn.ReceivedPacket, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- cl.Conn.Receive(ctx, packets)
	}()

	var timeout <-chan time.Time
	var timer *time.Timer
	if idle > 0 {
		timer = time.NewTimer(idle)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case p := <-packets:
			logger.Debug("packet", "state", p.State, "id", p.ID, "size", len(p.Body))
			if timer != nil {
				timer.Reset(idle)
			}
		case <-timeout:
			logger.Info("player idle, closing", "after", idle)
			return
		case err := <-errCh:
			logger.Info("player left", "reason", err)
			return
		}
	}
}
