// Command blockwire runs and probes protocol 765 servers.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/blockwire/internal/config"
	"github.com/vango-dev/blockwire/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐ ┬  ┌─┐┌─┐┬┌─┬ ┬┬┬─┐┌─┐
  ├┴┐│  │ ││  ├┴┐││││├┬┘├┤
  └─┘┴─┘└─┘└─┘┴ ┴└┴┘┴┴└─└─┘
`

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "blockwire",
		Short: "Minecraft 1.20.4 protocol server and tools",
		Long: `blockwire speaks the Minecraft Java Edition protocol 765 (1.20.4).

It answers server list pings and logs players in, and it includes the
client side of both exchanges plus tools for captured traffic:

  • serve:   status and login server with an admin HTTP endpoint
  • ping:    query a server's status and latency
  • decode:  print frames from hex or a capture file
  • capture: upload capture files to disk or S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd, &flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to blockwire.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text or json (default from config)")

	rootCmd.AddCommand(
		serveCmd(&flags),
		pingCmd(),
		decodeCmd(),
		captureCmd(&flags),
		configCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Print(os.Stderr, err, errors.StyleFor(flags.logFormat, os.Stderr))
		os.Exit(1)
	}
}

// loadConfig loads the file named by --config, or the nearest
// blockwire.toml, or the defaults when there is none.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadFile(flags.configPath)
	}
	path, err := config.FindConfig(".")
	if err != nil {
		return config.New(), nil
	}
	return config.LoadFile(path)
}

// setupLogging installs the default slog logger. Flags win over the config
// file; a broken config file is reported by the command that loads it.
func setupLogging(cmd *cobra.Command, flags *globalFlags) error {
	level, format := "info", "text"
	if cfg, err := loadConfig(flags); err == nil {
		level, format = cfg.Log.Level, cfg.Log.Format
	}
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if flags.logFormat != "" {
		format = flags.logFormat
	}

	logger, err := newLogger(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	// Errors printed on exit follow the effective log format.
	flags.logFormat = format
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.New("E125").WithDetail("--log-level is " + level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.New("E121").WithDetail("--log-format must be text or json")
	}
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
