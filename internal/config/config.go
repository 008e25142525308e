package config

import (
	stderrors "errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/blockwire/internal/errors"
	"github.com/vango-dev/blockwire/pkg/protocol"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "blockwire.toml"

	// DefaultBind is the default game listener address.
	DefaultBind = "0.0.0.0:25565"

	// DefaultAdminAddr is the default admin HTTP listener address.
	DefaultAdminAddr = "127.0.0.1:8765"

	// DefaultMOTD is the default server list message.
	DefaultMOTD = "A blockwire server"

	// DefaultMaxPlayers is the player limit advertised in status responses.
	DefaultMaxPlayers = 500

	// DefaultCompressionThreshold enables compression for bodies of 256 bytes or more.
	DefaultCompressionThreshold = 256

	// DefaultCaptureDir is where capture files are written.
	DefaultCaptureDir = "captures"

	// DefaultCaptureMaxSize caps the size of an uploaded capture.
	DefaultCaptureMaxSize = 64 << 20
)

// Config represents the complete blockwire.toml configuration.
type Config struct {
	// Server configures the game listener.
	Server ServerConfig `toml:"server"`

	// Admin configures the HTTP admin listener.
	Admin AdminConfig `toml:"admin"`

	// Capture configures frame recording and upload.
	Capture CaptureConfig `toml:"capture"`

	// Log configures the process logger.
	Log LogConfig `toml:"log"`

	// configPath is the path the config was loaded from.
	configPath string
}

// ServerConfig configures the game listener.
type ServerConfig struct {
	// Bind is the host:port to listen on.
	Bind string `toml:"bind"`

	// MOTD is the description shown in the server list.
	MOTD string `toml:"motd"`

	// MaxPlayers is the advertised player limit.
	MaxPlayers int `toml:"max_players"`

	// CompressionThreshold is the body size at which compression starts.
	// -1 disables compression.
	CompressionThreshold int `toml:"compression_threshold"`

	// Encryption enables the RSA/AES login handshake.
	Encryption bool `toml:"encryption"`

	// StrictVersion rejects logins from clients on another protocol version.
	StrictVersion bool `toml:"strict_version"`

	// LoginTimeout bounds the whole handshake, as a Go duration string.
	LoginTimeout string `toml:"login_timeout"`

	// IdleTimeout closes connections that stay silent, as a Go duration string.
	IdleTimeout string `toml:"idle_timeout"`
}

// AdminConfig configures the HTTP admin listener.
type AdminConfig struct {
	// Enabled starts the admin listener.
	Enabled bool `toml:"enabled"`

	// Addr is the host:port to listen on.
	Addr string `toml:"addr"`
}

// CaptureConfig configures frame recording and upload.
type CaptureConfig struct {
	// Enabled records every connection to Dir.
	Enabled bool `toml:"enabled"`

	// Dir is the directory capture files are written to.
	Dir string `toml:"dir"`

	// MaxSize is the largest capture accepted by an upload, in bytes.
	MaxSize int64 `toml:"max_size"`

	// S3 is the optional upload destination.
	S3 S3Config `toml:"s3"`
}

// S3Config names the bucket captures are uploaded to.
type S3Config struct {
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is text or json.
	Format string `toml:"format"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:                 DefaultBind,
			MOTD:                 DefaultMOTD,
			MaxPlayers:           DefaultMaxPlayers,
			CompressionThreshold: DefaultCompressionThreshold,
			StrictVersion:        true,
			LoginTimeout:         "30s",
			IdleTimeout:          "2m",
		},
		Admin: AdminConfig{
			Enabled: true,
			Addr:    DefaultAdminAddr,
		},
		Capture: CaptureConfig{
			Dir:     DefaultCaptureDir,
			MaxSize: DefaultCaptureMaxSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads blockwire.toml from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path.
// Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Run 'blockwire config init' to write one with the defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		e := errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that the file is valid TOML")
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			e.WithLocation(path, perr.Position.Line, 0)
		}
		return nil, e
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New("E120").
			WithDetail("Unknown keys: " + strings.Join(keys, ", ")).
			WithSuggestion("Remove the keys or check their spelling")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path as TOML.
func (c *Config) SaveTo(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return errors.New("E120").Wrap(err)
	}
	if err := f.Close(); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// WriteDefault writes a default blockwire.toml into dir. It refuses to
// overwrite an existing file.
func WriteDefault(dir string) (string, error) {
	if Exists(dir) {
		return "", errors.New("E140").
			WithDetail(filepath.Join(dir, ConfigFileName) + " already exists").
			WithSuggestion("Edit the existing file or remove it first")
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := New().SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// Path returns the path the config was loaded from or saved to.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in values that must never be empty.
func (c *Config) applyDefaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = DefaultBind
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = DefaultAdminAddr
	}
	if c.Capture.Dir == "" {
		c.Capture.Dir = DefaultCaptureDir
	}
	if c.Capture.MaxSize == 0 {
		c.Capture.MaxSize = DefaultCaptureMaxSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	c.Log.Level = strings.ToLower(c.Log.Level)

	// Resolve the capture dir relative to the config file.
	if c.configPath != "" && !filepath.IsAbs(c.Capture.Dir) {
		c.Capture.Dir = filepath.Join(filepath.Dir(c.configPath), c.Capture.Dir)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validateAddr(c.Server.Bind); err != nil {
		return errors.New("E122").
			WithDetail("server.bind: " + err.Error()).
			WithExample(`bind = "` + DefaultBind + `"`)
	}
	if c.Admin.Enabled {
		if err := validateAddr(c.Admin.Addr); err != nil {
			return errors.New("E122").
				WithDetail("admin.addr: " + err.Error()).
				WithExample(`addr = "` + DefaultAdminAddr + `"`)
		}
	}
	if t := c.Server.CompressionThreshold; t < -1 || t > protocol.MaxPacketSize {
		return errors.New("E123").
			WithDetail("server.compression_threshold is " + strconv.Itoa(t)).
			WithSuggestion("Use -1 to disable compression")
	}
	if c.Server.MaxPlayers < 0 {
		return errors.New("E121").WithDetail("server.max_players must not be negative")
	}
	for key, v := range map[string]string{
		"server.login_timeout": c.Server.LoginTimeout,
		"server.idle_timeout":  c.Server.IdleTimeout,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return errors.New("E121").
				WithDetail(key + ": " + strconv.Quote(v) + " is not a duration").
				WithExample(`login_timeout = "30s"`)
		}
	}
	if c.Capture.MaxSize < 0 {
		return errors.New("E124").WithDetail("capture.max_size must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E125").WithDetail("log.level is " + strconv.Quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E121").WithDetail("log.format must be text or json")
	}
	return nil
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return stderrors.New("port " + strconv.Quote(port) + " out of range")
	}
	return nil
}

// Compression returns the configured threshold as a codec setting.
func (c *Config) Compression() protocol.CompressionThreshold {
	if c.Server.CompressionThreshold < 0 {
		return protocol.CompressionDisabled
	}
	return protocol.CompressionThreshold(c.Server.CompressionThreshold)
}

// LoginTimeout returns the handshake deadline, or zero for none.
func (c *Config) LoginTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.LoginTimeout)
	return d
}

// IdleTimeout returns the idle read deadline, or zero for none.
func (c *Config) IdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.IdleTimeout)
	return d
}

// S3Enabled reports whether captures should be uploaded to S3.
func (c *Config) S3Enabled() bool {
	return c.Capture.S3.Bucket != ""
}

// Exists checks if blockwire.toml exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindConfig walks up from startDir until it finds a blockwire.toml.
func FindConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return filepath.Join(dir, ConfigFileName), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'blockwire config init' to create one")
		}
		dir = parent
	}
}
