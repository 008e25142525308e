// Package config loads and validates blockwire.toml.
//
// A complete file with the default values looks like:
//
//	[server]
//	bind = "0.0.0.0:25565"
//	motd = "A blockwire server"
//	max_players = 500
//	compression_threshold = 256   # -1 disables compression
//	encryption = false
//	strict_version = true
//	login_timeout = "30s"
//	idle_timeout = "2m"
//
//	[admin]
//	enabled = true
//	addr = "127.0.0.1:8765"
//
//	[capture]
//	enabled = false
//	dir = "captures"
//	max_size = 67108864
//
//	[capture.s3]
//	bucket = ""
//	prefix = ""
//	region = ""
//	endpoint = ""
//
//	[log]
//	level = "info"
//	format = "text"
//
// Keys left out of the file keep their defaults; unknown keys are an error.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.Print(os.Stderr, err, errors.StylePretty)
//	    os.Exit(1)
//	}
//	fmt.Println(cfg.Server.Bind)
package config
