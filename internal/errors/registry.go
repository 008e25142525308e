package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryProtocol,
		Message:  "Protocol version mismatch",
		Detail:   "The peer speaks a different protocol version than 765 (Minecraft 1.20.4).",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Login rejected",
		Detail:   "The server answered the login with a disconnect.",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Encryption handshake failed",
		Detail:   "The shared secret or verify token could not be exchanged.",
	},
	"E063": {
		Category: CategoryProtocol,
		Message:  "Unexpected packet",
		Detail:   "The peer sent a packet that is not valid at this point of the exchange.",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid blockwire.toml",
		Detail:   "The blockwire.toml configuration file is malformed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing required configuration",
		Detail:   "A required configuration value is not set.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid address",
		Detail:   "The configured listen address must have the form host:port with a port between 1 and 65535.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid compression threshold",
		Detail:   "The compression threshold must be -1 (disabled) or a size between 0 and the maximum packet size.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Invalid capture settings",
		Detail:   "Capture needs a directory, and uploads need a positive size limit.",
	},
	"E125": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Configuration file already exists",
		Detail:   "A blockwire.toml already exists in this directory.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Configuration file not found",
		Detail:   "No blockwire.toml was found at the given path.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Invalid frame input",
		Detail:   "Frames must be given as hexadecimal bytes, with or without spaces.",
	},
	"E143": {
		Category: CategoryCapture,
		Message:  "Unreadable capture file",
		Detail:   "The file is not a blockwire capture or is truncated.",
	},
	"E144": {
		Category: CategoryCapture,
		Message:  "Capture upload failed",
		Detail:   "The capture could not be stored in the configured sink.",
	},
	"E145": {
		Category: CategoryCLI,
		Message:  "Server unreachable",
		Detail:   "The connection to the server could not be established.",
	},
	"E146": {
		Category: CategoryCLI,
		Message:  "Server stopped",
		Detail:   "A listener failed to start or the accept loop ended with an error.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
