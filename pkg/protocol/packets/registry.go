package packets

import "github.com/vango-dev/blockwire/pkg/protocol"

// Registry holds every packet declared in this package.
var Registry = protocol.NewRegistry()
