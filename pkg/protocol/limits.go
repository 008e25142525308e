package protocol

import "strconv"

// Protocol identification.
const (
	// ProtocolVersion is the protocol number sent in the handshake.
	ProtocolVersion = 765

	// GameVersion is the release the protocol version belongs to.
	GameVersion = "1.20.4"
)

// Size limits to prevent memory exhaustion via malicious length prefixes.
const (
	// MaxPacketSize is the maximum length of a single frame, excluding its
	// length prefix. It also bounds the uncompressed data length.
	MaxPacketSize = 2097152

	// MaxCautiousCapacity caps up-front allocations driven by a declared
	// length (1 MiB). Larger payloads grow as bytes actually arrive.
	MaxCautiousCapacity = 1 << 20

	// MaxStringLen is the default bound, in UTF-16 code units, for strings
	// whose schema does not declare one.
	MaxStringLen = 32767

	// maxUTF8PerUnit is the largest number of UTF-8 bytes a single UTF-16
	// code unit can expand to.
	maxUTF8PerUnit = 3
)

// CautiousCapacity returns the number of elements worth preallocating for
// a declared count, never exceeding MaxCautiousCapacity bytes in total.
func CautiousCapacity(declared, elemSize int) int {
	if declared <= 0 {
		return 0
	}
	if elemSize <= 0 {
		elemSize = 1
	}
	limit := MaxCautiousCapacity / elemSize
	if declared < limit {
		return declared
	}
	return limit
}

// CompressionThreshold is the minimum uncompressed length at which packet
// data is compressed. Negative values disable compression.
type CompressionThreshold int32

// CompressionDisabled is the threshold of a connection without compression.
const CompressionDisabled CompressionThreshold = -1

// Enabled reports whether compression is active.
func (t CompressionThreshold) Enabled() bool {
	return t >= 0
}

// String returns the threshold in bytes, or "disabled".
func (t CompressionThreshold) String() string {
	if !t.Enabled() {
		return "disabled"
	}
	return strconv.Itoa(int(t))
}
