package protocol

import (
	"errors"
	"fmt"
)

// Codec errors. Callers match them with errors.Is; most are returned
// wrapped with the packet or field being processed.
var (
	// ErrIncompleteInput signals that more bytes are needed. It never
	// escapes PacketDecoder.TryNextFrame.
	ErrIncompleteInput = errors.New("protocol: incomplete input")

	ErrMalformedVarInt          = errors.New("protocol: varint too large")
	ErrLengthOutOfBounds        = errors.New("protocol: length out of bounds")
	ErrCompressionInvariant     = errors.New("protocol: compression invariant violated")
	ErrTruncatedField           = errors.New("protocol: truncated field")
	ErrTrailingBytes            = errors.New("protocol: trailing bytes after packet")
	ErrIDMismatch               = errors.New("protocol: packet id mismatch")
	ErrBoundsExceeded           = errors.New("protocol: bounds exceeded")
	ErrOversizedPacket          = errors.New("protocol: packet exceeds maximum size")
	ErrEncryptionAlreadyEnabled = errors.New("protocol: encryption already enabled")

	ErrInvalidBool         = errors.New("protocol: invalid boolean value")
	ErrInvalidDiscriminant = errors.New("protocol: invalid enum discriminant")
	ErrInvalidUTF8         = errors.New("protocol: invalid utf-8 string")
	ErrInvalidIdent        = errors.New("protocol: invalid identifier")
	ErrNegativeLength      = errors.New("protocol: negative length")
	ErrUnknownPacket       = errors.New("protocol: unknown packet")
)

// ErrorKind classifies codec errors for logs and metric labels.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindIncompleteInput
	KindMalformedVarInt
	KindLengthOutOfBounds
	KindCompressionInvariant
	KindTruncatedField
	KindTrailingBytes
	KindIDMismatch
	KindBoundsExceeded
	KindOversizedPacket
	KindEncryptionAlreadyEnabled
	KindInvalidValue
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIncompleteInput:
		return "IncompleteInput"
	case KindMalformedVarInt:
		return "MalformedVarInt"
	case KindLengthOutOfBounds:
		return "LengthOutOfBounds"
	case KindCompressionInvariant:
		return "CompressionInvariantViolation"
	case KindTruncatedField:
		return "TruncatedField"
	case KindTrailingBytes:
		return "TrailingBytes"
	case KindIDMismatch:
		return "IdMismatch"
	case KindBoundsExceeded:
		return "BoundsExceeded"
	case KindOversizedPacket:
		return "OversizedPacket"
	case KindEncryptionAlreadyEnabled:
		return "EncryptionAlreadyEnabled"
	case KindInvalidValue:
		return "InvalidValue"
	default:
		return "Unknown"
	}
}

var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrIncompleteInput, KindIncompleteInput},
	{ErrMalformedVarInt, KindMalformedVarInt},
	{ErrLengthOutOfBounds, KindLengthOutOfBounds},
	{ErrCompressionInvariant, KindCompressionInvariant},
	{ErrTruncatedField, KindTruncatedField},
	{ErrTrailingBytes, KindTrailingBytes},
	{ErrIDMismatch, KindIDMismatch},
	{ErrBoundsExceeded, KindBoundsExceeded},
	{ErrOversizedPacket, KindOversizedPacket},
	{ErrEncryptionAlreadyEnabled, KindEncryptionAlreadyEnabled},
	{ErrInvalidBool, KindInvalidValue},
	{ErrInvalidDiscriminant, KindInvalidValue},
	{ErrInvalidUTF8, KindInvalidValue},
	{ErrInvalidIdent, KindInvalidValue},
	{ErrNegativeLength, KindLengthOutOfBounds},
}

// KindOf returns the kind of the first codec error found in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}

// FieldError reports a failure to encode or decode one field of a type.
type FieldError struct {
	Type  string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("protocol: %s.%s: %v", e.Type, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError wraps err with the type and field name.
// Generated codecs call it on every field failure.
func NewFieldError(typ, field string, err error) error {
	return &FieldError{Type: typ, Field: field, Err: err}
}
