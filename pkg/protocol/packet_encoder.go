package protocol

import (
	"bytes"
	"compress/zlib"
	"crypto/cipher"
	"fmt"
	"log/slog"
)

// CompressionLevel is the zlib level used for compressed frames.
const CompressionLevel = 4

// PacketEncoder accumulates framed packets ready to be written to the
// transport.
//
// A PacketEncoder is not safe for concurrent use; each connection owns one
// and drives it from a single send path.
type PacketEncoder struct {
	buf       []byte
	body      Encoder
	scratch   bytes.Buffer
	zw        *zlib.Writer
	threshold CompressionThreshold
	cipher    cipher.Stream
}

// NewPacketEncoder creates an encoder with compression and encryption off.
func NewPacketEncoder() *PacketEncoder {
	return &PacketEncoder{threshold: CompressionDisabled}
}

// Compression returns the current compression threshold.
func (e *PacketEncoder) Compression() CompressionThreshold {
	return e.threshold
}

// SetCompression sets the compression threshold. Negative disables it.
func (e *PacketEncoder) SetCompression(t CompressionThreshold) {
	e.threshold = t
}

// EnableEncryption encrypts everything handed out by Take from now on,
// including bytes buffered before the call.
func (e *PacketEncoder) EnableEncryption(key [KeySize]byte) error {
	if e.cipher != nil {
		return ErrEncryptionAlreadyEnabled
	}
	stream, err := NewCFB8Encrypter(key)
	if err != nil {
		return err
	}
	e.cipher = stream
	return nil
}

// EncryptionEnabled reports whether EnableEncryption has been called.
func (e *PacketEncoder) EncryptionEnabled() bool {
	return e.cipher != nil
}

// Len returns the number of buffered bytes.
func (e *PacketEncoder) Len() int {
	return len(e.buf)
}

// AppendPacket frames p after everything already buffered.
// On error the buffer is left as it was.
func (e *PacketEncoder) AppendPacket(p Packet) error {
	start := len(e.buf)
	if err := e.appendFrame(p); err != nil {
		e.buf = e.buf[:start]
		return err
	}
	return nil
}

// PrependPacket frames p ahead of everything already buffered. Previously
// buffered bytes keep their order.
func (e *PacketEncoder) PrependPacket(p Packet) error {
	start := len(e.buf)
	if err := e.appendFrame(p); err != nil {
		e.buf = e.buf[:start]
		return err
	}
	end := len(e.buf)
	n := end - start

	// Grow by n, shift everything forward by n, then move the new frame
	// (now at the tail) into the vacated prefix.
	e.buf = append(e.buf, make([]byte, n)...)
	copy(e.buf[n:], e.buf[:end])
	copy(e.buf[:n], e.buf[start+n:end+n])
	e.buf = e.buf[:end]
	return nil
}

// AppendBytes appends already framed bytes.
func (e *PacketEncoder) AppendBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// Take returns everything buffered, encrypted if encryption is enabled,
// and leaves the encoder empty. The caller owns the returned slice.
func (e *PacketEncoder) Take() []byte {
	out := e.buf
	e.buf = nil
	if e.cipher != nil {
		e.cipher.XORKeyStream(out, out)
	}
	return out
}

func (e *PacketEncoder) appendFrame(p Packet) error {
	e.body.Reset()
	if err := EncodeWithID(&e.body, p); err != nil {
		return fmt.Errorf("encoding %s: %w", p.Descriptor().Name, err)
	}
	data := e.body.Bytes()
	dataLen := len(data)

	if !e.threshold.Enabled() {
		if dataLen > MaxPacketSize {
			return oversized(p, dataLen)
		}
		e.buf = AppendVarInt(e.buf, int32(dataLen))
		e.buf = append(e.buf, data...)
		return nil
	}

	if dataLen > int(e.threshold) {
		compressed, err := e.deflate(data)
		if err != nil {
			return err
		}
		packetLen := VarInt(dataLen).Len() + len(compressed)
		if packetLen > MaxPacketSize {
			return oversized(p, packetLen)
		}
		e.buf = AppendVarInt(e.buf, int32(packetLen))
		e.buf = AppendVarInt(e.buf, int32(dataLen))
		e.buf = append(e.buf, compressed...)
		return nil
	}

	// Below the threshold: a zero data length marks the body as raw.
	packetLen := 1 + dataLen
	if packetLen > MaxPacketSize {
		return oversized(p, packetLen)
	}
	e.buf = AppendVarInt(e.buf, int32(packetLen))
	e.buf = append(e.buf, 0)
	e.buf = append(e.buf, data...)
	return nil
}

func (e *PacketEncoder) deflate(data []byte) ([]byte, error) {
	e.scratch.Reset()
	if e.zw == nil {
		zw, err := zlib.NewWriterLevel(&e.scratch, CompressionLevel)
		if err != nil {
			return nil, err
		}
		e.zw = zw
	} else {
		e.zw.Reset(&e.scratch)
	}
	if _, err := e.zw.Write(data); err != nil {
		return nil, err
	}
	if err := e.zw.Close(); err != nil {
		return nil, err
	}
	return e.scratch.Bytes(), nil
}

func oversized(p Packet, n int) error {
	return fmt.Errorf("%w: %s is %d bytes", ErrOversizedPacket, p.Descriptor().Name, n)
}

// PacketWriter is implemented by anything that can queue packets for a
// connection.
type PacketWriter interface {
	// WritePacketFallible encodes and queues p.
	WritePacketFallible(p Packet) error
	// WritePacketBytes queues bytes that are already framed.
	WritePacketBytes(b []byte)
}

// WritePacket queues p and logs, rather than returns, any encoding error.
// Use it where a failed packet should not abort the caller.
func WritePacket(w PacketWriter, p Packet) {
	if err := w.WritePacketFallible(p); err != nil {
		slog.Default().With("component", "protocol").Warn("failed to write packet",
			"packet", p.Descriptor().Name,
			"error", err,
		)
	}
}

// WritePacketFallible implements PacketWriter.
func (e *PacketEncoder) WritePacketFallible(p Packet) error {
	return e.AppendPacket(p)
}

// WritePacketBytes implements PacketWriter.
func (e *PacketEncoder) WritePacketBytes(b []byte) {
	e.AppendBytes(b)
}
