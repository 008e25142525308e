package protocol

import (
	"bytes"
	"compress/zlib"
	"crypto/cipher"
	"fmt"
	"io"
)

// PacketDecoder reassembles frames from a byte stream delivered in chunks
// of arbitrary size.
//
// A PacketDecoder is not safe for concurrent use; each connection owns one
// and feeds it from a single receive path.
type PacketDecoder struct {
	buf       []byte
	off       int // start of unconsumed bytes in buf
	scratch   bytes.Buffer
	zr        io.ReadCloser
	src       bytes.Reader
	threshold CompressionThreshold
	cipher    cipher.Stream
}

// NewPacketDecoder creates a decoder with compression and encryption off.
func NewPacketDecoder() *PacketDecoder {
	return &PacketDecoder{threshold: CompressionDisabled}
}

// Queue appends bytes read from the transport. When encryption is enabled
// the new bytes are decrypted in place.
func (d *PacketDecoder) Queue(p []byte) {
	if d.off > 0 && cap(d.buf)-len(d.buf) < len(p) {
		d.compact()
	}
	start := len(d.buf)
	d.buf = append(d.buf, p...)
	if d.cipher != nil {
		d.cipher.XORKeyStream(d.buf[start:], d.buf[start:])
	}
}

// Reserve grows the internal buffer to fit at least n more bytes.
func (d *PacketDecoder) Reserve(n int) {
	d.compact()
	if cap(d.buf)-len(d.buf) < n {
		grown := make([]byte, len(d.buf), len(d.buf)+n)
		copy(grown, d.buf)
		d.buf = grown
	}
}

// Buffered returns the number of queued bytes not yet consumed.
func (d *PacketDecoder) Buffered() int {
	return len(d.buf) - d.off
}

// Compression returns the current compression threshold.
func (d *PacketDecoder) Compression() CompressionThreshold {
	return d.threshold
}

// SetCompression sets the compression threshold. Negative disables it.
func (d *PacketDecoder) SetCompression(t CompressionThreshold) {
	d.threshold = t
}

// EnableEncryption starts decrypting the stream with key. Bytes already
// queued but not yet consumed are decrypted immediately, since the peer
// encrypted everything it sent after the key exchange.
func (d *PacketDecoder) EnableEncryption(key [KeySize]byte) error {
	if d.cipher != nil {
		return ErrEncryptionAlreadyEnabled
	}
	stream, err := NewCFB8Decrypter(key)
	if err != nil {
		return err
	}
	d.cipher = stream
	pending := d.buf[d.off:]
	d.cipher.XORKeyStream(pending, pending)
	return nil
}

// EncryptionEnabled reports whether EnableEncryption has been called.
func (d *PacketDecoder) EncryptionEnabled() bool {
	return d.cipher != nil
}

// TryNextFrame extracts the next complete frame.
// It returns (nil, nil) when more bytes are needed; in that case nothing is
// consumed. Callers should loop until it reports no frame before reading
// more from the transport. Any error leaves the stream unusable.
func (d *PacketDecoder) TryNextFrame() (*RawFrame, error) {
	pending := d.buf[d.off:]
	packetLen, n, err := DecodeVarIntPartial(pending)
	if err == ErrIncompleteInput {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("packet length: %w", err)
	}
	if packetLen < 0 || packetLen > MaxPacketSize {
		return nil, fmt.Errorf("%w: packet length %d", ErrLengthOutOfBounds, packetLen)
	}
	if len(pending)-n < int(packetLen) {
		return nil, nil
	}

	data := pending[n : n+int(packetLen)]
	frame, err := d.decodePayload(data)

	// The frame bytes are consumed even on error; the stream is wedged.
	d.consume(n + int(packetLen))
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (d *PacketDecoder) decodePayload(data []byte) (*RawFrame, error) {
	if d.threshold.Enabled() {
		dataLen, n, err := DecodeVarInt(data)
		if err != nil {
			return nil, fmt.Errorf("data length: %w", err)
		}
		if dataLen < 0 || dataLen >= MaxPacketSize {
			return nil, fmt.Errorf("%w: data length %d", ErrLengthOutOfBounds, dataLen)
		}
		data = data[n:]

		if dataLen > 0 {
			if dataLen <= int32(d.threshold) {
				return nil, fmt.Errorf("%w: compressed %d bytes at or below threshold %d",
					ErrCompressionInvariant, dataLen, d.threshold)
			}
			inflated, err := d.inflate(data, int(dataLen))
			if err != nil {
				return nil, err
			}
			data = inflated
		} else if len(data) > int(d.threshold) {
			return nil, fmt.Errorf("%w: uncompressed %d bytes above threshold %d",
				ErrCompressionInvariant, len(data), d.threshold)
		}
	}

	id, n, err := DecodeVarInt(data)
	if err != nil {
		return nil, fmt.Errorf("packet id: %w", err)
	}
	body := make([]byte, len(data)-n)
	copy(body, data[n:])
	return &RawFrame{ID: id, Body: body}, nil
}

// inflate decompresses data into the scratch buffer. The output must be
// exactly dataLen bytes and the compressed input must be fully consumed.
// The scratch buffer grows with the inflated output rather than being
// sized from the declared length.
func (d *PacketDecoder) inflate(data []byte, dataLen int) ([]byte, error) {
	d.src.Reset(data)
	if d.zr == nil {
		zr, err := zlib.NewReader(&d.src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCompressionInvariant, err)
		}
		d.zr = zr
	} else if err := d.zr.(zlib.Resetter).Reset(&d.src, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionInvariant, err)
	}

	d.scratch.Reset()
	// Read one byte past the declared length to detect oversized output.
	n, err := d.scratch.ReadFrom(io.LimitReader(d.zr, int64(dataLen)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionInvariant, err)
	}
	if n != int64(dataLen) {
		return nil, fmt.Errorf("%w: inflated %d bytes, declared %d", ErrCompressionInvariant, n, dataLen)
	}
	if d.src.Len() != 0 {
		return nil, fmt.Errorf("%w: %d compressed bytes left over", ErrCompressionInvariant, d.src.Len())
	}
	return d.scratch.Bytes(), nil
}

// consume advances past n bytes. The unconsumed tail is moved to the front
// only once the consumed prefix passes half the buffer, so a chunk holding
// many small frames is not copied once per frame.
func (d *PacketDecoder) consume(n int) {
	d.off += n
	if d.off == len(d.buf) {
		d.buf = d.buf[:0]
		d.off = 0
		return
	}
	if d.off > cap(d.buf)/2 {
		d.compact()
	}
}

// compact moves the unconsumed bytes to the start of buf.
func (d *PacketDecoder) compact() {
	if d.off == 0 {
		return
	}
	rest := copy(d.buf, d.buf[d.off:])
	d.buf = d.buf[:rest]
	d.off = 0
}
