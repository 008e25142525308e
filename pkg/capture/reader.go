package capture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vango-dev/blockwire/pkg/protocol"
)

// maxHeaderLen bounds the entry header: VarLong, u8 and three VarInts.
const maxHeaderLen = protocol.MaxVarLongLen + 1 + 3*protocol.MaxVarIntLen

// Reader iterates over the entries of a capture stream.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewReader checks the capture header of r and returns a Reader.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != Magic {
		return nil, ErrBadMagic
	}
	return &Reader{r: br}, nil
}

// Open opens the capture file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// Next returns the next entry, or io.EOF after the last one.
func (r *Reader) Next() (*Entry, error) {
	head, err := r.r.Peek(maxHeaderLen)
	if len(head) == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	d := protocol.NewDecoder(head)
	nanos, err := d.ReadVarLong()
	if err != nil {
		return nil, r.headerErr(err)
	}
	dir, err := d.ReadUint8()
	if err != nil {
		return nil, r.headerErr(err)
	}
	state, err := d.ReadVarInt()
	if err != nil {
		return nil, r.headerErr(err)
	}
	id, err := d.ReadVarInt()
	if err != nil {
		return nil, r.headerErr(err)
	}
	n, err := d.ReadVarInt()
	if err != nil {
		return nil, r.headerErr(err)
	}
	if n < 0 || n > protocol.MaxPacketSize {
		return nil, fmt.Errorf("%w: body length %d", protocol.ErrLengthOutOfBounds, n)
	}
	if _, err := r.r.Discard(d.Position()); err != nil {
		return nil, err
	}

	// The length comes from the file; grow with the bytes actually read.
	body := bytes.NewBuffer(make([]byte, 0, protocol.CautiousCapacity(int(n), 1)))
	read, err := body.ReadFrom(io.LimitReader(r.r, int64(n)))
	if err != nil {
		return nil, err
	}
	if read != int64(n) {
		return nil, ErrTruncated
	}
	return &Entry{
		Time:      time.Unix(0, nanos),
		Direction: Direction(dir),
		State:     protocol.State(state),
		ID:        id,
		Body:      body.Bytes(),
	}, nil
}

func (r *Reader) headerErr(err error) error {
	if errors.Is(err, protocol.ErrTruncatedField) {
		return ErrTruncated
	}
	return err
}

// All reads the remaining entries.
func (r *Reader) All() ([]*Entry, error) {
	var entries []*Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}

// Close closes the file opened by Open.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
