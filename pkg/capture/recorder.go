package capture

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vango-dev/blockwire/pkg/protocol"
)

// Recorder appends entries to a capture stream. It is safe for concurrent
// use, so the read and write paths of a connection can share one.
type Recorder struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	enc     *protocol.Encoder
	entries int
	err     error
	now     func() time.Time
}

// NewRecorder writes the capture header to w and returns a Recorder.
func NewRecorder(w io.Writer) (*Recorder, error) {
	r := &Recorder{
		w:   bufio.NewWriter(w),
		enc: protocol.NewEncoder(),
		now: time.Now,
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	if _, err := r.w.WriteString(Magic); err != nil {
		return nil, err
	}
	return r, nil
}

// Create creates a capture file at path, making parent directories as
// needed. Closing the Recorder closes the file.
func Create(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r, err := NewRecorder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Record appends one frame. After the first write error every call returns
// that error.
func (r *Recorder) Record(dir Direction, state protocol.State, f *protocol.RawFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}

	entry := Entry{Time: r.now(), Direction: dir, State: state, ID: f.ID, Body: f.Body}
	r.enc.Reset()
	entry.encode(r.enc)
	if _, err := r.w.Write(r.enc.Bytes()); err != nil {
		r.err = err
		return err
	}
	r.entries++
	return nil
}

// Entries returns the number of entries recorded.
func (r *Recorder) Entries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries
}

// Flush writes buffered entries to the underlying writer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.err = r.w.Flush()
	return r.err
}

// Close flushes the stream and closes the underlying writer if it is an
// io.Closer.
func (r *Recorder) Close() error {
	err := r.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
