package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/blockwire/pkg/protocol"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordAndRead(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	if err != nil {
		t.Fatal(err)
	}
	at := time.Unix(1700000000, 123456789)
	rec.now = fixedClock(at)

	frames := []struct {
		dir   Direction
		state protocol.State
		frame *protocol.RawFrame
	}{
		{Inbound, protocol.StateHandshaking, &protocol.RawFrame{ID: 0, Body: []byte{0xFD, 0x05}}},
		{Inbound, protocol.StateStatus, &protocol.RawFrame{ID: 0}},
		{Outbound, protocol.StateStatus, &protocol.RawFrame{ID: 0, Body: bytes.Repeat([]byte{'j'}, 300)}},
	}
	for _, f := range frames {
		if err := rec.Record(f.dir, f.state, f.frame); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if rec.Entries() != 3 {
		t.Errorf("Entries = %d", rec.Entries())
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), Magic) {
		t.Fatal("missing magic")
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(frames) {
		t.Fatalf("got %d entries, want %d", len(entries), len(frames))
	}
	for i, e := range entries {
		want := frames[i]
		if !e.Time.Equal(at) {
			t.Errorf("entry %d time = %v", i, e.Time)
		}
		if e.Direction != want.dir || e.State != want.state || e.ID != want.frame.ID {
			t.Errorf("entry %d = %v/%v/%d", i, e.Direction, e.State, e.ID)
		}
		if !bytes.Equal(e.Body, want.frame.Body) {
			t.Errorf("entry %d body differs", i)
		}
	}
}

func TestReaderBadMagic(t *testing.T) {
	for _, in := range []string{"", "BWCAP", "NOTCAP1"} {
		if _, err := NewReader(strings.NewReader(in)); !errors.Is(err, ErrBadMagic) {
			t.Errorf("NewReader(%q) err = %v", in, err)
		}
	}
}

func TestReaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	rec, _ := NewRecorder(&buf)
	rec.Record(Outbound, protocol.StateLogin, &protocol.RawFrame{ID: 2, Body: []byte("hello world")})
	rec.Close()
	full := buf.Bytes()

	tests := []struct {
		name string
		cut  int
	}{
		{"in header", len(Magic) + 3},
		{"in body", len(full) - 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(full[:tt.cut]))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := r.Next(); !errors.Is(err, ErrTruncated) {
				t.Errorf("err = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestReaderOversizedBody(t *testing.T) {
	e := protocol.NewEncoder()
	e.WriteBytes([]byte(Magic))
	e.WriteVarLong(0)
	e.WriteUint8(0)
	e.WriteVarInt(0)
	e.WriteVarInt(0)
	e.WriteVarInt(protocol.MaxPacketSize + 1)

	r, err := NewReader(bytes.NewReader(e.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); !errors.Is(err, protocol.ErrLengthOutOfBounds) {
		t.Errorf("err = %v, want ErrLengthOutOfBounds", err)
	}
}

func TestReaderShortBodyAllocation(t *testing.T) {
	e := protocol.NewEncoder()
	e.WriteBytes([]byte(Magic))
	e.WriteVarLong(0)
	e.WriteUint8(0)
	e.WriteVarInt(0)
	e.WriteVarInt(0)
	e.WriteVarInt(protocol.MaxPacketSize)
	e.WriteBytes([]byte("only a few bytes"))

	r, err := NewReader(bytes.NewReader(e.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = r.Next()
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
	if alloc := after.TotalAlloc - before.TotalAlloc; alloc >= protocol.MaxPacketSize {
		t.Errorf("allocated %d bytes for a %d byte body declared as %d", alloc, 16, protocol.MaxPacketSize)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var buf bytes.Buffer
	rec, _ := NewRecorder(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec.Record(Inbound, protocol.StatePlay, &protocol.RawFrame{ID: id, Body: []byte{byte(j)}})
			}
		}(int32(i))
	}
	wg.Wait()
	rec.Close()

	r, _ := NewReader(&buf)
	entries, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 400 {
		t.Errorf("got %d entries, want 400", len(entries))
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecorderStickyError(t *testing.T) {
	rec, err := NewRecorder(failWriter{})
	if err != nil {
		t.Fatal(err) // header is buffered
	}
	big := &protocol.RawFrame{ID: 1, Body: make([]byte, 8192)}
	first := rec.Record(Inbound, protocol.StatePlay, big)
	if first == nil {
		t.Fatal("expected write error")
	}
	if err := rec.Record(Inbound, protocol.StatePlay, &protocol.RawFrame{}); err != first {
		t.Errorf("second Record err = %v, want %v", err, first)
	}
}

func TestEntrySide(t *testing.T) {
	in := &Entry{Direction: Inbound}
	out := &Entry{Direction: Outbound}
	if in.Side(true) != protocol.Serverbound || out.Side(true) != protocol.Clientbound {
		t.Error("server perspective")
	}
	if in.Side(false) != protocol.Clientbound || out.Side(false) != protocol.Serverbound {
		t.Error("client perspective")
	}
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName(time.Unix(0, 0), "abc"))
	rec, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	rec.Record(Outbound, protocol.StateStatus, &protocol.RawFrame{ID: 1, Body: []byte{1, 2, 3, 4, 5, 6, 7, 8}})
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "capture-19700101T000000Z-abc.bwcap" {
		t.Errorf("FileName = %s", filepath.Base(path))
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	e, err := r.Next()
	if err != nil || e.ID != 1 || len(e.Body) != 8 {
		t.Fatalf("Next = %+v, %v", e, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func writeCapture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "c"+Extension)
	rec, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	rec.Record(Inbound, protocol.StateHandshaking, &protocol.RawFrame{ID: 0, Body: []byte{1}})
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiskSink(t *testing.T) {
	src := writeCapture(t, t.TempDir())
	sink, err := NewDiskSink(filepath.Join(t.TempDir(), "archive"), 0)
	if err != nil {
		t.Fatal(err)
	}
	loc, err := Upload(context.Background(), sink, src)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := os.ReadFile(src)
	got, err := os.ReadFile(loc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("archived capture differs")
	}
}

func TestDiskSinkTooLarge(t *testing.T) {
	dir := t.TempDir()
	sink, _ := NewDiskSink(dir, 4)
	if _, err := sink.Put(context.Background(), "x", strings.NewReader("too long")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("left %d files behind", len(entries))
	}
}

func TestUploadRejectsNonCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	os.WriteFile(path, []byte("junk data"), 0644)
	sink, _ := NewDiskSink(t.TempDir(), 0)
	if _, err := Upload(context.Background(), sink, path); !errors.Is(err, ErrBadMagic) {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Sink(t *testing.T) {
	src := writeCapture(t, t.TempDir())
	client := &fakeS3{}
	sink := NewS3Sink(client, "bucket", "captures/", 0)

	loc, err := Upload(context.Background(), sink, src)
	if err != nil {
		t.Fatal(err)
	}
	if loc != "s3://bucket/captures/c.bwcap" {
		t.Errorf("location = %s", loc)
	}
	if *client.input.Bucket != "bucket" || *client.input.Key != "captures/c.bwcap" {
		t.Errorf("input = %s/%s", *client.input.Bucket, *client.input.Key)
	}
	if client.input.Metadata["capture-format"] != Magic {
		t.Errorf("metadata = %v", client.input.Metadata)
	}
	want, _ := os.ReadFile(src)
	if !bytes.Equal(client.body, want) {
		t.Error("uploaded body differs")
	}
}

func TestS3SinkErrors(t *testing.T) {
	sink := NewS3Sink(&fakeS3{}, "b", "", 2)
	if _, err := sink.Put(context.Background(), "x", strings.NewReader("abc")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}

	boom := errors.New("access denied")
	sink = NewS3Sink(&fakeS3{err: boom}, "b", "", 0)
	if _, err := sink.Put(context.Background(), "x", strings.NewReader("abc")); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped access denied", err)
	}
}
