package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrTooLarge is returned when a capture exceeds a sink's size limit.
var ErrTooLarge = errors.New("capture: file too large")

// Sink stores finished capture files.
// Implement this interface to ship captures to GCS or other storage.
type Sink interface {
	// Put stores the capture read from r under name and returns where it
	// was stored.
	Put(ctx context.Context, name string, r io.Reader) (location string, err error)
}

// Upload validates the capture file at path and stores it in sink under
// its base name.
func Upload(ctx context.Context, sink Sink, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := NewReader(f); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return sink.Put(ctx, filepath.Base(path), f)
}

// DiskSink copies captures into a local directory.
type DiskSink struct {
	dir     string
	maxSize int64
}

// NewDiskSink creates a DiskSink.
//
// Parameters:
//   - dir: Directory to store captures in
//   - maxSize: Maximum capture size in bytes (0 = no limit)
func NewDiskSink(dir string, maxSize int64) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskSink{dir: dir, maxSize: maxSize}, nil
}

// Put writes the capture to dir/name. The file appears atomically.
func (s *DiskSink) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filepath.Base(name))

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	var reader io.Reader = r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}
	written, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && written > s.maxSize {
		return "", ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// S3API is the subset of *s3.Client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads captures to an S3 bucket.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	sink := capture.NewS3Sink(client, "my-bucket", "captures/", 64<<20)
type S3Sink struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3Sink creates an S3Sink.
//
// Parameters:
//   - client: S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: Key prefix for captures (e.g., "captures/")
//   - maxSize: Maximum capture size in bytes (0 = no limit)
func NewS3Sink(client S3API, bucket, prefix string, maxSize int64) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, maxSize: maxSize}
}

// Put uploads the capture and returns its s3:// URL.
func (s *S3Sink) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	// Buffer so the SDK can compute checksums over a seekable body.
	var buf bytes.Buffer
	if s.maxSize > 0 {
		n, err := io.Copy(&buf, io.LimitReader(r, s.maxSize+1))
		if err != nil {
			return "", err
		}
		if n > s.maxSize {
			return "", ErrTooLarge
		}
	} else if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}

	key := s.prefix + filepath.Base(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"capture-format": Magic,
			"upload-time":    time.Now().UTC().Format(time.RFC3339),
			"size":           strconv.Itoa(buf.Len()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("capture: s3 upload failed: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
