package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-dev/blockwire/internal/config"
)

// isolateAWS points the AWS configuration chain at files under a temp dir.
func isolateAWS(t *testing.T, credentials string) {
	t.Helper()
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "credentials")
	if err := os.WriteFile(credsPath, []byte(credentials), 0600); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "config")
	if err := os.WriteFile(configPath, nil, 0600); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN",
		"AWS_PROFILE", "AWS_DEFAULT_PROFILE", "AWS_REGION", "AWS_DEFAULT_REGION",
		"AWS_WEB_IDENTITY_TOKEN_FILE", "AWS_ROLE_ARN", "AWS_CONTAINER_CREDENTIALS_FULL_URI",
		"AWS_CONTAINER_CREDENTIALS_RELATIVE_URI",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credsPath)
	t.Setenv("AWS_CONFIG_FILE", configPath)
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestNewS3ClientSharedCredentials(t *testing.T) {
	isolateAWS(t, "[default]\naws_access_key_id = AKIDSHARED\naws_secret_access_key = secret\n")

	ctx := context.Background()
	client, err := newS3Client(ctx, config.S3Config{
		Bucket:   "frames",
		Region:   "eu-west-1",
		Endpoint: "http://localhost:9000",
	})
	if err != nil {
		t.Fatalf("newS3Client: %v", err)
	}

	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q, want eu-west-1", opts.Region)
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("BaseEndpoint = %v", opts.BaseEndpoint)
	}
	if !opts.UsePathStyle {
		t.Error("UsePathStyle should be set with a custom endpoint")
	}

	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIDSHARED" {
		t.Errorf("AccessKeyID = %q, want the shared file's key", creds.AccessKeyID)
	}
}

func TestNewS3ClientDefaultRegion(t *testing.T) {
	isolateAWS(t, "")

	client, err := newS3Client(context.Background(), config.S3Config{Bucket: "frames"})
	if err != nil {
		t.Fatalf("newS3Client: %v", err)
	}
	opts := client.Options()
	if opts.Region != "us-east-1" {
		t.Errorf("Region = %q, want us-east-1", opts.Region)
	}
	if opts.BaseEndpoint != nil || opts.UsePathStyle {
		t.Error("endpoint options set without an endpoint")
	}
}

func TestSinkFor(t *testing.T) {
	isolateAWS(t, "")

	cfg := config.New()
	sink, err := sinkFor(context.Background(), cfg)
	if err != nil || sink != nil {
		t.Fatalf("sinkFor without bucket = %v, %v", sink, err)
	}

	cfg.Capture.S3.Bucket = "frames"
	sink, err = sinkFor(context.Background(), cfg)
	if err != nil {
		t.Fatalf("sinkFor: %v", err)
	}
	if sink == nil {
		t.Fatal("sinkFor returned nil with a bucket")
	}
}
