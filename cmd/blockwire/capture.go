package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/blockwire/internal/config"
	"github.com/vango-dev/blockwire/internal/errors"
	"github.com/vango-dev/blockwire/pkg/capture"
)

func captureCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Work with capture files",
		Long: `Inspect and upload .bwcap capture files written by 'blockwire serve --capture'.

Decode a capture's frames with 'blockwire decode --capture <file>'.`,
	}
	cmd.AddCommand(captureUploadCmd(flags), captureInfoCmd())
	return cmd
}

func captureUploadCmd(flags *globalFlags) *cobra.Command {
	var (
		dir string
		s3c config.S3Config
	)

	cmd := &cobra.Command{
		Use:   "upload <file.bwcap>...",
		Short: "Upload capture files to a directory or an S3 bucket",
		Long: `Upload capture files to a local directory or to S3.

Without flags the [capture.s3] section of blockwire.toml is used. S3
credentials come from the standard AWS chain: environment variables, the
shared config and credentials files (AWS_PROFILE), SSO or instance roles.

Examples:
  blockwire capture upload captures/*.bwcap --dir /mnt/archive
  blockwire capture upload dump.bwcap --bucket frames --prefix dev/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			override(cmd, "bucket", &cfg.Capture.S3.Bucket, s3c.Bucket)
			override(cmd, "prefix", &cfg.Capture.S3.Prefix, s3c.Prefix)
			override(cmd, "region", &cfg.Capture.S3.Region, s3c.Region)
			override(cmd, "endpoint", &cfg.Capture.S3.Endpoint, s3c.Endpoint)

			var sink capture.Sink
			if dir != "" {
				if sink, err = capture.NewDiskSink(dir, cfg.Capture.MaxSize); err != nil {
					return errors.New("E144").Wrap(err)
				}
			} else if sink, err = sinkFor(cmd.Context(), cfg); err != nil {
				return err
			}
			if sink == nil {
				return errors.New("E124").
					WithDetail("No upload destination configured").
					WithSuggestion("Pass --dir or --bucket, or set [capture.s3] bucket in blockwire.toml")
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				loc, err := capture.Upload(cmd.Context(), sink, path)
				if err != nil {
					return errors.New("E144").WithDetail("Uploading " + path + " failed").Wrap(err)
				}
				success(out, "%s → %s", path, loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Copy captures into this directory instead of S3")
	cmd.Flags().StringVar(&s3c.Bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(&s3c.Prefix, "prefix", "", "S3 key prefix")
	cmd.Flags().StringVar(&s3c.Region, "region", "", "S3 region (default from the AWS config, else us-east-1)")
	cmd.Flags().StringVar(&s3c.Endpoint, "endpoint", "", "S3-compatible endpoint URL, e.g. http://localhost:9000")

	return cmd
}

// override sets *dst to v when the flag name was given.
func override(cmd *cobra.Command, name string, dst *string, v string) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func captureInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.bwcap>",
		Short: "Summarize a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := capture.Open(args[0])
			if err != nil {
				return errors.New("E143").Wrap(err)
			}
			defer r.Close()
			entries, err := r.All()
			if err != nil {
				return errors.New("E143").Wrap(err)
			}

			out := cmd.OutOrStdout()
			info(out, "file     %s", args[0])
			info(out, "frames   %d", len(entries))
			if len(entries) == 0 {
				return nil
			}
			first, last := entries[0].Time, entries[len(entries)-1].Time
			info(out, "start    %s", first.UTC().Format(time.RFC3339Nano))
			info(out, "duration %s", last.Sub(first))

			counts := make(map[string]int)
			var total int
			for _, e := range entries {
				counts[fmt.Sprintf("%-8s %s", e.Direction, e.State)]++
				total += len(e.Body)
			}
			info(out, "bytes    %d", total)
			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				info(out, "  %-24s %d", k, counts[k])
			}
			return nil
		},
	}
}

// sinkFor returns the S3 sink configured in cfg, or nil without a bucket.
func sinkFor(ctx context.Context, cfg *config.Config) (capture.Sink, error) {
	if !cfg.S3Enabled() {
		return nil, nil
	}
	client, err := newS3Client(ctx, cfg.Capture.S3)
	if err != nil {
		return nil, errors.New("E124").WithDetail("Loading AWS configuration failed").Wrap(err)
	}
	return capture.NewS3Sink(client, cfg.Capture.S3.Bucket, cfg.Capture.S3.Prefix, cfg.Capture.MaxSize), nil
}

// newS3Client builds an S3 client from the default AWS configuration chain
// (environment, shared config and credentials files, SSO, IMDS). Region and
// endpoint in c override it.
func newS3Client(ctx context.Context, c config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if o.Region == "" {
			o.Region = "us-east-1"
		}
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
