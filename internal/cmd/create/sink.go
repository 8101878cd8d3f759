package create

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Oliver-Hanikel/miniserve/archive"
	"github.com/Oliver-Hanikel/miniserve/internal"
	"github.com/Oliver-Hanikel/miniserve/s3sink"
	"github.com/Oliver-Hanikel/miniserve/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	sdkconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// archiveRequest is everything a sink needs to create one archive.
type archiveRequest struct {
	method       archive.Method
	dir          string
	stem         string
	skipSymlinks bool
	description  string
	stderr       io.Writer
	optFns       []func(*archive.Options)
	logger       *zap.Logger
}

func (r archiveRequest) ext() string {
	return "." + r.method.Ext()
}

type result struct {
	// name is the file name, "-" for stdout, or the S3 URI of the archive.
	name string
	size int64
}

// sink is where archives are written to.
type sink interface {
	create(ctx context.Context, req archiveRequest) (result, error)
}

// fileSink writes archives as new files in dir, never overwriting existing files.
type fileSink struct {
	dir string
}

func (s *fileSink) create(ctx context.Context, req archiveRequest) (res result, err error) {
	f, err := util.OpenExclFile(s.dir, req.stem, req.ext(), 0666)
	if err != nil {
		return res, fmt.Errorf("create archive file error: %w", err)
	}
	res.name = f.Name()

	bar := internal.DefaultBytes(req.stderr, -1, req.description)
	sizer := &util.Sizer{}

	err = req.method.CreateArchive(req.dir, req.skipSymlinks, util.NewContextWriter(ctx, io.MultiWriter(f, bar, sizer)), req.optFns...)
	if closeErr := util.ChainCloser(f.Close, bar.Close)(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(f.Name()); rmErr != nil {
			req.logger.Warn("clean up partial archive error", zap.String("path", f.Name()), zap.Error(rmErr))
		}

		return res, err
	}

	res.size = sizer.Size
	return res, nil
}

// stdoutSink writes the archive to w which is usually os.Stdout.
type stdoutSink struct {
	w io.Writer
}

func (s *stdoutSink) create(ctx context.Context, req archiveRequest) (res result, err error) {
	res.name = "-"

	bar := internal.DefaultBytes(req.stderr, -1, req.description)
	sizer := &util.Sizer{}

	err = req.method.CreateArchive(req.dir, req.skipSymlinks, util.NewContextWriter(ctx, io.MultiWriter(s.w, bar, sizer)), req.optFns...)
	if closeErr := bar.Close(); err == nil {
		err = closeErr
	}

	res.size = sizer.Size
	return res, err
}

// s3Client is the subset of *s3.Client that s3Sink uses.
type s3Client interface {
	manager.UploadAPIClient
	s3.HeadObjectAPIClient
}

// s3Sink uploads archives to S3 under prefix, never overwriting existing objects.
type s3Sink struct {
	client s3Client
	bucket string
	prefix string
}

func (c *Command) newS3Sink(ctx context.Context) (*s3Sink, error) {
	bucket, prefix, err := util.ParseS3URI(c.S3)
	if err != nil {
		return nil, err
	}

	client := c.s3Client
	if client == nil {
		if c.Region != "" {
			c.AddOption(sdkconfig.WithRegion(c.Region))
		}

		if client, err = c.NewS3Client(ctx); err != nil {
			return nil, fmt.Errorf("create s3 client error: %w", err)
		}
	}

	return &s3Sink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *s3Sink) create(ctx context.Context, req archiveRequest) (res result, err error) {
	key, err := util.FindUnusedS3Key(ctx, s.client, s.bucket, s.prefix, req.stem, req.ext())
	if err != nil {
		return res, err
	}
	res.name = fmt.Sprintf("s3://%s/%s", s.bucket, key)

	report := archive.LogProgressReporter(req.logger, 5*time.Second)
	optFns := append(req.optFns, func(opts *archive.Options) {
		opts.ProgressReporter = report
	})

	if _, err = s3sink.Upload(ctx, s.client, s.bucket, key, req.method, req.dir, req.skipSymlinks, func(opts *s3sink.Options) {
		opts.ArchiveOptions = optFns
		opts.Logger = req.logger
	}); err != nil {
		return res, err
	}

	headObjectOutput, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return res, fmt.Errorf("get uploaded object size (key=%s) error: %w", key, err)
	}

	res.size = aws.ToInt64(headObjectOutput.ContentLength)
	return res, nil
}
