// Package s3sink streams archives of local directories straight into S3 objects.
package s3sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Oliver-Hanikel/miniserve/archive"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Options customises Upload.
type Options struct {
	// PartSize is passed to manager.Uploader.
	//
	// Default to manager.DefaultUploadPartSize.
	PartSize int64

	// Concurrency is passed to manager.Uploader.
	//
	// Default to manager.DefaultUploadConcurrency.
	Concurrency int

	// PutObjectInputOptions can be used to modify the s3.PutObjectInput before the upload starts.
	//
	// Useful if you need to add ExpectedBucketOwner or StorageClass. Bucket, Key, and Body must not be changed.
	PutObjectInputOptions func(*s3.PutObjectInput)

	// ArchiveOptions are passed as-is to archive.Method.CreateArchive.
	ArchiveOptions []func(*archive.Options)

	// Logger, if given, logs every successful part of a multipart upload at debug level.
	Logger *zap.Logger
}

// Upload archives dir with the given method and uploads the archive to s3://bucket/key as it is being produced.
//
// The object's Content-Type and Content-Encoding are set from the method. The archive is produced on a separate
// goroutine and piped to manager.Uploader; Upload waits for that goroutine before returning.
//
// If the archive cannot be created, the upload is aborted and the archive error is returned as-is, so it can be
// inspected with errors.As for *archive.InvalidPathError, *archive.IOError, or *archive.CreationError. If the upload
// fails, archiving stops at its next write and the upload error is returned.
func Upload(ctx context.Context, client manager.UploadAPIClient, bucket, key string, m archive.Method, dir string, skipSymlinks bool, optFns ...func(*Options)) (*manager.UploadOutput, error) {
	opts := &Options{}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.Logger != nil {
		client = &loggingClient{UploadAPIClient: client, logger: opts.Logger.With(zap.String("bucket", bucket), zap.String("key", key))}
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if opts.PartSize > 0 {
			u.PartSize = opts.PartSize
		}
		if opts.Concurrency > 0 {
			u.Concurrency = opts.Concurrency
		}
	})

	input := &s3.PutObjectInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		ContentType:     aws.String(m.ContentType()),
		ContentEncoding: aws.String(string(m.ContentEncoding())),
	}
	if opts.PutObjectInputOptions != nil {
		opts.PutObjectInputOptions(input)
	}

	pr, pw := io.Pipe()
	input.Body = pr

	archiveErrC := make(chan error, 1)
	go func() {
		err := m.CreateArchive(dir, skipSymlinks, pw, opts.ArchiveOptions...)

		// a nil error closes the pipe with io.EOF which completes the upload.
		_ = pw.CloseWithError(err)
		archiveErrC <- err
	}()

	output, err := uploader.Upload(ctx, input)
	if err != nil {
		_ = pr.CloseWithError(err)
	} else {
		_ = pr.Close()
	}

	archiveErr := <-archiveErrC

	switch {
	case archiveErr != nil && (err == nil || !errors.Is(archiveErr, err)):
		return nil, archiveErr
	case err != nil:
		return nil, fmt.Errorf("upload to s3 (bucket=%s, key=%s) error: %w", bucket, key, err)
	default:
		return output, nil
	}
}
