package s3sink

import (
	"context"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// loggingClient logs the calls that manager.Uploader makes.
//
// UploadPart may be called from any of the uploader's goroutines so the tally is atomic.
type loggingClient struct {
	manager.UploadAPIClient
	logger *zap.Logger
	parts  atomic.Int32
}

func (c *loggingClient) PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	output, err := c.UploadAPIClient.PutObject(ctx, input, optFns...)
	if err == nil {
		c.logger.Debug("uploaded object")
	}
	return output, err
}

func (c *loggingClient) CreateMultipartUpload(ctx context.Context, input *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	output, err := c.UploadAPIClient.CreateMultipartUpload(ctx, input, optFns...)
	if err == nil {
		c.logger.Debug("started multipart upload", zap.String("uploadId", aws.ToString(output.UploadId)))
	}
	return output, err
}

func (c *loggingClient) UploadPart(ctx context.Context, input *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	output, err := c.UploadAPIClient.UploadPart(ctx, input, optFns...)
	if err == nil {
		c.logger.Debug("uploaded part",
			zap.Int32("partNumber", aws.ToInt32(input.PartNumber)),
			zap.Int32("parts", c.parts.Add(1)))
	}
	return output, err
}

func (c *loggingClient) AbortMultipartUpload(ctx context.Context, input *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	output, err := c.UploadAPIClient.AbortMultipartUpload(ctx, input, optFns...)
	c.logger.Debug("aborted multipart upload", zap.String("uploadId", aws.ToString(input.UploadId)), zap.Error(err))
	return output, err
}

var _ manager.UploadAPIClient = &loggingClient{}
