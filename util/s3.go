package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ParseS3URI parses an S3 URI in format `s3://bucket/prefix`.
//
// The prefix may be empty. If it is not, it is returned as-is so "s3://bucket/a" and "s3://bucket/a/" produce
// different prefixes "a" and "a/".
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf(`S3 URI "%s" does not start with "s3://"`, uri)
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf(`S3 URI "%s" has no bucket`, uri)
	}

	return bucket, prefix, nil
}

// FindUnusedS3Key returns an S3 key pointing to a non-existing S3 object.
//
// The returned key will be in format `{prefix}{stem}{ext}`, `{prefix}{stem}-1{ext}`, or `{prefix}{stem}-2{ext}`, and so
// on. This is the S3 equivalent of OpenExclFile, except that nothing is reserved so another writer may still take the
// key before it is used.
func FindUnusedS3Key(ctx context.Context, client s3.HeadObjectAPIClient, bucket, prefix, stem, ext string) (string, error) {
	key := prefix + stem + ext
	for i := 0; ; {
		if _, err := client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			if errors.Is(err, context.Canceled) {
				return "", err
			}

			var re *awshttp.ResponseError
			if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
				break
			}

			return "", fmt.Errorf("find unused S3 key (bucket=%s, key=%s) error: %w", bucket, key, err)
		}

		i++
		key = fmt.Sprintf("%s%s-%d%s", prefix, stem, i, ext)
	}

	return key, nil
}
