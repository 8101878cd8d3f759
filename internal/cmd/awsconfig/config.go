package awsconfig

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ConfigLoaderMixin can be embedded in commands that talk to AWS to give them a --profile flag.
type ConfigLoaderMixin struct {
	Profile string `long:"profile" description:"override AWS_PROFILE if given" value-name:"PROFILE"`

	optFns []func(*config.LoadOptions) error
}

// AddOption adds an option that is applied by every subsequent LoadDefaultConfig.
func (c *ConfigLoaderMixin) AddOption(optFn func(*config.LoadOptions) error) {
	c.optFns = append(c.optFns, optFn)
}

// LoadDefaultConfig calls config.LoadDefaultConfig with the profile and the added options, in that order.
func (c *ConfigLoaderMixin) LoadDefaultConfig(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
	fns := make([]func(*config.LoadOptions) error, 0, len(c.optFns)+len(optFns)+1)
	if c.Profile != "" {
		fns = append(fns, config.WithSharedConfigProfile(c.Profile))
	}

	return config.LoadDefaultConfig(ctx, append(append(fns, c.optFns...), optFns...)...)
}

// NewS3Client creates a new S3 client from LoadDefaultConfig.
func (c *ConfigLoaderMixin) NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	cfg, err := c.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, optFns...), nil
}
