package mirror

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Destination writes documents to an S3-compatible bucket.
type S3Destination struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Destination, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// ObjectKey returns the object key used for a document path.
func (d *S3Destination) ObjectKey(key string) string {
	if d.prefix == "" {
		return key
	}
	return path.Join(d.prefix, key)
}

// Write uploads data as a JSON object.
func (d *S3Destination) Write(ctx context.Context, key string, data []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.ObjectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
