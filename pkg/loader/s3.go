package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hopgraph/hopgraph/internal/util"
)

// S3Loader reads a corpus object from an S3 bucket using the AWS SDK v2.
// Useful when input corpora live in object storage instead of the local
// filesystem, including S3-compatible stores like MinIO.
type S3Loader struct {
	bucket string
	key    string
	client *s3.Client
}

// NewS3LoaderParams defines the configuration parameters for creating a new
// S3Loader. Endpoint overrides the S3 endpoint for S3-compatible storage.
type NewS3LoaderParams struct {
	Bucket    string
	Key       string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Loader creates a new S3Loader with the given parameters.
func NewS3Loader(ctx context.Context, params NewS3LoaderParams) (*S3Loader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return &S3Loader{
		bucket: params.Bucket,
		key:    params.Key,
		client: s3.NewFromConfig(cfg),
	}, nil
}

// NewS3LoaderFromURI creates a loader for an s3://bucket/key URI. Region,
// endpoint, and credentials come from the environment.
func NewS3LoaderFromURI(ctx context.Context, uri string) (*S3Loader, error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 uri: %s", uri)
	}

	return NewS3Loader(ctx, NewS3LoaderParams{
		Bucket:    bucket,
		Key:       key,
		Endpoint:  util.GetEnvString("S3_ENDPOINT", ""),
		Region:    util.GetEnvString("S3_REGION", "us-east-1"),
		AccessKey: util.GetEnvString("S3_ACCESS_KEY", ""),
		SecretKey: util.GetEnvString("S3_SECRET_KEY", ""),
	})
}

// GetText retrieves the object's contents.
func (l *S3Loader) GetText(ctx context.Context) ([]byte, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
