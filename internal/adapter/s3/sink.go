// Package s3 uploads snapshot CSVs to an S3-compatible object store.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const csvContentType = "text/csv"

// ObjectPutter is the subset of the S3 client used by Sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink writes each snapshot to <prefix>/<name>.csv in a bucket.
// It implements snapshot.Writer.
type Sink struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// NewSink builds a path-style S3 client from the default AWS credential chain.
// A non-empty S3Endpoint overrides the resolved endpoint, for MinIO or LocalStack.
func NewSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := awsCfg.BaseEndpoint
	if cfg.S3Endpoint != "" {
		endpoint = aws.String(cfg.S3Endpoint)
	}

	client := s3.New(s3.Options{
		Region:       awsCfg.Region,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		BaseEndpoint: endpoint,
		UsePathStyle: true,
	})
	return NewSinkWithClient(client, cfg.S3Bucket, cfg.S3Prefix, logger), nil
}

// NewSinkWithClient wraps an existing client.
func NewSinkWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// WriteSnapshot uploads the table as CSV, replacing any previous object.
func (s *Sink) WriteSnapshot(ctx context.Context, t domain.Table) error {
	var buf bytes.Buffer
	if err := snapshot.WriteCSV(&buf, t); err != nil {
		return err
	}

	key := s.Key(t.Name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(csvContentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	s.logger.Debug("snapshot uploaded", "bucket", s.bucket, "key", key, "rows", t.Len())
	return nil
}

// Key returns the object key for a snapshot name.
func (s *Sink) Key(name string) string {
	return path.Join(s.prefix, snapshot.FileName(name))
}
