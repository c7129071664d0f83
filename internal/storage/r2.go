// Package storage uploads generated reports to an S3-compatible bucket
// (Cloudflare R2 in production).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"pos-backend/internal/config"
)

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

type R2Client struct {
	client *s3.Client
	bucket string
}

// NewR2Client returns nil when storage is not configured.
func NewR2Client(ctx context.Context, cfg *config.Config) (*R2Client, error) {
	if !cfg.StorageEnabled() {
		return nil, nil
	}
	region := cfg.Storage.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure R2 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		o.UsePathStyle = true
	})
	return &R2Client{client: client, bucket: cfg.Storage.Bucket}, nil
}

func (c *R2Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// ReportKey is reports/YYYY/MM/<name>.
func ReportKey(t time.Time, name string) string {
	return path.Join("reports", t.Format("2006"), t.Format("01"), name)
}
