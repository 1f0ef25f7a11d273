package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sari-backend/internal/config"
)

// StatementArchive keeps a copy of every generated statement of account in
// an S3-compatible bucket (R2, MinIO or S3).
type StatementArchive struct {
	client *s3.Client
	bucket string
}

// NewStatementArchive returns nil when storage is disabled
func NewStatementArchive(ctx context.Context, cfg *config.Config) (*StatementArchive, error) {
	if !cfg.Storage.Enabled {
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
		return nil, fmt.Errorf("configure storage client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &StatementArchive{client: client, bucket: cfg.Storage.Bucket}, nil
}

// StatementKey is the object key for a customer's statement generated at t
func StatementKey(customerID string, t time.Time) string {
	return fmt.Sprintf("statements/%s/%s.pdf", customerID, t.UTC().Format("20060102-150405"))
}

// PutStatement uploads the PDF and returns its object key
func (a *StatementArchive) PutStatement(ctx context.Context, customerID string, at time.Time, pdf []byte) (string, error) {
	key := StatementKey(customerID, at)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("upload statement: %w", err)
	}
	return key, nil
}
