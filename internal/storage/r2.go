package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pushp314/chatbridge-backend/internal/config"
)

// R2Store puts media into a Cloudflare R2 bucket through the S3 API
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewR2Store(ctx context.Context, cfg *config.Config) (*R2Store, error) {
	if cfg.R2AccountID == "" || cfg.R2BucketName == "" {
		return nil, fmt.Errorf("r2 storage needs R2_ACCOUNT_ID and R2_BUCKET_NAME")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicURL := cfg.R2PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.r2.dev", cfg.R2BucketName)
	}

	return &R2Store{
		client:    client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *R2Store) Put(ctx context.Context, folder, ext string, body io.Reader, size int64, contentType string) (*Object, error) {
	key := objectKey(folder, ext)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	return &Object{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s", s.publicURL, key),
		ContentType: contentType,
		Size:        size,
	}, nil
}
