package storage

import (
	"context"
	"fmt"
	"time"

	"alcyxob/file-grants/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Signer implements ObjectSigner with the AWS SDK presign client.
type s3Signer struct {
	presignClient *s3.PresignClient
}

// NewS3Signer loads the AWS SDK configuration and returns an S3-backed signer.
// Region and credentials come from cfg when set, otherwise from the default
// chain (AWS_REGION and the execution role on Lambda).
func NewS3Signer(ctx context.Context, cfg config.S3Config) (ObjectSigner, error) {
	var opts []func(*awsCfg.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsCfg.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	// A custom endpoint points at an S3-compatible store (MinIO, LocalStack).
	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3SignerFromClient(client), nil
}

// NewS3SignerFromClient wraps an existing S3 client.
func NewS3SignerFromClient(client *s3.Client) ObjectSigner {
	return &s3Signer{presignClient: s3.NewPresignClient(client)}
}

// PresignGet creates a temporary URL for downloading (GET).
func (s *s3Signer) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		return "", ErrInvalidExpiry
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign GET %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// PresignPut creates a temporary URL for uploading (PUT).
func (s *s3Signer) PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		return "", ErrInvalidExpiry
	}

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign PUT %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}
