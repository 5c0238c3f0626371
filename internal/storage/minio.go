package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"alcyxob/file-grants/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO's own default region.
const defaultMinioRegion = "us-east-1"

// minioSigner implements ObjectSigner against a MinIO deployment.
type minioSigner struct {
	client *minio.Client
}

// NewMinioSigner creates a signer for the MinIO server at cfg.Endpoint.
// The endpoint is host[:port]; a scheme prefix is stripped and decides
// Secure when present.
func NewMinioSigner(cfg config.S3Config) (ObjectSigner, error) {
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}

	// Region is always set so presigning never has to look up the bucket location.
	region := cfg.Region
	if region == "" {
		region = defaultMinioRegion
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &minioSigner{client: client}, nil
}

func (m *minioSigner) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		return "", ErrInvalidExpiry
	}
	u, err := m.client.PresignedGetObject(ctx, bucket, key, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign GET %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}

func (m *minioSigner) PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		return "", ErrInvalidExpiry
	}
	u, err := m.client.PresignedPutObject(ctx, bucket, key, expires)
	if err != nil {
		return "", fmt.Errorf("presign PUT %s/%s: %w", bucket, key, err)
	}
	return u.String(), nil
}
