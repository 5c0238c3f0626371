package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/file-grants/internal/domain"
)

// ErrInvalidExpiry is returned when a signer is asked for a non-positive window.
var ErrInvalidExpiry = errors.New("presign expiry must be positive")

// ObjectSigner mints time-limited URLs for a single object operation.
// The returned URL carries its own authorization; the storage provider
// enforces the window.
type ObjectSigner interface {
	// PresignGet creates a temporary URL that allows GET requests
	// for downloading an object directly from the storage provider.
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)

	// PresignPut creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// Sign dispatches to the signer method for op with a window of seconds.
func Sign(ctx context.Context, signer ObjectSigner, op domain.Operation, bucket, key string, seconds int) (string, error) {
	if seconds <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidExpiry, seconds)
	}
	expires := time.Duration(seconds) * time.Second

	switch op {
	case domain.OperationGet:
		return signer.PresignGet(ctx, bucket, key, expires)
	case domain.OperationPut:
		return signer.PresignPut(ctx, bucket, key, expires)
	default:
		return "", fmt.Errorf("unsupported presign operation %q", op)
	}
}
