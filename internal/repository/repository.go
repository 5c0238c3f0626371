package repository

import (
	"context"

	"alcyxob/file-grants/internal/domain"
)

// Error constants for repository layer
var (
	ErrDuplicate   = RepositoryError("record already exists")
	ErrInvalidItem = RepositoryError("invalid audit record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// AuditRepository persists audit records. Records are append-only: a
// repository never updates, deletes or reads them back.
type AuditRepository interface {
	Put(ctx context.Context, record *domain.AuditRecord) error
}

// Validate checks the fields every stored record must carry.
func Validate(record *domain.AuditRecord) error {
	if record == nil || record.AuditID == "" || record.Action == "" || record.FileKey == "" {
		return ErrInvalidItem
	}
	return nil
}
