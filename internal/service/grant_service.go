package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/file-grants/internal/domain"
	"alcyxob/file-grants/internal/logger"
	"alcyxob/file-grants/internal/repository"
	"alcyxob/file-grants/internal/storage"

	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrSignFailed  = errors.New("failed to generate presigned URL")
	ErrAuditFailed = errors.New("failed to write audit record")
)

// DownloadGrantRequest is the parsed input of a download grant.
// Expires holds the decoded JSON value; ExpiresSet reports whether the
// client sent the field at all.
type DownloadGrantRequest struct {
	User       string
	FileKey    string
	Expires    any
	ExpiresSet bool
	SourceIP   string
}

// DownloadGrant is the result returned to the caller.
type DownloadGrant struct {
	PresignedURL     string `json:"presigned_url"`
	FileKey          string `json:"file_key"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// UploadGrantRequest is the parsed input of an upload grant.
type UploadGrantRequest struct {
	User       string
	Filename   string
	Expires    any
	ExpiresSet bool
	SourceIP   string
}

// UploadGrant is the result returned to the caller.
type UploadGrant struct {
	UploadURL        string `json:"upload_url"`
	FileKey          string `json:"file_key"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// GrantService issues presigned URLs and audits every issued grant.
type GrantService interface {
	IssueDownloadGrant(ctx context.Context, req DownloadGrantRequest) (*DownloadGrant, error)
	IssueUploadGrant(ctx context.Context, req UploadGrantRequest) (*UploadGrant, error)
}

// grantService implements the GrantService interface.
type grantService struct {
	signer storage.ObjectSigner
	audits repository.AuditRepository
	bucket string
	log    *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewGrantService creates a grant service signing objects in bucket.
func NewGrantService(signer storage.ObjectSigner, audits repository.AuditRepository, bucket string, log *logger.Logger) GrantService {
	if log == nil {
		log = logger.Nop()
	}
	return &grantService{
		signer: signer,
		audits: audits,
		bucket: bucket,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// IssueDownloadGrant signs a GET URL. Any key may be requested; keys are not
// restricted to the caller's namespace.
func (s *grantService) IssueDownloadGrant(ctx context.Context, req DownloadGrantRequest) (*DownloadGrant, error) {
	fileKey := req.FileKey
	if fileKey == "" {
		fileKey = domain.GeneratedDownloadKey(req.User)
	}
	expires := domain.DownloadExpiry(req.Expires, req.ExpiresSet)

	url, err := s.sign(ctx, domain.OperationGet, fileKey, expires)
	if err != nil {
		return nil, err
	}

	record := domain.NewGetAuditRecord(s.newID(), s.now(), req.User, fileKey, expires, req.SourceIP)
	if err := s.audit(ctx, record, expires); err != nil {
		return nil, err
	}

	return &DownloadGrant{
		PresignedURL:     url,
		FileKey:          fileKey,
		ExpiresInSeconds: expires,
	}, nil
}

// IssueUploadGrant signs a PUT URL for {user}/{filename}. The expiry is not
// range checked and an unreadable expiry fails the request.
func (s *grantService) IssueUploadGrant(ctx context.Context, req UploadGrantRequest) (*UploadGrant, error) {
	filename := req.Filename
	if filename == "" {
		filename = domain.GeneratedUploadFilename()
	}
	fileKey := domain.UploadKey(req.User, filename)

	expires, err := domain.UploadExpiry(req.Expires, req.ExpiresSet)
	if err != nil {
		s.log.Warn("rejecting upload grant", logger.String("user", req.User), logger.Error(err))
		return nil, err
	}

	url, err := s.sign(ctx, domain.OperationPut, fileKey, expires)
	if err != nil {
		return nil, err
	}

	record := domain.NewPutAuditRecord(s.newID(), s.now(), req.User, fileKey, expires, req.SourceIP)
	if err := s.audit(ctx, record, expires); err != nil {
		return nil, err
	}

	return &UploadGrant{
		UploadURL:        url,
		FileKey:          fileKey,
		ExpiresInSeconds: expires,
	}, nil
}

func (s *grantService) sign(ctx context.Context, op domain.Operation, fileKey string, expires int) (string, error) {
	url, err := storage.Sign(ctx, s.signer, op, s.bucket, fileKey, expires)
	if err != nil {
		s.log.Error("presign failed",
			logger.String("operation", string(op)),
			logger.String("bucket", s.bucket),
			logger.String("file_key", fileKey),
			logger.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSignFailed, err)
	}
	return url, nil
}

// audit writes the record. A failure here fails the request even though a
// URL was already signed; nothing is rolled back.
func (s *grantService) audit(ctx context.Context, record *domain.AuditRecord, expires int) error {
	if err := s.audits.Put(ctx, record); err != nil {
		s.log.Error("audit write failed",
			logger.String("audit_id", record.AuditID),
			logger.String("action", record.Action),
			logger.String("file_key", record.FileKey),
			logger.Error(err))
		return fmt.Errorf("%w: %w", ErrAuditFailed, err)
	}

	s.log.Info("grant issued",
		logger.String("audit_id", record.AuditID),
		logger.String("user", record.User),
		logger.String("action", record.Action),
		logger.String("file_key", record.FileKey),
		logger.Int("expires", expires),
		logger.String("source_ip", record.SourceIP))
	return nil
}
