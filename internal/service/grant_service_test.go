package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"alcyxob/file-grants/internal/domain"
	"alcyxob/file-grants/internal/logger"
	"alcyxob/file-grants/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSigner struct {
	presignGetFunc func(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	presignPutFunc func(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

func (m *mockSigner) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if m.presignGetFunc != nil {
		return m.presignGetFunc(ctx, bucket, key, expires)
	}
	return fmt.Sprintf("https://%s.example/%s?op=get&expires=%d", bucket, key, int(expires.Seconds())), nil
}

func (m *mockSigner) PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if m.presignPutFunc != nil {
		return m.presignPutFunc(ctx, bucket, key, expires)
	}
	return fmt.Sprintf("https://%s.example/%s?op=put&expires=%d", bucket, key, int(expires.Seconds())), nil
}

type memoryAudits struct {
	mu      sync.Mutex
	records []*domain.AuditRecord
	err     error
}

func (m *memoryAudits) Put(_ context.Context, record *domain.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

var fixedNow = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func newTestService(signer storage.ObjectSigner, audits *memoryAudits) *grantService {
	svc := NewGrantService(signer, audits, "files", logger.Nop()).(*grantService)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "audit-1" }
	return svc
}

const uuidPattern = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestIssueDownloadGrantWithKey(t *testing.T) {
	audits := &memoryAudits{}
	svc := newTestService(&mockSigner{}, audits)

	grant, err := svc.IssueDownloadGrant(context.Background(), DownloadGrantRequest{
		User:       "alice@example.com",
		FileKey:    "docs/report.pdf",
		Expires:    json.Number("600"),
		ExpiresSet: true,
		SourceIP:   "1.1.1.1",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://files.example/docs/report.pdf?op=get&expires=600", grant.PresignedURL)
	assert.Equal(t, "docs/report.pdf", grant.FileKey)
	assert.Equal(t, 600, grant.ExpiresInSeconds)

	require.Len(t, audits.records, 1)
	rec := audits.records[0]
	assert.Equal(t, "audit-1", rec.AuditID)
	assert.Equal(t, "alice@example.com", rec.User)
	assert.Equal(t, domain.ActionPresignedGet, rec.Action)
	assert.Equal(t, "docs/report.pdf", rec.FileKey)
	assert.Equal(t, 600, *rec.ExpiresInSeconds)
	assert.Equal(t, "1.1.1.1", rec.SourceIP)
	assert.Equal(t, "2026-10-18T08:00:00", rec.Timestamp)
}

func TestIssueDownloadGrantGeneratesKeyAndClamps(t *testing.T) {
	audits := &memoryAudits{}
	svc := newTestService(&mockSigner{}, audits)

	grant, err := svc.IssueDownloadGrant(context.Background(), DownloadGrantRequest{
		User:       "u1",
		Expires:    json.Number("90000"),
		ExpiresSet: true,
		SourceIP:   domain.UnknownSourceIP,
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^u1/`+uuidPattern+`$`), grant.FileKey)
	assert.Equal(t, domain.DefaultDownloadExpiry, grant.ExpiresInSeconds)
	assert.Equal(t, grant.FileKey, audits.records[0].FileKey)
}

func TestIssueUploadGrantNamespacesKey(t *testing.T) {
	audits := &memoryAudits{}
	svc := newTestService(&mockSigner{}, audits)

	grant, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{
		User:     "u1",
		Filename: "photo.jpg",
		SourceIP: "2.2.2.2",
	})
	require.NoError(t, err)

	assert.Equal(t, "u1/photo.jpg", grant.FileKey)
	assert.Equal(t, domain.DefaultUploadExpiry, grant.ExpiresInSeconds)
	assert.Equal(t, "https://files.example/u1/photo.jpg?op=put&expires=1800", grant.UploadURL)

	require.Len(t, audits.records, 1)
	rec := audits.records[0]
	assert.Equal(t, domain.ActionPresignedPut, rec.Action)
	require.NotNil(t, rec.Expires)
	assert.Equal(t, 1800, *rec.Expires)
	assert.Nil(t, rec.ExpiresInSeconds)
}

func TestIssueUploadGrantGeneratesFilename(t *testing.T) {
	svc := newTestService(&mockSigner{}, &memoryAudits{})

	grant, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{User: "u1"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^u1/upload-`+uuidPattern+`$`), grant.FileKey)
}

func TestIssueUploadGrantDoesNotClamp(t *testing.T) {
	svc := newTestService(&mockSigner{}, &memoryAudits{})

	grant, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{
		User:       "u1",
		Expires:    json.Number("172800"),
		ExpiresSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 172800, grant.ExpiresInSeconds)
}

func TestIssueUploadGrantRecordsCoercedExpiry(t *testing.T) {
	audits := &memoryAudits{}
	svc := newTestService(&mockSigner{}, audits)

	grant, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{
		User:       "u1",
		Filename:   "a.bin",
		Expires:    "600",
		ExpiresSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 600, grant.ExpiresInSeconds)
	assert.Equal(t, "https://files.example/u1/a.bin?op=put&expires=600", grant.UploadURL)

	require.Len(t, audits.records, 1)
	require.NotNil(t, audits.records[0].Expires)
	assert.Equal(t, 600, *audits.records[0].Expires)
}

func TestIssueUploadGrantInvalidExpiryFails(t *testing.T) {
	audits := &memoryAudits{}
	signed := false
	signer := &mockSigner{presignPutFunc: func(context.Context, string, string, time.Duration) (string, error) {
		signed = true
		return "x", nil
	}}
	svc := newTestService(signer, audits)

	_, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{
		User:       "u1",
		Expires:    "abc",
		ExpiresSet: true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidExpiry)
	assert.False(t, signed)
	assert.Empty(t, audits.records)
}

func TestIssueUploadGrantNonPositiveExpiryFails(t *testing.T) {
	audits := &memoryAudits{}
	svc := newTestService(&mockSigner{}, audits)

	_, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{
		User:       "u1",
		Expires:    json.Number("0"),
		ExpiresSet: true,
	})
	assert.ErrorIs(t, err, ErrSignFailed)
	assert.ErrorIs(t, err, storage.ErrInvalidExpiry)
	assert.Empty(t, audits.records)
}

func TestSignerFailureWritesNoAudit(t *testing.T) {
	denied := errors.New("access denied")
	audits := &memoryAudits{}
	svc := newTestService(&mockSigner{
		presignGetFunc: func(context.Context, string, string, time.Duration) (string, error) {
			return "", denied
		},
	}, audits)

	_, err := svc.IssueDownloadGrant(context.Background(), DownloadGrantRequest{User: "u1", FileKey: "k"})
	assert.ErrorIs(t, err, ErrSignFailed)
	assert.ErrorIs(t, err, denied)
	assert.Empty(t, audits.records)
}

func TestAuditFailureFailsGrant(t *testing.T) {
	unavailable := errors.New("table unavailable")
	svc := newTestService(&mockSigner{}, &memoryAudits{err: unavailable})

	grant, err := svc.IssueDownloadGrant(context.Background(), DownloadGrantRequest{User: "u1", FileKey: "k"})
	assert.Nil(t, grant)
	assert.ErrorIs(t, err, ErrAuditFailed)
	assert.ErrorIs(t, err, unavailable)

	upload, err := svc.IssueUploadGrant(context.Background(), UploadGrantRequest{User: "u1"})
	assert.Nil(t, upload)
	assert.ErrorIs(t, err, ErrAuditFailed)
}
