package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"alcyxob/file-grants/internal/domain"
	"alcyxob/file-grants/internal/logger"
	"alcyxob/file-grants/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSigner struct {
	err error
}

func (m *mockSigner) PresignGet(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("https://%s.s3.example/%s?X-Amz-Expires=%d", bucket, key, int(expires.Seconds())), nil
}

func (m *mockSigner) PresignPut(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("https://%s.s3.example/%s?X-Amz-Expires=%d&put", bucket, key, int(expires.Seconds())), nil
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

func newHandlers(signer *mockSigner, audits *memoryAudits) (*DownloadGrantHandler, *UploadGrantHandler) {
	grants := service.NewGrantService(signer, audits, "files", logger.Nop())
	return NewDownloadGrantHandler(grants), NewUploadGrantHandler(grants)
}

func eventWith(body string, claims domain.Claims) GatewayEvent {
	event := GatewayEvent{Body: body}
	event.RequestContext.Authorizer.JWT.Claims = claims
	return event
}

const uuidPattern = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestDownloadGrantEndToEnd(t *testing.T) {
	audits := &memoryAudits{}
	download, _ := newHandlers(&mockSigner{}, audits)

	event := eventWith(`{"file_key": "docs/report.pdf", "expires": 600}`, domain.Claims{"email": "alice@example.com"})
	event.RequestContext.HTTP.SourceIP = "1.1.1.1"

	start := time.Now().UTC().Truncate(time.Microsecond)
	resp, err := download.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "https://files.s3.example/docs/report.pdf?X-Amz-Expires=600", body["presigned_url"])
	assert.Equal(t, "docs/report.pdf", body["file_key"])
	assert.EqualValues(t, 600, body["expires_in_seconds"])
	assert.Len(t, body, 3)

	require.Len(t, audits.records, 1)
	rec := audits.records[0]
	assert.Equal(t, "alice@example.com", rec.User)
	assert.Equal(t, domain.ActionPresignedGet, rec.Action)
	assert.Equal(t, "docs/report.pdf", rec.FileKey)
	assert.Equal(t, 600, *rec.ExpiresInSeconds)
	assert.Equal(t, "1.1.1.1", rec.SourceIP)
	assert.Regexp(t, regexp.MustCompile(`^`+uuidPattern+`$`), rec.AuditID)

	ts, err := domain.ParseAuditTimestamp(rec.Timestamp)
	require.NoError(t, err)
	assert.False(t, ts.Before(start), "audit timestamp %s precedes request %s", ts, start)
}

func TestDownloadGrantDefaults(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantExpires int
	}{
		{"no body", "", 3600},
		{"malformed body", "{nope", 3600},
		{"zero", `{"expires": 0}`, 3600},
		{"too long", `{"expires": 90000}`, 3600},
		{"not numeric", `{"expires": "abc"}`, 3600},
		{"numeric string", `{"expires": "7200"}`, 7200},
		{"valid", `{"expires": 7200}`, 7200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audits := &memoryAudits{}
			download, _ := newHandlers(&mockSigner{}, audits)

			resp, err := download.Handle(context.Background(), eventWith(tt.body, domain.Claims{"sub": "u1"}))
			require.NoError(t, err)

			var body map[string]any
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.EqualValues(t, tt.wantExpires, body["expires_in_seconds"])
			assert.Regexp(t, regexp.MustCompile(`^u1/`+uuidPattern+`$`), body["file_key"])

			require.Len(t, audits.records, 1)
			assert.Equal(t, domain.UnknownSourceIP, audits.records[0].SourceIP)
		})
	}
}

func TestDownloadGrantAnonymous(t *testing.T) {
	audits := &memoryAudits{}
	download, _ := newHandlers(&mockSigner{}, audits)

	_, err := download.Handle(context.Background(), GatewayEvent{})
	require.NoError(t, err)
	require.Len(t, audits.records, 1)
	assert.Equal(t, domain.AnonymousUser, audits.records[0].User)
}

func TestUploadGrantEndToEnd(t *testing.T) {
	audits := &memoryAudits{}
	_, upload := newHandlers(&mockSigner{}, audits)

	event := eventWith(`{"filename": "notes.txt", "expires": 120}`, domain.Claims{"cognito:username": "u1", "email": "u1@example.com"})
	event.Headers = map[string]string{"x-forwarded-for": "2.2.2.2, 3.3.3.3"}

	resp, err := upload.Handle(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "https://files.s3.example/u1/notes.txt?X-Amz-Expires=120&put", body["upload_url"])
	assert.Equal(t, "u1/notes.txt", body["file_key"])
	assert.EqualValues(t, 120, body["expires_in_seconds"])

	require.Len(t, audits.records, 1)
	rec := audits.records[0]
	assert.Equal(t, domain.ActionPresignedPut, rec.Action)
	assert.Equal(t, "u1", rec.User)
	assert.Equal(t, 120, *rec.Expires)
	assert.Equal(t, "2.2.2.2", rec.SourceIP)
}

func TestUploadGrantGeneratedFilename(t *testing.T) {
	_, upload := newHandlers(&mockSigner{}, &memoryAudits{})

	resp, err := upload.Handle(context.Background(), eventWith(`{}`, domain.Claims{"sub": "u1"}))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Regexp(t, regexp.MustCompile(`^u1/upload-`+uuidPattern+`$`), body["file_key"])
	assert.EqualValues(t, 1800, body["expires_in_seconds"])
}

func TestUploadGrantInvalidExpiryIsError(t *testing.T) {
	audits := &memoryAudits{}
	_, upload := newHandlers(&mockSigner{}, audits)

	_, err := upload.Handle(context.Background(), eventWith(`{"expires": "abc"}`, nil))
	assert.ErrorIs(t, err, domain.ErrInvalidExpiry)
	assert.Empty(t, audits.records)
}

func TestHandlersPropagateDownstreamFailures(t *testing.T) {
	download, _ := newHandlers(&mockSigner{err: errors.New("NoSuchBucket")}, &memoryAudits{})
	_, err := download.Handle(context.Background(), GatewayEvent{})
	assert.ErrorIs(t, err, service.ErrSignFailed)

	audits := &memoryAudits{err: errors.New("throttled")}
	_, upload := newHandlers(&mockSigner{}, audits)
	_, err = upload.Handle(context.Background(), GatewayEvent{})
	assert.ErrorIs(t, err, service.ErrAuditFailed)
}
