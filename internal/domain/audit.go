package domain

import "time"

// Action tags recorded on audit entries.
const (
	ActionPresignedGet = "generate_presigned_get"
	ActionPresignedPut = "generate_presigned_put"
)

// UnknownSourceIP is recorded when no client address could be resolved.
const UnknownSourceIP = "unknown"

// AuditRecord is one immutable entry in the audit store, written once per
// issued grant. GET grants carry ExpiresInSeconds, PUT grants carry Expires;
// existing consumers read the two actions under those different names.
type AuditRecord struct {
	AuditID          string `dynamodbav:"audit_id" bson:"_id" json:"audit_id"`
	Timestamp        string `dynamodbav:"ts" bson:"ts" json:"ts"`
	User             string `dynamodbav:"user" bson:"user" json:"user"`
	Action           string `dynamodbav:"action" bson:"action" json:"action"`
	FileKey          string `dynamodbav:"file_key" bson:"file_key" json:"file_key"`
	ExpiresInSeconds *int   `dynamodbav:"expires_in_seconds,omitempty" bson:"expires_in_seconds,omitempty" json:"expires_in_seconds,omitempty"`
	Expires          *int   `dynamodbav:"expires,omitempty" bson:"expires,omitempty" json:"expires,omitempty"`
	SourceIP         string `dynamodbav:"source_ip" bson:"source_ip" json:"source_ip"`
}

// NewGetAuditRecord builds the record for a download grant.
func NewGetAuditRecord(id string, at time.Time, user, fileKey string, expires int, sourceIP string) *AuditRecord {
	return &AuditRecord{
		AuditID:          id,
		Timestamp:        FormatAuditTimestamp(at),
		User:             user,
		Action:           ActionPresignedGet,
		FileKey:          fileKey,
		ExpiresInSeconds: &expires,
		SourceIP:         sourceIP,
	}
}

// NewPutAuditRecord builds the record for an upload grant.
func NewPutAuditRecord(id string, at time.Time, user, fileKey string, expires int, sourceIP string) *AuditRecord {
	return &AuditRecord{
		AuditID:   id,
		Timestamp: FormatAuditTimestamp(at),
		User:      user,
		Action:    ActionPresignedPut,
		FileKey:   fileKey,
		Expires:   &expires,
		SourceIP:  sourceIP,
	}
}

// FormatAuditTimestamp renders t in UTC as ISO-8601 without a zone suffix.
// Microseconds are included only when non-zero, matching the records
// already in the table.
func FormatAuditTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/1000 == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000")
}

// ParseAuditTimestamp is the inverse of FormatAuditTimestamp.
func ParseAuditTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.999999", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
