package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Operation is the object operation a presigned URL authorizes.
type Operation string

const (
	OperationGet Operation = "GET"
	OperationPut Operation = "PUT"
)

// GeneratedDownloadKey returns "{user}/{uuid}" for downloads that name no key.
func GeneratedDownloadKey(user string) string {
	return fmt.Sprintf("%s/%s", user, uuid.NewString())
}

// GeneratedUploadFilename returns "upload-{uuid}".
func GeneratedUploadFilename() string {
	return "upload-" + uuid.NewString()
}

// UploadKey namespaces an upload under the requesting user.
func UploadKey(user, filename string) string {
	return user + "/" + filename
}
