package api

import (
	"context"

	"alcyxob/file-grants/internal/service"

	"github.com/aws/aws-lambda-go/events"
)

// DownloadGrantHandler answers download grant requests with a presigned GET URL.
type DownloadGrantHandler struct {
	grants service.GrantService
}

// NewDownloadGrantHandler creates a new DownloadGrantHandler.
func NewDownloadGrantHandler(grants service.GrantService) *DownloadGrantHandler {
	return &DownloadGrantHandler{grants: grants}
}

// Handle reads {file_key?, expires?} and returns
// {presigned_url, file_key, expires_in_seconds}. Errors are returned to the
// runtime unmapped.
func (h *DownloadGrantHandler) Handle(ctx context.Context, event GatewayEvent) (events.APIGatewayV2HTTPResponse, error) {
	body := decodeBody(event)
	expires, expiresSet := body["expires"]

	grant, err := h.grants.IssueDownloadGrant(ctx, service.DownloadGrantRequest{
		User:       identity(event),
		FileKey:    stringField(body, "file_key"),
		Expires:    expires,
		ExpiresSet: expiresSet,
		SourceIP:   sourceIP(event),
	})
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return okResponse(grant)
}

// UploadGrantHandler answers upload grant requests with a presigned PUT URL.
type UploadGrantHandler struct {
	grants service.GrantService
}

// NewUploadGrantHandler creates a new UploadGrantHandler.
func NewUploadGrantHandler(grants service.GrantService) *UploadGrantHandler {
	return &UploadGrantHandler{grants: grants}
}

// Handle reads {filename?, expires?} and returns
// {upload_url, file_key, expires_in_seconds}.
func (h *UploadGrantHandler) Handle(ctx context.Context, event GatewayEvent) (events.APIGatewayV2HTTPResponse, error) {
	body := decodeBody(event)
	expires, expiresSet := body["expires"]

	grant, err := h.grants.IssueUploadGrant(ctx, service.UploadGrantRequest{
		User:       identity(event),
		Filename:   stringField(body, "filename"),
		Expires:    expires,
		ExpiresSet: expiresSet,
		SourceIP:   sourceIP(event),
	})
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return okResponse(grant)
}
