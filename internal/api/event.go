package api

import (
	"context"
	"encoding/json"
	"net/http"

	"alcyxob/file-grants/internal/domain"

	"github.com/aws/aws-lambda-go/events"
)

// GatewayEvent is the proxy event delivered by the API gateway. It covers
// both payload versions: HTTP APIs report the caller in
// requestContext.http.sourceIp, REST APIs in requestContext.identity.sourceIp.
type GatewayEvent struct {
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	Headers         map[string]string `json:"headers"`
	RequestContext  RequestContext    `json:"requestContext"`
}

type RequestContext struct {
	Authorizer Authorizer      `json:"authorizer"`
	HTTP       HTTPContext     `json:"http"`
	Identity   IdentityContext `json:"identity"`
}

type Authorizer struct {
	JWT JWTAuthorizer `json:"jwt"`
}

type JWTAuthorizer struct {
	Claims domain.Claims `json:"claims"`
}

type HTTPContext struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	SourceIP string `json:"sourceIp"`
}

type IdentityContext struct {
	SourceIP string `json:"sourceIp"`
}

// EventHandler is implemented by both grant handlers.
type EventHandler interface {
	Handle(ctx context.Context, event GatewayEvent) (events.APIGatewayV2HTTPResponse, error)
}

func jsonResponse(status int, payload any) (events.APIGatewayV2HTTPResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

func okResponse(payload any) (events.APIGatewayV2HTTPResponse, error) {
	return jsonResponse(http.StatusOK, payload)
}
