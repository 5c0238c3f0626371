package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"alcyxob/file-grants/internal/domain"
)

const headerForwardedFor = "x-forwarded-for"

// decodeBody returns the JSON object carried by the event. A missing,
// undecodable or non-object body yields an empty map; it is never an error.
// Numbers are kept as json.Number so expiry coercion sees the literal.
func decodeBody(event GatewayEvent) map[string]any {
	raw := event.Body
	if raw == "" {
		return map[string]any{}
	}
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return map[string]any{}
		}
		raw = string(decoded)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		return map[string]any{}
	}
	// Trailing content after the object makes the whole body malformed.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return map[string]any{}
	}
	return body
}

// stringField returns body[name] when it is a string.
func stringField(body map[string]any, name string) string {
	s, _ := body[name].(string)
	return s
}

// identity derives the requesting user from the authorizer claims.
func identity(event GatewayEvent) string {
	return domain.IdentityFromClaims(event.RequestContext.Authorizer.JWT.Claims)
}

// sourceIP prefers the address reported by the gateway, then the first
// entry of X-Forwarded-For, then "unknown".
func sourceIP(event GatewayEvent) string {
	if ip := event.RequestContext.HTTP.SourceIP; ip != "" {
		return ip
	}
	if ip := event.RequestContext.Identity.SourceIP; ip != "" {
		return ip
	}
	if xff := header(event.Headers, headerForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return domain.UnknownSourceIP
}

// header looks name up case-insensitively.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
