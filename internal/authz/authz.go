// Package authz resolves the calling principal from an API Gateway request.
package authz

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// ErrUnauthorized is returned when no principal can be resolved for a request.
var ErrUnauthorized = errors.New("unauthorized")

// DevHeader is the development identity override, honored only when the
// deployment enables it. Header name matching is case-insensitive.
const DevHeader = "x-user-id"

// headerLookup returns the value of a header key from a map.
func headerLookup(h map[string]string, key string) string {
	if len(h) == 0 {
		return ""
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// claimFromAuthHeader extracts a claim from the bearer token in the
// Authorization header. The token is parsed, not verified, so this path is
// only consulted in development deployments, alongside the dev header. In
// production the gateway authorizer is the sole verification boundary.
func claimFromAuthHeader(headers map[string]string, claim string) string {
	auth := headerLookup(headers, "Authorization")
	if auth == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		auth = strings.TrimSpace(auth[len("bearer "):])
	}
	parts := strings.Split(auth, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	var m map[string]any
	if json.Unmarshal(payload, &m) != nil {
		return ""
	}
	if s, ok := m[claim].(string); ok {
		return s
	}
	return ""
}

// jwtClaim returns a claim from the gateway authorizer context, if present.
func jwtClaim(req events.APIGatewayV2HTTPRequest, claim string) string {
	if req.RequestContext.Authorizer == nil || req.RequestContext.Authorizer.JWT == nil {
		return ""
	}
	return req.RequestContext.Authorizer.JWT.Claims[claim]
}

// Principal resolves the user identity for a request.
//
// Resolution order: the verified `sub` claim from the gateway authorizer,
// then, when allowDev is set, the dev override header or the bearer token
// payload. Anything else fails. The result is the only legitimate source of
// a userId; any userId in a request body is ignored by callers.
func Principal(req events.APIGatewayV2HTTPRequest, allowDev bool) (string, error) {
	if sub := jwtClaim(req, "sub"); sub != "" {
		return sub, nil
	}
	if allowDev {
		if sub := strings.TrimSpace(headerLookup(req.Headers, DevHeader)); sub != "" {
			return sub, nil
		}
		if sub := claimFromAuthHeader(req.Headers, "sub"); sub != "" {
			return sub, nil
		}
	}
	return "", ErrUnauthorized
}

// TokenEmail returns the verified email claim for the request, or "" when
// the token carries none. A token email overrides any body-supplied email
// during profile writes. The unverified bearer payload is read only in
// development deployments, mirroring Principal.
func TokenEmail(req events.APIGatewayV2HTTPRequest, allowDev bool) string {
	if email := jwtClaim(req, "email"); email != "" {
		return email
	}
	if allowDev {
		return claimFromAuthHeader(req.Headers, "email")
	}
	return ""
}
