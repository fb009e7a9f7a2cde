// Package httpx is the HTTP envelope: JSON responses with CORS headers and
// the method + path-template router shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Authorization,Content-Type,x-user-id",
		"Access-Control-Allow-Methods": "GET,POST,PUT,DELETE,OPTIONS",
	}
}

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    corsHeaders(),
		Body:       string(b),
	}
}

// Fail creates a `{ok:false, message}` response with the given status code.
func Fail(status int, msg string) events.APIGatewayV2HTTPResponse {
	return JSON(status, map[string]any{"ok": false, "message": msg})
}

// FailFields creates a `{ok:false, errors:[...]}` response with the given
// status code, used for per-field validation failures.
func FailFields(status int, errs []FieldError) events.APIGatewayV2HTTPResponse {
	return JSON(status, map[string]any{"ok": false, "errors": errs})
}

// ServerError is the generic 500 response. Backend error text never reaches
// the client; callers log the cause.
func ServerError() events.APIGatewayV2HTTPResponse {
	return Fail(http.StatusInternalServerError, "Server error")
}

// Preflight answers an OPTIONS request.
func Preflight() events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusNoContent,
		Headers:    corsHeaders(),
	}
}
