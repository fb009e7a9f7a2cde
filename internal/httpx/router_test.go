package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

func newTestRouter(allowDev bool) *Router {
	return NewRouter(allowDev, zap.NewNop())
}

func v2Request(method, path string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: method},
		},
	}
}

func TestDispatchRoutesByMethodAndTemplate(t *testing.T) {
	r := newTestRouter(true)
	r.Handle(http.MethodPut, "/cards/{cardId}", func(_ context.Context, req *Request) events.APIGatewayV2HTTPResponse {
		if req.Params["cardId"] != "abc123" {
			t.Fatalf("expected path param abc123, got %q", req.Params["cardId"])
		}
		if req.UserID != "dev-user" {
			t.Fatalf("expected resolved principal, got %q", req.UserID)
		}
		return JSON(http.StatusOK, map[string]any{"ok": true})
	})

	req := v2Request(http.MethodPut, "/cards/abc123")
	req.Headers = map[string]string{"x-user-id": "dev-user"}
	resp, err := r.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("dispatch error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", resp.StatusCode, resp.Body)
	}
}

func TestDispatchUnauthorized(t *testing.T) {
	r := newTestRouter(false)
	r.Handle(http.MethodGet, "/cards", func(_ context.Context, _ *Request) events.APIGatewayV2HTTPResponse {
		t.Fatal("handler must not run without a principal")
		return events.APIGatewayV2HTTPResponse{}
	})

	req := v2Request(http.MethodGet, "/cards")
	req.Headers = map[string]string{"x-user-id": "dev-user"} // flag disabled
	resp, _ := r.Dispatch(context.Background(), req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["ok"] != false || body["message"] != "Unauthorized" {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
}

func TestDispatchPublicRouteSkipsAuth(t *testing.T) {
	r := newTestRouter(false)
	r.HandlePublic(http.MethodGet, "/health", func(_ context.Context, req *Request) events.APIGatewayV2HTTPResponse {
		if req.UserID != "" {
			t.Fatalf("public route should carry no principal, got %q", req.UserID)
		}
		return JSON(http.StatusOK, map[string]any{"ok": true})
	})
	resp, _ := r.Dispatch(context.Background(), v2Request(http.MethodGet, "/health"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDispatchPreflight(t *testing.T) {
	r := newTestRouter(false)
	resp, _ := r.Dispatch(context.Background(), v2Request(http.MethodOptions, "/cards"))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Fatalf("missing CORS header on preflight")
	}
	if resp.Body != "" {
		t.Fatalf("preflight body should be empty, got %q", resp.Body)
	}
}

func TestDispatchNotFoundAndMethodMismatch(t *testing.T) {
	r := newTestRouter(true)
	r.Handle(http.MethodGet, "/cards", func(_ context.Context, _ *Request) events.APIGatewayV2HTTPResponse {
		return JSON(http.StatusOK, nil)
	})

	resp, _ := r.Dispatch(context.Background(), v2Request(http.MethodGet, "/nowhere"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	req := v2Request(http.MethodDelete, "/cards")
	req.Headers = map[string]string{"x-user-id": "u"}
	resp, _ = r.Dispatch(context.Background(), req)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := newTestRouter(true)
	r.HandlePublic(http.MethodGet, "/boom", func(_ context.Context, _ *Request) events.APIGatewayV2HTTPResponse {
		panic("kaboom")
	})
	resp, err := r.Dispatch(context.Background(), v2Request(http.MethodGet, "/boom"))
	if err != nil {
		t.Fatalf("panic must not surface as a handler error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body map[string]any
	if jErr := json.Unmarshal([]byte(resp.Body), &body); jErr != nil {
		t.Fatalf("bad body: %v", jErr)
	}
	if body["message"] != "Server error" {
		t.Fatalf("internal detail must not leak, got %s", resp.Body)
	}
}

func TestResponsesCarryCORS(t *testing.T) {
	for _, resp := range []events.APIGatewayV2HTTPResponse{
		JSON(http.StatusOK, map[string]any{"ok": true}),
		Fail(http.StatusBadRequest, "nope"),
		ServerError(),
	} {
		if resp.Headers["Access-Control-Allow-Origin"] != "*" {
			t.Fatalf("response missing CORS origin header: %+v", resp.Headers)
		}
		if !strings.Contains(resp.Headers["Access-Control-Allow-Headers"], "x-user-id") {
			t.Fatalf("response missing dev header in allow-headers: %+v", resp.Headers)
		}
	}
}
