package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jobdeck/backend/internal/authz"
)

// Request is the envelope handed to handlers after the router has resolved
// the principal and extracted path parameters. UserID is the only legitimate
// source of a user identity downstream.
type Request struct {
	UserID     string
	TokenEmail string
	Params     map[string]string
	Query      map[string]string
	Body       string
}

// HandlerFunc handles one routed request.
type HandlerFunc func(ctx context.Context, req *Request) events.APIGatewayV2HTTPResponse

type route struct {
	method   string
	segments []string
	handler  HandlerFunc
	public   bool
}

// Router dispatches API Gateway v2 events to handlers by method and path
// template. Templates use `{name}` segments, e.g. "/cards/{cardId}".
type Router struct {
	routes   []route
	allowDev bool
	log      *zap.Logger
}

// NewRouter returns a router that resolves principals with the given dev
// header policy and logs through log.
func NewRouter(allowDev bool, log *zap.Logger) *Router {
	return &Router{allowDev: allowDev, log: log}
}

// Handle registers a handler for an authenticated route.
func (r *Router) Handle(method, pattern string, h HandlerFunc) {
	r.add(method, pattern, h, false)
}

// HandlePublic registers a handler that does not require a principal.
func (r *Router) HandlePublic(method, pattern string, h HandlerFunc) {
	r.add(method, pattern, h, true)
}

func (r *Router) add(method, pattern string, h HandlerFunc, public bool) {
	r.routes = append(r.routes, route{
		method:   strings.ToUpper(method),
		segments: splitPath(pattern),
		handler:  h,
		public:   public,
	})
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// match reports whether segs satisfy the template, returning extracted
// path parameters. Literal segments compare case-insensitively.
func match(template, segs []string) (map[string]string, bool) {
	if len(template) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, t := range template {
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 2)
			}
			params[t[1:len(t)-1]] = segs[i]
			continue
		}
		if !strings.EqualFold(t, segs[i]) {
			return nil, false
		}
	}
	return params, true
}

// Dispatch routes one API Gateway event. Its signature matches what
// lambda.Start expects for an APIGatewayV2HTTPRequest handler.
func (r *Router) Dispatch(ctx context.Context, req events.APIGatewayV2HTTPRequest) (resp events.APIGatewayV2HTTPResponse, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic",
				zap.Any("panic", rec),
				zap.String("path", req.RawPath),
				zap.String("method", req.RequestContext.HTTP.Method))
			resp, err = ServerError(), nil
		}
	}()

	method := strings.ToUpper(req.RequestContext.HTTP.Method)
	if method == http.MethodOptions {
		return Preflight(), nil
	}

	segs := splitPath(req.RawPath)
	pathMatched := false
	for _, rt := range r.routes {
		params, ok := match(rt.segments, segs)
		if !ok {
			continue
		}
		pathMatched = true
		if rt.method != method {
			continue
		}

		envelope := &Request{
			Params: params,
			Query:  req.QueryStringParameters,
			Body:   req.Body,
		}
		if !rt.public {
			userID, authErr := authz.Principal(req, r.allowDev)
			if authErr != nil {
				return Fail(http.StatusUnauthorized, "Unauthorized"), nil
			}
			envelope.UserID = userID
			envelope.TokenEmail = authz.TokenEmail(req, r.allowDev)
		}
		return rt.handler(ctx, envelope), nil
	}

	if pathMatched {
		return Fail(http.StatusMethodNotAllowed, "Method not allowed"), nil
	}
	return Fail(http.StatusNotFound, "Not found"), nil
}
